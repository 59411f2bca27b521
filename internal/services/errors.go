package services

import "errors"

// Kind classifies an expected, user-facing failure. Anything that is not a
// *Error is an internal failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidOperation
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidOperation:
		return "invalid_operation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a domain failure with a kind and a message safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

var (
	// ErrNotFound and ErrNotPermitted are also what a blocked party sees, so
	// their messages must stay generic.
	ErrNotFound     = newError(KindNotFound, "not found")
	ErrNotPermitted = newError(KindForbidden, "not permitted")

	ErrUserNotFound = newError(KindNotFound, "user not found")

	ErrCannotFriendSelf       = newError(KindInvalidOperation, "cannot send a friend request to yourself")
	ErrFriendshipExists       = newError(KindConflict, "a friendship already exists for this pair")
	ErrAlreadyFriends         = newError(KindConflict, "you are already friends")
	ErrRequestAlreadySent     = newError(KindConflict, "you already sent a friend request")
	ErrRequestAlreadyReceived = newError(KindConflict, "they already sent you a friend request; accept or decline it instead")
	ErrRequestNotFound        = newError(KindNotFound, "friend request not found")
	ErrNotRequestTarget       = newError(KindForbidden, "only the recipient can respond to this request")
	ErrNotRequester           = newError(KindForbidden, "only the sender can cancel this request")
	ErrRequestNotPending      = newError(KindConflict, "friend request is no longer pending")
	ErrNotFriends             = newError(KindConflict, "you are not friends")
	ErrFriendshipNotFound     = newError(KindNotFound, "friendship not found")

	ErrCannotBlockSelf = newError(KindInvalidOperation, "cannot block yourself")
	ErrBlockExists     = newError(KindConflict, "user already blocked")
	ErrBlockNotFound   = newError(KindNotFound, "block not found")

	ErrNotificationNotFound  = newError(KindNotFound, "notification not found")
	ErrNotNotificationTarget = newError(KindForbidden, "notification belongs to another user")

	ErrCannotChatSelf    = newError(KindInvalidOperation, "cannot start a chat with yourself")
	ErrChatRoomNotFound  = newError(KindNotFound, "chat not found")
	ErrEmptyMessage      = newError(KindInvalidOperation, "message body is required")
	ErrMessageTooLong    = newError(KindInvalidOperation, "message body is too long")
	ErrPostNotFound      = newError(KindNotFound, "post not found")
	ErrCommentNotFound   = newError(KindNotFound, "comment not found")
	ErrEmptyContent      = newError(KindInvalidOperation, "content is required")
	ErrContentTooLong    = newError(KindInvalidOperation, "content is too long")
	ErrCannotReportOwn   = newError(KindInvalidOperation, "cannot report your own post")
	ErrAlreadyReported   = newError(KindConflict, "you already reported this post")
	ErrLikeNotFound      = newError(KindNotFound, "like not found")
	ErrInvalidIdentifier = newError(KindInvalidOperation, "identifier is required")
	ErrEmptyQuery        = newError(KindInvalidOperation, "search query is required")
)
