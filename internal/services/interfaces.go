package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

type FriendshipServiceInterface interface {
	SendRequest(ctx context.Context, requesterID uuid.UUID, targetIdentifier string) (*models.Friendship, error)
	Respond(ctx context.Context, requestID, byUserID uuid.UUID, accept bool) (*models.Friendship, error)
	Cancel(ctx context.Context, requestID, byUserID uuid.UUID) error
	Unfriend(ctx context.Context, userID uuid.UUID, otherIdentifier string) error
	Status(ctx context.Context, viewerID uuid.UUID, subjectIdentifier string) (*StatusResult, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

type BlockServiceInterface interface {
	Block(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error
	Unblock(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error
	ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error)
}

type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, notificationID, byUserID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationStreamer delivers notifications for one user as they are created.
type NotificationStreamer interface {
	Subscribe(ctx context.Context, userID uuid.UUID) <-chan models.Notification
}

type ChatServiceInterface interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, otherIdentifier string) (*models.ChatRoom, error)
	SendMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	ListMessages(ctx context.Context, roomID, userID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error)
}

type ContentServiceInterface interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error)
	GetPost(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID) (*models.Post, error)
	Feed(ctx context.Context, viewerID *uuid.UUID, page Page) ([]models.Post, error)
	Trending(ctx context.Context, viewerID *uuid.UUID, page Page) ([]models.Post, error)
	SearchPosts(ctx context.Context, viewerID *uuid.UUID, query string, page Page) ([]models.Post, error)
	ProfilePosts(ctx context.Context, viewerID *uuid.UUID, profileIdentifier string, page Page) ([]models.Post, error)
	AddComment(ctx context.Context, authorID, postID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID, page Page) ([]models.Comment, error)
	LikePost(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	UnlikePost(ctx context.Context, userID, postID uuid.UUID) error
	ReportPost(ctx context.Context, reporterID, postID uuid.UUID, reason string) (*models.ReportOutcome, error)
}

type UserServiceInterface interface {
	Profile(ctx context.Context, viewerID uuid.UUID, identifier string) (*models.Profile, error)
	Search(ctx context.Context, viewerID uuid.UUID, query string, limit int) ([]models.UserSearchResult, error)
}

var (
	_ FriendshipServiceInterface   = (*FriendshipService)(nil)
	_ BlockServiceInterface        = (*BlockService)(nil)
	_ NotificationServiceInterface = (*NotificationService)(nil)
	_ NotificationStreamer         = (*NotificationBroker)(nil)
	_ ChatServiceInterface         = (*ChatService)(nil)
	_ ContentServiceInterface      = (*ContentService)(nil)
	_ UserServiceInterface         = (*UserService)(nil)
)
