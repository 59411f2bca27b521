package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeFriendRequestReceived NotificationType = "FRIEND_REQUEST_RECEIVED"
	NotificationTypeFriendRequestAccepted NotificationType = "FRIEND_REQUEST_ACCEPTED"
	NotificationTypePostLiked             NotificationType = "POST_LIKED"
	NotificationTypeNewComment            NotificationType = "NEW_COMMENT"
	NotificationTypeReplyToComment        NotificationType = "REPLY_TO_COMMENT"
	NotificationTypeMentionInPost         NotificationType = "MENTION_IN_POST"
	NotificationTypeMentionInComment      NotificationType = "MENTION_IN_COMMENT"
	NotificationTypeNewChatMessage        NotificationType = "NEW_CHAT_MESSAGE"
)

type TargetType string

const (
	TargetTypeFriendship TargetType = "friendship"
	TargetTypePost       TargetType = "post"
	TargetTypeComment    TargetType = "comment"
	TargetTypeChatRoom   TargetType = "chat_room"
)

type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	ActorID     *uuid.UUID       `json:"actor_id,omitempty"`
	Type        NotificationType `json:"type"`
	TargetType  TargetType       `json:"target_type"`
	TargetID    uuid.UUID        `json:"target_id"`
	IsRead      bool             `json:"is_read"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}
