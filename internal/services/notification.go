package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/logging"
	"github.com/HammerMeetNail/socialgraph/internal/metrics"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// NotificationEvent is one domain event fanned out to a set of candidate
// recipients.
type NotificationEvent struct {
	ActorID    uuid.UUID
	Type       models.NotificationType
	TargetType models.TargetType
	TargetID   uuid.UUID
	Recipients []uuid.UUID
}

var notificationTemplates = map[models.NotificationType]string{
	models.NotificationTypeFriendRequestReceived: "%s sent you a friend request",
	models.NotificationTypeFriendRequestAccepted: "%s accepted your friend request",
	models.NotificationTypePostLiked:             "%s liked your post",
	models.NotificationTypeNewComment:            "%s commented on your post",
	models.NotificationTypeReplyToComment:        "%s replied to your comment",
	models.NotificationTypeMentionInPost:         "%s mentioned you in a post",
	models.NotificationTypeMentionInComment:      "%s mentioned you in a comment",
	models.NotificationTypeNewChatMessage:        "%s sent you a message",
}

func notificationMessage(t models.NotificationType, actorName string) string {
	tmpl, ok := notificationTemplates[t]
	if !ok {
		return string(t)
	}
	return fmt.Sprintf(tmpl, actorName)
}

type NotificationService struct {
	store     UnitOfWork
	publisher NotificationPublisher
	metrics   *metrics.Metrics
}

func NewNotificationService(store UnitOfWork, publisher NotificationPublisher) *NotificationService {
	return &NotificationService{store: store, publisher: publisher}
}

func (s *NotificationService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Emit persists the event in its own transaction and publishes the result.
func (s *NotificationService) Emit(ctx context.Context, ev NotificationEvent) ([]models.Notification, error) {
	var created []models.Notification
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		var err error
		created, err = s.emit(ctx, repos, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, created)
	return created, nil
}

// emit writes at most one unread notification per eligible recipient using
// the caller's repositories, so it commits or rolls back with the caller.
// The actor, duplicates and anyone on the other side of a block are dropped.
func (s *NotificationService) emit(ctx context.Context, repos Repositories, ev NotificationEvent) ([]models.Notification, error) {
	guard := NewBlockGuard(repos.Relationships)
	created := []models.Notification{}
	seen := make(map[uuid.UUID]bool, len(ev.Recipients))
	actorName := ""

	for _, recipientID := range ev.Recipients {
		if recipientID == ev.ActorID || seen[recipientID] {
			s.metrics.NotificationSuppressed(string(ev.Type))
			continue
		}
		seen[recipientID] = true

		ok, err := guard.CanInteract(ctx, ev.ActorID, recipientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.metrics.NotificationSuppressed(string(ev.Type))
			continue
		}

		if actorName == "" {
			actor, err := repos.Users.GetByID(ctx, ev.ActorID)
			if err != nil {
				return nil, err
			}
			if actor == nil {
				return nil, ErrUserNotFound
			}
			actorName = actor.Username
		}

		actorID := ev.ActorID
		n, err := repos.Notifications.Insert(ctx, NotificationInsert{
			RecipientID: recipientID,
			ActorID:     &actorID,
			Type:        ev.Type,
			TargetType:  ev.TargetType,
			TargetID:    ev.TargetID,
			Message:     notificationMessage(ev.Type, actorName),
		})
		if err != nil {
			return nil, err
		}
		if n == nil {
			s.metrics.NotificationSuppressed(string(ev.Type))
			continue
		}
		created = append(created, *n)
	}
	return created, nil
}

// deliver runs after commit. Push failures are logged and never returned;
// the stored notification remains available through polling.
func (s *NotificationService) deliver(ctx context.Context, created []models.Notification) {
	for _, n := range created {
		s.metrics.NotificationCreated(string(n.Type))
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, n); err != nil {
			logging.Error("Failed to publish notification", map[string]interface{}{
				"notification_id": n.ID.String(),
				"recipient_id":    n.RecipientID.String(),
				"error":           err.Error(),
			})
		}
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error) {
	params.Limit = NewPage(params.Limit, 0).Limit
	return s.store.Repos().Notifications.List(ctx, userID, params)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.Repos().Notifications.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, byUserID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(repos Repositories) error {
		n, err := repos.Notifications.Get(ctx, notificationID)
		if err != nil {
			return err
		}
		if n == nil {
			return ErrNotificationNotFound
		}
		if n.RecipientID != byUserID {
			return ErrNotNotificationTarget
		}
		if n.IsRead {
			return nil
		}
		return repos.Notifications.MarkRead(ctx, notificationID)
	})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.Repos().Notifications.MarkAllRead(ctx, userID)
}
