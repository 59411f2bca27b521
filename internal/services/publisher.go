package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/logging"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// NotificationPublisher pushes a committed notification to live listeners.
type NotificationPublisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// NotificationChannel is the redis channel a recipient's stream listens on.
func NotificationChannel(recipientID uuid.UUID) string {
	return "notifications:" + recipientID.String()
}

// NotificationBroker fans committed notifications out over redis pub/sub.
type NotificationBroker struct {
	redis RedisClient
}

func NewNotificationBroker(client RedisClient) *NotificationBroker {
	return &NotificationBroker{redis: client}
}

func (b *NotificationBroker) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := b.redis.Publish(ctx, NotificationChannel(n.RecipientID), payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Subscribe streams notifications for userID until ctx is done or the
// subscription ends. The returned channel is closed on exit.
func (b *NotificationBroker) Subscribe(ctx context.Context, userID uuid.UUID) <-chan models.Notification {
	sub := b.redis.Subscribe(ctx, NotificationChannel(userID))
	out := make(chan models.Notification)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logging.Warn("Dropping malformed notification payload", map[string]interface{}{
						"channel": msg.Channel,
						"error":   err.Error(),
					})
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
