package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/metrics"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const MaxChatMessageLength = 2000

type ChatService struct {
	store         UnitOfWork
	notifications *NotificationService
	metrics       *metrics.Metrics
}

func NewChatService(store UnitOfWork, notifications *NotificationService) *ChatService {
	return &ChatService{store: store, notifications: notifications}
}

func (s *ChatService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// GetOrCreate returns the single room for the unordered pair, creating it on
// first use. Concurrent callers for the same pair get the same room.
func (s *ChatService) GetOrCreate(ctx context.Context, userID uuid.UUID, otherIdentifier string) (*models.ChatRoom, error) {
	var room *models.ChatRoom
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		other, err := ResolveIdentifier(ctx, repos.Users, otherIdentifier)
		if err != nil {
			return err
		}
		if other.ID == userID {
			return ErrCannotChatSelf
		}
		if err := NewBlockGuard(repos.Relationships).Require(ctx, userID, other.ID); err != nil {
			return err
		}

		low, high := models.CanonicalPair(userID, other.ID)
		room, _, err = repos.Chats.GetOrCreateRoom(ctx, low, high)
		return err
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// SendMessage re-checks the block on every send; a room that predates a
// block cannot be used to keep talking.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > MaxChatMessageLength {
		return nil, ErrMessageTooLong
	}

	var msg *models.ChatMessage
	var sent []models.Notification
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		room, err := repos.Chats.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil || !room.HasParticipant(senderID) {
			return ErrChatRoomNotFound
		}
		peerID := room.Peer(senderID)
		if err := NewBlockGuard(repos.Relationships).Require(ctx, senderID, peerID); err != nil {
			return err
		}

		msg, err = repos.Chats.InsertMessage(ctx, room.ID, senderID, body)
		if err != nil {
			return err
		}

		sent, err = s.notifications.emit(ctx, repos, NotificationEvent{
			ActorID:    senderID,
			Type:       models.NotificationTypeNewChatMessage,
			TargetType: models.TargetTypeChatRoom,
			TargetID:   room.ID,
			Recipients: []uuid.UUID{peerID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ChatMessage()
	s.notifications.deliver(ctx, sent)
	return msg, nil
}

// ListRooms omits rooms whose peer is on the other side of a block.
func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		excluded, err := repos.Relationships.ExcludedUserIDs(ctx, userID)
		if err != nil {
			return err
		}
		rooms, err = repos.Chats.ListRooms(ctx, userID, excluded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *ChatService) ListMessages(ctx context.Context, roomID, userID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error) {
	limit = NewPage(limit, 0).Limit

	var messages []models.ChatMessage
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		room, err := repos.Chats.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil || !room.HasParticipant(userID) {
			return ErrChatRoomNotFound
		}
		viewer := userID
		if err := NewVisibilityFilter(repos.Relationships).CheckResource(ctx, &viewer, room.Peer(userID)); err != nil {
			return err
		}
		messages, err = repos.Chats.ListMessages(ctx, room.ID, limit, before)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
