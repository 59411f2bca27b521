package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/metrics"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// CheckFriendshipTransition enforces who may apply which action to a
// friendship in which state. Role is checked before state. Outsiders get the
// same not-found error as for an unknown id.
func CheckFriendshipTransition(f *models.Friendship, byUserID uuid.UUID, action models.FriendshipAction) error {
	if !f.Involves(byUserID) {
		if action == models.FriendshipActionUnfriend {
			return ErrFriendshipNotFound
		}
		return ErrRequestNotFound
	}

	switch action {
	case models.FriendshipActionAccept, models.FriendshipActionDecline:
		if byUserID != f.TargetID {
			return ErrNotRequestTarget
		}
		if f.Status != models.FriendshipStatusPending {
			return ErrRequestNotPending
		}
	case models.FriendshipActionCancel:
		if byUserID != f.RequesterID {
			return ErrNotRequester
		}
		if f.Status != models.FriendshipStatusPending {
			return ErrRequestNotPending
		}
	case models.FriendshipActionUnfriend:
		if f.Status != models.FriendshipStatusAccepted {
			return ErrNotFriends
		}
	default:
		return newError(KindInvalidOperation, "unknown friendship action")
	}
	return nil
}

// friendshipConflict explains why a new request collided with an existing row.
func friendshipConflict(existing *models.Friendship, requesterID uuid.UUID) error {
	switch {
	case existing == nil:
		return ErrFriendshipExists
	case existing.Status == models.FriendshipStatusAccepted:
		return ErrAlreadyFriends
	case existing.RequesterID == requesterID:
		return ErrRequestAlreadySent
	default:
		return ErrRequestAlreadyReceived
	}
}

type FriendshipService struct {
	store         UnitOfWork
	notifications *NotificationService
	metrics       *metrics.Metrics
}

func NewFriendshipService(store UnitOfWork, notifications *NotificationService) *FriendshipService {
	return &FriendshipService{store: store, notifications: notifications}
}

func (s *FriendshipService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *FriendshipService) SendRequest(ctx context.Context, requesterID uuid.UUID, targetIdentifier string) (*models.Friendship, error) {
	var created *models.Friendship
	var sent []models.Notification
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		target, err := ResolveIdentifier(ctx, repos.Users, targetIdentifier)
		if err != nil {
			return err
		}
		if target.ID == requesterID {
			return ErrCannotFriendSelf
		}

		// The store checks for blocks after locking the pair.
		f, err := repos.Relationships.CreateFriendshipRequest(ctx, requesterID, target.ID)
		if errors.Is(err, ErrFriendshipExists) {
			existing, findErr := repos.Relationships.FindFriendship(ctx, requesterID, target.ID)
			if findErr != nil {
				return findErr
			}
			return friendshipConflict(existing, requesterID)
		}
		if err != nil {
			return err
		}
		created = f

		sent, err = s.notifications.emit(ctx, repos, NotificationEvent{
			ActorID:    requesterID,
			Type:       models.NotificationTypeFriendRequestReceived,
			TargetType: models.TargetTypeFriendship,
			TargetID:   f.ID,
			Recipients: []uuid.UUID{target.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Friendship("request")
	s.notifications.deliver(ctx, sent)
	return created, nil
}

// Respond accepts or declines a pending request addressed to byUserID.
// Declining removes the row.
func (s *FriendshipService) Respond(ctx context.Context, requestID, byUserID uuid.UUID, accept bool) (*models.Friendship, error) {
	action := models.FriendshipActionDecline
	if accept {
		action = models.FriendshipActionAccept
	}

	var result *models.Friendship
	var sent []models.Notification
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		f, err := repos.Relationships.TransitionFriendship(ctx, requestID, byUserID, action)
		if err != nil {
			return err
		}
		result = f
		if !accept {
			return nil
		}

		sent, err = s.notifications.emit(ctx, repos, NotificationEvent{
			ActorID:    byUserID,
			Type:       models.NotificationTypeFriendRequestAccepted,
			TargetType: models.TargetTypeFriendship,
			TargetID:   f.ID,
			Recipients: []uuid.UUID{f.RequesterID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Friendship(string(action))
	s.notifications.deliver(ctx, sent)
	return result, nil
}

func (s *FriendshipService) Cancel(ctx context.Context, requestID, byUserID uuid.UUID) error {
	if _, err := s.store.Repos().Relationships.TransitionFriendship(ctx, requestID, byUserID, models.FriendshipActionCancel); err != nil {
		return err
	}
	s.metrics.Friendship(string(models.FriendshipActionCancel))
	return nil
}

func (s *FriendshipService) Unfriend(ctx context.Context, userID uuid.UUID, otherIdentifier string) error {
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		other, err := ResolveIdentifier(ctx, repos.Users, otherIdentifier)
		if err != nil {
			return err
		}
		f, err := repos.Relationships.FindFriendship(ctx, userID, other.ID)
		if err != nil {
			return err
		}
		if f == nil || f.Status != models.FriendshipStatusAccepted {
			return ErrFriendshipNotFound
		}
		_, err = repos.Relationships.TransitionFriendship(ctx, f.ID, userID, models.FriendshipActionUnfriend)
		return err
	})
	if err != nil {
		return err
	}
	s.metrics.Friendship(string(models.FriendshipActionUnfriend))
	return nil
}

// StatusResult is the viewer-relative state of a pair.
type StatusResult struct {
	Status       models.RelationshipStatus `json:"status"`
	FriendshipID *uuid.UUID                `json:"friendship_id,omitempty"`
}

func (s *FriendshipService) Status(ctx context.Context, viewerID uuid.UUID, subjectIdentifier string) (*StatusResult, error) {
	var result *StatusResult
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		subject, err := ResolveIdentifier(ctx, repos.Users, subjectIdentifier)
		if err != nil {
			return err
		}
		result, err = relationshipStatus(ctx, repos.Relationships, viewerID, subject.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// relationshipStatus picks the first matching state in priority order:
// self, blocked by viewer, blocked by subject, friends, pending either way.
func relationshipStatus(ctx context.Context, rel RelationshipStore, viewerID, subjectID uuid.UUID) (*StatusResult, error) {
	if viewerID == subjectID {
		return &StatusResult{Status: models.RelationshipSelf}, nil
	}

	blockedByViewer, err := rel.HasBlocked(ctx, viewerID, subjectID)
	if err != nil {
		return nil, err
	}
	if blockedByViewer {
		return &StatusResult{Status: models.RelationshipProfileUserBlockedByViewer}, nil
	}

	blockedBySubject, err := rel.HasBlocked(ctx, subjectID, viewerID)
	if err != nil {
		return nil, err
	}
	if blockedBySubject {
		return &StatusResult{Status: models.RelationshipBlockedByProfileUser}, nil
	}

	f, err := rel.FindFriendship(ctx, viewerID, subjectID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return &StatusResult{Status: models.RelationshipNotFriends}, nil
	}

	id := f.ID
	switch {
	case f.Status == models.FriendshipStatusAccepted:
		return &StatusResult{Status: models.RelationshipFriends, FriendshipID: &id}, nil
	case f.RequesterID == viewerID:
		return &StatusResult{Status: models.RelationshipPendingSentByViewer, FriendshipID: &id}, nil
	default:
		return &StatusResult{Status: models.RelationshipPendingReceivedByViewer, FriendshipID: &id}, nil
	}
}

func (s *FriendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	return s.store.Repos().Relationships.ListFriends(ctx, userID)
}

func (s *FriendshipService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return s.store.Repos().Relationships.ListIncomingRequests(ctx, userID)
}

func (s *FriendshipService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return s.store.Repos().Relationships.ListOutgoingRequests(ctx, userID)
}
