package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const DefaultUserSearchLimit = 20

// UserService is the read side of the user directory.
type UserService struct {
	store UnitOfWork
}

func NewUserService(store UnitOfWork) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Resolve(ctx context.Context, identifier string) (*models.User, error) {
	return ResolveIdentifier(ctx, s.store.Repos().Users, identifier)
}

// Profile returns the user with the viewer-relative relationship status.
// A block in either direction makes the profile look nonexistent; the
// viewer's own blocked list is the way back to an unblock.
func (s *UserService) Profile(ctx context.Context, viewerID uuid.UUID, identifier string) (*models.Profile, error) {
	var profile *models.Profile
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		user, err := ResolveIdentifier(ctx, repos.Users, identifier)
		if err != nil {
			return err
		}
		viewer := viewerID
		err = NewVisibilityFilter(repos.Relationships).CheckResource(ctx, &viewer, user.ID)
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		status, err := relationshipStatus(ctx, repos.Relationships, viewerID, user.ID)
		if err != nil {
			return err
		}
		profile = &models.Profile{User: *user, Status: status.Status, FriendshipID: status.FriendshipID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Search matches a username prefix, leaving out the viewer and anyone on the
// other side of a block.
func (s *UserService) Search(ctx context.Context, viewerID uuid.UUID, query string, limit int) ([]models.UserSearchResult, error) {
	query = strings.TrimPrefix(strings.TrimSpace(query), "@")
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultUserSearchLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	var results []models.UserSearchResult
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		viewer := viewerID
		scope, err := NewVisibilityFilter(repos.Relationships).Scope(ctx, &viewer)
		if err != nil {
			return err
		}
		results, err = repos.Users.Search(ctx, query, scope, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
