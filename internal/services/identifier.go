package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// ResolveIdentifier looks a user up by uuid string or, failing that, by
// username (case-insensitive, optional leading "@").
func ResolveIdentifier(ctx context.Context, users UserStore, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrInvalidIdentifier
	}

	if id, err := uuid.Parse(identifier); err == nil {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	user, err := users.GetByUsername(ctx, strings.TrimPrefix(identifier, "@"))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
