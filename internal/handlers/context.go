package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// ContextWithUser attaches the authenticated caller to ctx.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated caller, or nil for anonymous requests.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func viewerIDFromContext(ctx context.Context) *uuid.UUID {
	user := GetUserFromContext(ctx)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}
