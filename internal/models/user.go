package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserSearchResult struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
}

// Profile is a user as seen by a particular viewer.
type Profile struct {
	User
	Status       RelationshipStatus `json:"relationship_status"`
	FriendshipID *uuid.UUID         `json:"friendship_id,omitempty"`
}
