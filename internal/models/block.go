package models

import (
	"time"

	"github.com/google/uuid"
)

type Block struct {
	ID        uuid.UUID `json:"id"`
	BlockerID uuid.UUID `json:"blocker_id"`
	BlockedID uuid.UUID `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

type BlockedUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	BlockedAt time.Time `json:"blocked_at"`
}
