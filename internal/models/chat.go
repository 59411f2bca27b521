package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type ChatRoom struct {
	ID             uuid.UUID `json:"id"`
	UserLowID      uuid.UUID `json:"user_low_id"`
	UserHighID     uuid.UUID `json:"user_high_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// HasParticipant reports whether userID is one side of the room.
func (r *ChatRoom) HasParticipant(userID uuid.UUID) bool {
	return r.UserLowID == userID || r.UserHighID == userID
}

// Peer returns the participant that is not userID.
func (r *ChatRoom) Peer(userID uuid.UUID) uuid.UUID {
	if r.UserLowID == userID {
		return r.UserHighID
	}
	return r.UserLowID
}

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CanonicalPair orders two ids ascending by their bytes so an unordered
// pair always maps to the same (low, high) tuple.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}
