package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// FriendshipAction is a transition requested on an existing friendship row.
type FriendshipAction string

const (
	FriendshipActionAccept   FriendshipAction = "accept"
	FriendshipActionDecline  FriendshipAction = "decline"
	FriendshipActionCancel   FriendshipAction = "cancel"
	FriendshipActionUnfriend FriendshipAction = "unfriend"
)

type Friendship struct {
	ID          uuid.UUID        `json:"id"`
	RequesterID uuid.UUID        `json:"requester_id"`
	TargetID    uuid.UUID        `json:"target_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID uuid.UUID) bool {
	return f.RequesterID == userID || f.TargetID == userID
}

// OtherParty returns the id of the party that is not userID.
func (f *Friendship) OtherParty(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.TargetID
	}
	return f.RequesterID
}

type FriendWithUser struct {
	Friendship
	FriendUsername string `json:"friend_username"`
}

type FriendRequest struct {
	Friendship
	OtherUsername string `json:"other_username"`
}

// RelationshipStatus is the viewer-relative projection of the pair state.
type RelationshipStatus string

const (
	RelationshipSelf                       RelationshipStatus = "SELF"
	RelationshipNotFriends                 RelationshipStatus = "NOT_FRIENDS"
	RelationshipFriends                    RelationshipStatus = "FRIENDS"
	RelationshipPendingSentByViewer        RelationshipStatus = "PENDING_SENT_BY_VIEWER"
	RelationshipPendingReceivedByViewer    RelationshipStatus = "PENDING_RECEIVED_BY_VIEWER"
	RelationshipProfileUserBlockedByViewer RelationshipStatus = "PROFILE_USER_BLOCKED_BY_VIEWER"
	RelationshipBlockedByProfileUser       RelationshipStatus = "BLOCKED_BY_PROFILE_USER"
)
