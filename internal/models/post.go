package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID             uuid.UUID  `json:"id"`
	AuthorID       uuid.UUID  `json:"author_id"`
	AuthorUsername string     `json:"author_username"`
	Content        string     `json:"content"`
	IsHidden       bool       `json:"is_hidden"`
	HiddenAt       *time.Time `json:"hidden_at,omitempty"`
	LikeCount      int        `json:"like_count"`
	CommentCount   int        `json:"comment_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Comment struct {
	ID             uuid.UUID  `json:"id"`
	PostID         uuid.UUID  `json:"post_id"`
	AuthorID       uuid.UUID  `json:"author_id"`
	AuthorUsername string     `json:"author_username"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}

type PostReport struct {
	PostID     uuid.UUID `json:"post_id"`
	ReporterID uuid.UUID `json:"reporter_id"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReportOutcome describes the post state after a report was recorded.
type ReportOutcome struct {
	ReportCount int  `json:"report_count"`
	Hidden      bool `json:"hidden"`
}
