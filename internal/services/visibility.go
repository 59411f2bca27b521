package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ContentScope is the viewer-relative filter applied to every listing.
// An anonymous viewer has a nil ViewerID and no exclusions.
type ContentScope struct {
	ViewerID          *uuid.UUID
	ExcludedAuthorIDs []uuid.UUID
}

// Excludes reports whether rows authored by authorID are filtered out.
func (s ContentScope) Excludes(authorID uuid.UUID) bool {
	for _, id := range s.ExcludedAuthorIDs {
		if id == authorID {
			return true
		}
	}
	return false
}

// CanSeeHidden reports whether the viewer may see a hidden post by authorID.
func (s ContentScope) CanSeeHidden(authorID uuid.UUID) bool {
	return s.ViewerID != nil && *s.ViewerID == authorID
}

type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps a requested page to the allowed range.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

type TrendingWeights struct {
	Like    int
	Comment int
	Window  time.Duration
}

func DefaultTrendingWeights() TrendingWeights {
	return TrendingWeights{Like: 1, Comment: 2, Window: 7 * 24 * time.Hour}
}

type VisibilityFilter struct {
	relationships RelationshipStore
}

func NewVisibilityFilter(relationships RelationshipStore) *VisibilityFilter {
	return &VisibilityFilter{relationships: relationships}
}

func (v *VisibilityFilter) Scope(ctx context.Context, viewerID *uuid.UUID) (ContentScope, error) {
	if viewerID == nil {
		return ContentScope{}, nil
	}
	excluded, err := v.relationships.ExcludedUserIDs(ctx, *viewerID)
	if err != nil {
		return ContentScope{}, err
	}
	id := *viewerID
	return ContentScope{ViewerID: &id, ExcludedAuthorIDs: excluded}, nil
}

// CheckResource fails with ErrNotFound when the viewer and the owner of a
// resource are separated by a block.
func (v *VisibilityFilter) CheckResource(ctx context.Context, viewerID *uuid.UUID, ownerID uuid.UUID) error {
	if viewerID == nil {
		return nil
	}
	ok, err := NewBlockGuard(v.relationships).CanInteract(ctx, *viewerID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
