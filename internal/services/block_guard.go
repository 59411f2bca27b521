package services

import (
	"context"

	"github.com/google/uuid"
)

// BlockChecker is the one store query BlockGuard depends on.
type BlockChecker interface {
	IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// BlockGuard answers whether two users may interact. A block in either
// direction forbids it; a user may always interact with themselves.
type BlockGuard struct {
	checker BlockChecker
}

func NewBlockGuard(checker BlockChecker) *BlockGuard {
	return &BlockGuard{checker: checker}
}

func (g *BlockGuard) CanInteract(ctx context.Context, actorID, subjectID uuid.UUID) (bool, error) {
	if actorID == subjectID {
		return true, nil
	}
	blocked, err := g.checker.IsBlocked(ctx, actorID, subjectID)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

// Require returns ErrNotPermitted when the pair cannot interact.
func (g *BlockGuard) Require(ctx context.Context, actorID, subjectID uuid.UUID) error {
	ok, err := g.CanInteract(ctx, actorID, subjectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPermitted
	}
	return nil
}
