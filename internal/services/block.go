package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/metrics"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

type BlockService struct {
	store   UnitOfWork
	metrics *metrics.Metrics
}

func NewBlockService(store UnitOfWork) *BlockService {
	return &BlockService{store: store}
}

func (s *BlockService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Block records the block and drops any friendship or pending request
// between the pair in the same transaction.
func (s *BlockService) Block(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error {
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		blocked, err := ResolveIdentifier(ctx, repos.Users, blockedIdentifier)
		if err != nil {
			return err
		}
		return repos.Relationships.CreateBlock(ctx, blockerID, blocked.ID)
	})
	if err != nil {
		return err
	}
	s.metrics.Block("block")
	return nil
}

// Unblock does not restore a friendship that the block removed.
func (s *BlockService) Unblock(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error {
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		blocked, err := ResolveIdentifier(ctx, repos.Users, blockedIdentifier)
		if err != nil {
			return err
		}
		return repos.Relationships.RemoveBlock(ctx, blockerID, blocked.ID)
	})
	if err != nil {
		return err
	}
	s.metrics.Block("unblock")
	return nil
}

func (s *BlockService) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error) {
	return s.store.Repos().Relationships.ListBlocked(ctx, blockerID)
}
