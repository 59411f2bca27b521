package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const lockUsersSQL = `SELECT id FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`

// lockUserPairForUpdate takes row locks on both users of a friendship or
// block in a single statement. Postgres locks rows in the ORDER BY order,
// which is the byte order CanonicalPair uses, so two transactions touching
// the same pair always queue instead of deadlocking.
func lockUserPairForUpdate(ctx context.Context, q DBConn, userA, userB uuid.UUID) error {
	low, high := models.CanonicalPair(userA, userB)
	ids := []uuid.UUID{low}
	if low != high {
		ids = append(ids, high)
	}

	rows, err := q.Query(ctx, lockUsersSQL, ids)
	if err != nil {
		return fmt.Errorf("lock users: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("lock users: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock users: %w", err)
	}
	if locked != len(ids) {
		return ErrUserNotFound
	}
	return nil
}
