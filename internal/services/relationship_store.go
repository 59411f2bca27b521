package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const friendshipColumns = `id, requester_id, target_id, status, created_at, updated_at`

type pgRelationshipStore struct {
	q DBConn
}

func scanFriendship(row Row) (*models.Friendship, error) {
	f := &models.Friendship{}
	if err := row.Scan(&f.ID, &f.RequesterID, &f.TargetID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *pgRelationshipStore) FindFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	f, err := scanFriendship(s.q.QueryRow(ctx,
		`SELECT `+friendshipColumns+`
		 FROM friendships
		 WHERE (requester_id = $1 AND target_id = $2) OR (requester_id = $2 AND target_id = $1)`,
		a, b,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find friendship: %w", err)
	}
	return f, nil
}

func (s *pgRelationshipStore) GetFriendship(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	f, err := scanFriendship(s.q.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

// CreateFriendshipRequest inserts a pending row. The block check runs under
// the pair lock so it serializes with CreateBlock; a block in either
// direction yields ErrNotPermitted.
func (s *pgRelationshipStore) CreateFriendshipRequest(ctx context.Context, requesterID, targetID uuid.UUID) (*models.Friendship, error) {
	if requesterID == targetID {
		return nil, ErrCannotFriendSelf
	}

	var created *models.Friendship
	err := withTx(ctx, s.q, func(tx DBConn) error {
		if err := lockUserPairForUpdate(ctx, tx, requesterID, targetID); err != nil {
			return err
		}
		blocked, err := (&pgRelationshipStore{q: tx}).IsBlocked(ctx, requesterID, targetID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrNotPermitted
		}

		f, err := scanFriendship(tx.QueryRow(ctx,
			`INSERT INTO friendships (requester_id, target_id, status)
			 VALUES ($1, $2, 'pending')
			 ON CONFLICT DO NOTHING
			 RETURNING `+friendshipColumns,
			requesterID, targetID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrFriendshipExists
		}
		if isUniqueViolation(err) {
			return ErrFriendshipExists
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("insert friendship: %w", err)
		}
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *pgRelationshipStore) TransitionFriendship(ctx context.Context, id, byUserID uuid.UUID, action models.FriendshipAction) (*models.Friendship, error) {
	var result *models.Friendship
	err := withTx(ctx, s.q, func(tx DBConn) error {
		f, err := scanFriendship(tx.QueryRow(ctx,
			`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1 FOR UPDATE`,
			id,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			if action == models.FriendshipActionUnfriend {
				return ErrFriendshipNotFound
			}
			return ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("load friendship: %w", err)
		}

		if err := CheckFriendshipTransition(f, byUserID, action); err != nil {
			return err
		}

		if action == models.FriendshipActionAccept {
			err := tx.QueryRow(ctx,
				`UPDATE friendships
				 SET status = 'accepted', updated_at = NOW()
				 WHERE id = $1
				 RETURNING status, updated_at`,
				id,
			).Scan(&f.Status, &f.UpdatedAt)
			if err != nil {
				return fmt.Errorf("accept friendship: %w", err)
			}
			result = f
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete friendship: %w", err)
		}
		result = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *pgRelationshipStore) CreateBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrCannotBlockSelf
	}

	return withTx(ctx, s.q, func(tx DBConn) error {
		if err := lockUserPairForUpdate(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx,
			`INSERT INTO user_blocks (blocker_id, blocked_id)
			 VALUES ($1, $2)
			 ON CONFLICT (blocker_id, blocked_id) DO NOTHING`,
			blockerID, blockedID,
		)
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrBlockExists
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM friendships
			 WHERE (requester_id = $1 AND target_id = $2) OR (requester_id = $2 AND target_id = $1)`,
			blockerID, blockedID,
		); err != nil {
			return fmt.Errorf("delete friendship on block: %w", err)
		}
		return nil
	})
}

func (s *pgRelationshipStore) RemoveBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	result, err := s.q.Exec(ctx,
		`DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID, blockedID,
	)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrBlockNotFound
	}
	return nil
}

func (s *pgRelationshipStore) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
		)`,
		a, b,
	).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return blocked, nil
}

func (s *pgRelationshipStore) HasBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	var blocked bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2)`,
		blockerID, blockedID,
	).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("check block direction: %w", err)
	}
	return blocked, nil
}

func (s *pgRelationshipStore) ExcludedUserIDs(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.q.Query(ctx,
		`SELECT blocked_id FROM user_blocks WHERE blocker_id = $1
		 UNION
		 SELECT blocker_id FROM user_blocks WHERE blocked_id = $1`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list excluded users: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan excluded user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list excluded users: %w", err)
	}
	return ids, nil
}

func (s *pgRelationshipStore) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	rows, err := s.q.Query(ctx,
		`SELECT f.id, f.requester_id, f.target_id, f.status, f.created_at, f.updated_at, u.username
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.target_id ELSE f.requester_id END
		 WHERE (f.requester_id = $1 OR f.target_id = $1) AND f.status = 'accepted'
		 ORDER BY LOWER(u.username)`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	friends := []models.FriendWithUser{}
	for rows.Next() {
		var f models.FriendWithUser
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.TargetID, &f.Status, &f.CreatedAt, &f.UpdatedAt, &f.FriendUsername); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

func (s *pgRelationshipStore) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return s.listRequests(ctx,
		`SELECT f.id, f.requester_id, f.target_id, f.status, f.created_at, f.updated_at, u.username
		 FROM friendships f
		 JOIN users u ON u.id = f.requester_id
		 WHERE f.target_id = $1 AND f.status = 'pending'
		 ORDER BY f.created_at DESC`,
		userID,
	)
}

func (s *pgRelationshipStore) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return s.listRequests(ctx,
		`SELECT f.id, f.requester_id, f.target_id, f.status, f.created_at, f.updated_at, u.username
		 FROM friendships f
		 JOIN users u ON u.id = f.target_id
		 WHERE f.requester_id = $1 AND f.status = 'pending'
		 ORDER BY f.created_at DESC`,
		userID,
	)
}

func (s *pgRelationshipStore) listRequests(ctx context.Context, query string, userID uuid.UUID) ([]models.FriendRequest, error) {
	rows, err := s.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.ID, &r.RequesterID, &r.TargetID, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.OtherUsername); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return requests, nil
}

func (s *pgRelationshipStore) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error) {
	rows, err := s.q.Query(ctx,
		`SELECT u.id, u.username, b.created_at
		 FROM user_blocks b
		 JOIN users u ON u.id = b.blocked_id
		 WHERE b.blocker_id = $1
		 ORDER BY b.created_at DESC`,
		blockerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	defer rows.Close()

	blocked := []models.BlockedUser{}
	for rows.Next() {
		var b models.BlockedUser
		if err := rows.Scan(&b.ID, &b.Username, &b.BlockedAt); err != nil {
			return nil, fmt.Errorf("scan blocked user: %w", err)
		}
		blocked = append(blocked, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	return blocked, nil
}
