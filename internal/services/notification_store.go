package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const notificationColumns = `id, recipient_id, actor_id, type, target_type, target_id, is_read, message, created_at`

type pgNotificationStore struct {
	q DBConn
}

func scanNotification(row Row) (*models.Notification, error) {
	n := &models.Notification{}
	if err := row.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Type, &n.TargetType, &n.TargetID, &n.IsRead, &n.Message, &n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// Insert re-checks the self and block rules in SQL so a row can never be
// written across a block even if the caller's check raced with a new block.
func (s *pgNotificationStore) Insert(ctx context.Context, in NotificationInsert) (*models.Notification, error) {
	n, err := scanNotification(s.q.QueryRow(ctx,
		`INSERT INTO notifications (recipient_id, actor_id, type, target_type, target_id, message)
		 SELECT $1, $2, $3, $4, $5, $6
		 WHERE ($2::uuid IS NULL OR $2::uuid <> $1)
		   AND NOT EXISTS (
			SELECT 1 FROM user_blocks
			WHERE $2::uuid IS NOT NULL
			  AND ((blocker_id = $1 AND blocked_id = $2::uuid) OR (blocker_id = $2::uuid AND blocked_id = $1))
		   )
		 ON CONFLICT DO NOTHING
		 RETURNING `+notificationColumns,
		in.RecipientID, in.ActorID, string(in.Type), string(in.TargetType), in.TargetID, in.Message,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if isForeignKeyViolation(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (s *pgNotificationStore) Get(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	n, err := scanNotification(s.q.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *pgNotificationStore) List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = $1`
	args := []any{userID}
	if params.UnreadOnly {
		query += ` AND is_read = false`
	}
	if params.Before != nil {
		args = append(args, *params.Before)
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	args = append(args, params.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (s *pgNotificationStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	// A read row leaves the partial unique index; an older read duplicate is fine.
	if _, err := s.q.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *pgNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := s.q.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *pgNotificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
