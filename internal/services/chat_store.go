package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const chatRoomColumns = `id, user_low_id, user_high_id, created_at, last_activity_at`

type pgChatStore struct {
	q DBConn
}

func scanChatRoom(row Row) (*models.ChatRoom, error) {
	r := &models.ChatRoom{}
	if err := row.Scan(&r.ID, &r.UserLowID, &r.UserHighID, &r.CreatedAt, &r.LastActivityAt); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *pgChatStore) GetOrCreateRoom(ctx context.Context, lowID, highID uuid.UUID) (*models.ChatRoom, bool, error) {
	room, err := scanChatRoom(s.q.QueryRow(ctx,
		`INSERT INTO chat_rooms (user_low_id, user_high_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_low_id, user_high_id) DO NOTHING
		 RETURNING `+chatRoomColumns,
		lowID, highID,
	))
	if err == nil {
		return room, true, nil
	}
	if isForeignKeyViolation(err) {
		return nil, false, ErrUserNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert chat room: %w", err)
	}

	// Lost the race (or the room already existed): read the surviving row.
	room, err = scanChatRoom(s.q.QueryRow(ctx,
		`SELECT `+chatRoomColumns+` FROM chat_rooms WHERE user_low_id = $1 AND user_high_id = $2`,
		lowID, highID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("load chat room: %w", err)
	}
	return room, false, nil
}

func (s *pgChatStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	room, err := scanChatRoom(s.q.QueryRow(ctx,
		`SELECT `+chatRoomColumns+` FROM chat_rooms WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat room: %w", err)
	}
	return room, nil
}

func (s *pgChatStore) ListRooms(ctx context.Context, userID uuid.UUID, excluded []uuid.UUID) ([]models.ChatRoom, error) {
	if excluded == nil {
		excluded = []uuid.UUID{}
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+chatRoomColumns+`
		 FROM chat_rooms
		 WHERE (user_low_id = $1 OR user_high_id = $1)
		   AND (CASE WHEN user_low_id = $1 THEN user_high_id ELSE user_low_id END) <> ALL($2)
		 ORDER BY last_activity_at DESC`,
		userID, excluded,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	defer rows.Close()

	rooms := []models.ChatRoom{}
	for rows.Next() {
		room, err := scanChatRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat room: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	return rooms, nil
}

func (s *pgChatStore) InsertMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{}
	err := withTx(ctx, s.q, func(tx DBConn) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO chat_messages (room_id, sender_id, body)
			 VALUES ($1, $2, $3)
			 RETURNING id, room_id, sender_id, body, created_at`,
			roomID, senderID, body,
		).Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Body, &msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE chat_rooms SET last_activity_at = $2 WHERE id = $1`,
			roomID, msg.CreatedAt,
		); err != nil {
			return fmt.Errorf("touch chat room: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *pgChatStore) ListMessages(ctx context.Context, roomID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error) {
	query := `SELECT id, room_id, sender_id, body, created_at FROM chat_messages WHERE room_id = $1`
	args := []any{roomID}
	if before != nil {
		args = append(args, *before)
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}
