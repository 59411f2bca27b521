package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const userColumns = `id, username, COALESCE(display_name, ''), COALESCE(bio, ''), created_at`

type pgUserStore struct {
	q DBConn
}

func scanUser(row Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Bio, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *pgUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *pgUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`,
		username,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// GetByUsernames resolves handles case-insensitively; unknown handles are
// simply absent from the result.
func (s *pgUserStore) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return []models.User{}, nil
	}
	lowered := make([]string, len(usernames))
	for i, name := range usernames {
		lowered[i] = strings.ToLower(name)
	}

	rows, err := s.q.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = ANY($1)`,
		lowered,
	)
	if err != nil {
		return nil, fmt.Errorf("get users by username: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get users by username: %w", err)
	}
	return users, nil
}

func (s *pgUserStore) Search(ctx context.Context, query string, scope ContentScope, limit int) ([]models.UserSearchResult, error) {
	excluded := scope.ExcludedAuthorIDs
	if excluded == nil {
		excluded = []uuid.UUID{}
	}
	rows, err := s.q.Query(ctx,
		`SELECT id, username, COALESCE(display_name, '')
		 FROM users
		 WHERE LOWER(username) LIKE LOWER($1) || '%'
		   AND id <> ALL($2)
		   AND ($3::uuid IS NULL OR id <> $3::uuid)
		 ORDER BY LOWER(username)
		 LIMIT $4`,
		escapeLike(query), excluded, scope.ViewerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	results := []models.UserSearchResult{}
	for rows.Next() {
		var r models.UserSearchResult
		if err := rows.Scan(&r.ID, &r.Username, &r.DisplayName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return results, nil
}
