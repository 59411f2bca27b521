package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const postSelect = `SELECT p.id, p.author_id, u.username, p.content, p.is_hidden, p.hidden_at,
		lc.n, cc.n, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN LATERAL (SELECT COUNT(*) AS n FROM post_likes l WHERE l.post_id = p.id) lc ON true
	LEFT JOIN LATERAL (SELECT COUNT(*) AS n FROM comments c WHERE c.post_id = p.id) cc ON true`

const commentSelect = `SELECT c.id, c.post_id, c.author_id, u.username, c.parent_id, c.content, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

type pgContentStore struct {
	q DBConn

	now func() time.Time
}

func scanPost(row Row) (*models.Post, error) {
	p := &models.Post{}
	if err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Content, &p.IsHidden, &p.HiddenAt,
		&p.LikeCount, &p.CommentCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func scanComment(row Row) (*models.Comment, error) {
	c := &models.Comment{}
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.ParentID, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *pgContentStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *pgContentStore) CreatePost(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error) {
	p, err := scanPost(s.q.QueryRow(ctx,
		`WITH p AS (
			INSERT INTO posts (author_id, content)
			VALUES ($1, $2)
			RETURNING id, author_id, content, is_hidden, hidden_at, created_at
		)
		SELECT p.id, p.author_id, u.username, p.content, p.is_hidden, p.hidden_at, 0, 0, p.created_at
		FROM p
		JOIN users u ON u.id = p.author_id`,
		authorID, content,
	))
	if isForeignKeyViolation(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

func (s *pgContentStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.q.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// ListPosts applies the viewer scope in the WHERE clause so exclusion and
// hidden-post filtering happen before LIMIT/OFFSET.
func (s *pgContentStore) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	excluded := q.Scope.ExcludedAuthorIDs
	if excluded == nil {
		excluded = []uuid.UUID{}
	}
	args := []any{excluded, q.Scope.ViewerID}
	query := postSelect + ` WHERE p.author_id <> ALL($1) AND (NOT p.is_hidden OR p.author_id = $2)`

	order := ` ORDER BY p.created_at DESC, p.id`
	switch q.Kind {
	case PostListTrending:
		args = append(args, s.clock().Add(-q.Trending.Window), q.Trending.Like, q.Trending.Comment)
		query += fmt.Sprintf(` AND p.created_at >= $%d`, len(args)-2)
		order = fmt.Sprintf(` ORDER BY ($%d * lc.n + $%d * cc.n) DESC, p.created_at DESC, p.id`, len(args)-1, len(args))
	case PostListSearch:
		args = append(args, "%"+escapeLike(q.Search)+"%")
		query += fmt.Sprintf(` AND p.content ILIKE $%d`, len(args))
	case PostListProfile:
		args = append(args, q.AuthorID)
		query += fmt.Sprintf(` AND p.author_id = $%d`, len(args))
	}

	args = append(args, q.Page.Limit, q.Page.Offset)
	query += order + fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *pgContentStore) CreateComment(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error) {
	c, err := scanComment(s.q.QueryRow(ctx,
		`WITH c AS (
			INSERT INTO comments (post_id, author_id, parent_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING id, post_id, author_id, parent_id, content, created_at
		)
		SELECT c.id, c.post_id, c.author_id, u.username, c.parent_id, c.content, c.created_at
		FROM c
		JOIN users u ON u.id = c.author_id`,
		postID, authorID, parentID, content,
	))
	if isForeignKeyViolation(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (s *pgContentStore) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.q.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *pgContentStore) ListComments(ctx context.Context, postID uuid.UUID, scope ContentScope, page Page) ([]models.Comment, error) {
	excluded := scope.ExcludedAuthorIDs
	if excluded == nil {
		excluded = []uuid.UUID{}
	}
	rows, err := s.q.Query(ctx,
		commentSelect+`
		 WHERE c.post_id = $1 AND c.author_id <> ALL($2)
		 ORDER BY c.created_at, c.id
		 LIMIT $3 OFFSET $4`,
		postID, excluded, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *pgContentStore) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result, err := s.q.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID,
	)
	if isForeignKeyViolation(err) {
		return false, ErrPostNotFound
	}
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (s *pgContentStore) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result, err := s.q.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
		postID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// AddReport locks the post row first so concurrent reporters are counted
// one after another and the hide threshold cannot be skipped.
func (s *pgContentStore) AddReport(ctx context.Context, postID, reporterID uuid.UUID, reason string) (bool, error) {
	var added bool
	err := withTx(ctx, s.q, func(tx DBConn) error {
		var lockedID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&lockedID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("lock post: %w", err)
		}

		result, err := tx.Exec(ctx,
			`INSERT INTO post_reports (post_id, reporter_id, reason) VALUES ($1, $2, $3)
			 ON CONFLICT (post_id, reporter_id) DO NOTHING`,
			postID, reporterID, reason,
		)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		added = result.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (s *pgContentStore) CountReports(ctx context.Context, postID uuid.UUID) (int, error) {
	var count int
	if err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM post_reports WHERE post_id = $1`,
		postID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

// HidePost flips the hidden flag at most once and reports whether this call did it.
func (s *pgContentStore) HidePost(ctx context.Context, postID uuid.UUID) (bool, error) {
	result, err := s.q.Exec(ctx,
		`UPDATE posts SET is_hidden = true, hidden_at = NOW() WHERE id = $1 AND NOT is_hidden`,
		postID,
	)
	if err != nil {
		return false, fmt.Errorf("hide post: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
