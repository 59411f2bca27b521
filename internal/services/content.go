package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/metrics"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

const (
	MaxPostLength    = 5000
	MaxCommentLength = 2000

	DefaultReportHideThreshold = 5
)

type ContentConfig struct {
	ReportHideThreshold int
	Trending            TrendingWeights
}

type ContentService struct {
	store         UnitOfWork
	notifications *NotificationService
	metrics       *metrics.Metrics
	cfg           ContentConfig
}

func NewContentService(store UnitOfWork, notifications *NotificationService, cfg ContentConfig) *ContentService {
	if cfg.ReportHideThreshold <= 0 {
		cfg.ReportHideThreshold = DefaultReportHideThreshold
	}
	if cfg.Trending == (TrendingWeights{}) {
		cfg.Trending = DefaultTrendingWeights()
	}
	return &ContentService{store: store, notifications: notifications, cfg: cfg}
}

func (s *ContentService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func validateContent(content string, max int) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > max {
		return "", ErrContentTooLong
	}
	return content, nil
}

// mentionRecipients resolves @handles in content to user ids, in order of
// first appearance. Unknown handles are dropped.
func mentionRecipients(ctx context.Context, users UserStore, content string) ([]uuid.UUID, error) {
	handles := ExtractMentions(content)
	if len(handles) == 0 {
		return nil, nil
	}
	found, err := users.GetByUsernames(ctx, handles)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]uuid.UUID, len(found))
	for _, u := range found {
		byName[strings.ToLower(u.Username)] = u.ID
	}

	ids := make([]uuid.UUID, 0, len(found))
	for _, h := range handles {
		if id, ok := byName[strings.ToLower(h)]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *ContentService) CreatePost(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error) {
	content, err := validateContent(content, MaxPostLength)
	if err != nil {
		return nil, err
	}

	var post *models.Post
	var sent []models.Notification
	err = s.store.WithinTx(ctx, func(repos Repositories) error {
		post, err = repos.Content.CreatePost(ctx, authorID, content)
		if err != nil {
			return err
		}
		mentioned, err := mentionRecipients(ctx, repos.Users, content)
		if err != nil {
			return err
		}
		sent, err = s.notifications.emit(ctx, repos, NotificationEvent{
			ActorID:    authorID,
			Type:       models.NotificationTypeMentionInPost,
			TargetType: models.TargetTypePost,
			TargetID:   post.ID,
			Recipients: mentioned,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.deliver(ctx, sent)
	return post, nil
}

// visiblePost loads a post as the viewer may see it. Missing, hidden (for
// anyone but the author) and blocked all look the same.
func visiblePost(ctx context.Context, repos Repositories, viewerID *uuid.UUID, postID uuid.UUID) (*models.Post, error) {
	post, err := repos.Content.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.IsHidden && (viewerID == nil || *viewerID != post.AuthorID) {
		return nil, ErrPostNotFound
	}
	err = NewVisibilityFilter(repos.Relationships).CheckResource(ctx, viewerID, post.AuthorID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) GetPost(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID) (*models.Post, error) {
	var post *models.Post
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		var err error
		post, err = visiblePost(ctx, repos, viewerID, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) listPosts(ctx context.Context, viewerID *uuid.UUID, q PostQuery) ([]models.Post, error) {
	var posts []models.Post
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		scope, err := NewVisibilityFilter(repos.Relationships).Scope(ctx, viewerID)
		if err != nil {
			return err
		}
		q.Scope = scope
		posts, err = repos.Content.ListPosts(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Feed is the global newest-first timeline as the viewer may see it.
func (s *ContentService) Feed(ctx context.Context, viewerID *uuid.UUID, page Page) ([]models.Post, error) {
	return s.listPosts(ctx, viewerID, PostQuery{Kind: PostListFeed, Page: page})
}

func (s *ContentService) Trending(ctx context.Context, viewerID *uuid.UUID, page Page) ([]models.Post, error) {
	return s.listPosts(ctx, viewerID, PostQuery{Kind: PostListTrending, Page: page, Trending: s.cfg.Trending})
}

func (s *ContentService) SearchPosts(ctx context.Context, viewerID *uuid.UUID, query string, page Page) ([]models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.listPosts(ctx, viewerID, PostQuery{Kind: PostListSearch, Search: query, Page: page})
}

// ProfilePosts lists one author's posts. A block in either direction makes
// the profile look nonexistent.
func (s *ContentService) ProfilePosts(ctx context.Context, viewerID *uuid.UUID, profileIdentifier string, page Page) ([]models.Post, error) {
	var posts []models.Post
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		author, err := ResolveIdentifier(ctx, repos.Users, profileIdentifier)
		if err != nil {
			return err
		}
		filter := NewVisibilityFilter(repos.Relationships)
		err = filter.CheckResource(ctx, viewerID, author.ID)
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		scope, err := filter.Scope(ctx, viewerID)
		if err != nil {
			return err
		}
		posts, err = repos.Content.ListPosts(ctx, PostQuery{
			Kind:     PostListProfile,
			Scope:    scope,
			AuthorID: author.ID,
			Page:     page,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// AddComment notifies the parent comment's author (reply) and the post
// owner (new comment) first, then anyone mentioned who was not already a
// primary recipient.
func (s *ContentService) AddComment(ctx context.Context, authorID, postID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error) {
	content, err := validateContent(content, MaxCommentLength)
	if err != nil {
		return nil, err
	}

	var comment *models.Comment
	var sent []models.Notification
	err = s.store.WithinTx(ctx, func(repos Repositories) error {
		viewer := authorID
		post, err := visiblePost(ctx, repos, &viewer, postID)
		if err != nil {
			return err
		}
		guard := NewBlockGuard(repos.Relationships)

		var parent *models.Comment
		if parentID != nil {
			parent, err = repos.Content.GetComment(ctx, *parentID)
			if err != nil {
				return err
			}
			if parent == nil || parent.PostID != post.ID {
				return ErrCommentNotFound
			}
			if err := guard.Require(ctx, authorID, parent.AuthorID); err != nil {
				return err
			}
		}

		comment, err = repos.Content.CreateComment(ctx, post.ID, authorID, parentID, content)
		if err != nil {
			return err
		}

		notified := map[uuid.UUID]bool{authorID: true}
		if parent != nil && !notified[parent.AuthorID] {
			notified[parent.AuthorID] = true
			created, err := s.notifications.emit(ctx, repos, NotificationEvent{
				ActorID:    authorID,
				Type:       models.NotificationTypeReplyToComment,
				TargetType: models.TargetTypeComment,
				TargetID:   parent.ID,
				Recipients: []uuid.UUID{parent.AuthorID},
			})
			if err != nil {
				return err
			}
			sent = append(sent, created...)
		}
		if !notified[post.AuthorID] {
			notified[post.AuthorID] = true
			created, err := s.notifications.emit(ctx, repos, NotificationEvent{
				ActorID:    authorID,
				Type:       models.NotificationTypeNewComment,
				TargetType: models.TargetTypePost,
				TargetID:   post.ID,
				Recipients: []uuid.UUID{post.AuthorID},
			})
			if err != nil {
				return err
			}
			sent = append(sent, created...)
		}

		mentioned, err := mentionRecipients(ctx, repos.Users, content)
		if err != nil {
			return err
		}
		remaining := make([]uuid.UUID, 0, len(mentioned))
		for _, id := range mentioned {
			if !notified[id] {
				remaining = append(remaining, id)
			}
		}
		created, err := s.notifications.emit(ctx, repos, NotificationEvent{
			ActorID:    authorID,
			Type:       models.NotificationTypeMentionInComment,
			TargetType: models.TargetTypeComment,
			TargetID:   comment.ID,
			Recipients: remaining,
		})
		if err != nil {
			return err
		}
		sent = append(sent, created...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.deliver(ctx, sent)
	return comment, nil
}

func (s *ContentService) ListComments(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID, page Page) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.store.WithinSnapshot(ctx, func(repos Repositories) error {
		post, err := visiblePost(ctx, repos, viewerID, postID)
		if err != nil {
			return err
		}
		scope, err := NewVisibilityFilter(repos.Relationships).Scope(ctx, viewerID)
		if err != nil {
			return err
		}
		comments, err = repos.Content.ListComments(ctx, post.ID, scope, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// LikePost is idempotent: liking twice keeps one like and one notification.
// It reports whether this call created the like.
func (s *ContentService) LikePost(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	var created bool
	var sent []models.Notification
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		viewer := userID
		post, err := visiblePost(ctx, repos, &viewer, postID)
		if err != nil {
			return err
		}

		created, err = repos.Content.AddLike(ctx, post.ID, userID)
		if err != nil || !created {
			return err
		}

		sent, err = s.notifications.emit(ctx, repos, NotificationEvent{
			ActorID:    userID,
			Type:       models.NotificationTypePostLiked,
			TargetType: models.TargetTypePost,
			TargetID:   post.ID,
			Recipients: []uuid.UUID{post.AuthorID},
		})
		return err
	})
	if err != nil {
		return false, err
	}

	s.notifications.deliver(ctx, sent)
	return created, nil
}

func (s *ContentService) UnlikePost(ctx context.Context, userID, postID uuid.UUID) error {
	removed, err := s.store.Repos().Content.RemoveLike(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrLikeNotFound
	}
	return nil
}

// ReportPost records one report per user and hides the post once the number
// of distinct reporters reaches the threshold. Reports on an already hidden
// post are still recorded and never re-trigger the transition.
func (s *ContentService) ReportPost(ctx context.Context, reporterID, postID uuid.UUID, reason string) (*models.ReportOutcome, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxCommentLength {
		return nil, ErrContentTooLong
	}

	outcome := &models.ReportOutcome{}
	hiddenNow := false
	err := s.store.WithinTx(ctx, func(repos Repositories) error {
		post, err := repos.Content.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrPostNotFound
		}
		if post.AuthorID == reporterID {
			return ErrCannotReportOwn
		}
		viewer := reporterID
		err = NewVisibilityFilter(repos.Relationships).CheckResource(ctx, &viewer, post.AuthorID)
		if errors.Is(err, ErrNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}

		added, err := repos.Content.AddReport(ctx, post.ID, reporterID, reason)
		if err != nil {
			return err
		}
		if !added {
			return ErrAlreadyReported
		}

		count, err := repos.Content.CountReports(ctx, post.ID)
		if err != nil {
			return err
		}
		outcome.ReportCount = count
		outcome.Hidden = post.IsHidden

		if count >= s.cfg.ReportHideThreshold && !post.IsHidden {
			hiddenNow, err = repos.Content.HidePost(ctx, post.ID)
			if err != nil {
				return err
			}
			outcome.Hidden = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hiddenNow {
		s.metrics.PostHidden()
	}
	return outcome, nil
}
