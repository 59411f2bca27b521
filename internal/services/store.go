package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// RelationshipStore persists friendships and blocks. Every mutating method is
// atomic on its own and joins the caller's transaction when bound to one.
type RelationshipStore interface {
	FindFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error)
	GetFriendship(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	CreateFriendshipRequest(ctx context.Context, requesterID, targetID uuid.UUID) (*models.Friendship, error)
	TransitionFriendship(ctx context.Context, id, byUserID uuid.UUID, action models.FriendshipAction) (*models.Friendship, error)
	CreateBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	RemoveBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)
	HasBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	ExcludedUserIDs(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
	ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
	ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error)
}

type NotificationInsert struct {
	RecipientID uuid.UUID
	ActorID     *uuid.UUID
	Type        models.NotificationType
	TargetType  models.TargetType
	TargetID    uuid.UUID
	Message     string
}

type NotificationListParams struct {
	Limit      int
	Before     *time.Time
	UnreadOnly bool
}

type NotificationStore interface {
	// Insert returns nil without error when the row was suppressed (self,
	// blocked pair, or an identical unread notification already exists).
	Insert(ctx context.Context, n NotificationInsert) (*models.Notification, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type ChatStore interface {
	// GetOrCreateRoom expects an already canonical pair and reports whether
	// this call inserted the row.
	GetOrCreateRoom(ctx context.Context, lowID, highID uuid.UUID) (*models.ChatRoom, bool, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, userID uuid.UUID, excluded []uuid.UUID) ([]models.ChatRoom, error)
	InsertMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, roomID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error)
}

// PostListKind selects which listing ListPosts produces.
type PostListKind int

const (
	PostListFeed PostListKind = iota
	PostListTrending
	PostListSearch
	PostListProfile
)

type PostQuery struct {
	Kind     PostListKind
	Scope    ContentScope
	AuthorID uuid.UUID
	Search   string
	Page     Page
	Trending TrendingWeights
}

type ContentStore interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	CreateComment(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error)
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID, scope ContentScope, page Page) ([]models.Comment, error)
	AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	AddReport(ctx context.Context, postID, reporterID uuid.UUID, reason string) (bool, error)
	CountReports(ctx context.Context, postID uuid.UUID) (int, error)
	HidePost(ctx context.Context, postID uuid.UUID) (bool, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	Search(ctx context.Context, query string, scope ContentScope, limit int) ([]models.UserSearchResult, error)
}

// Repositories is one consistent view of every store, bound either to the
// pool or to a single transaction.
type Repositories struct {
	Relationships RelationshipStore
	Notifications NotificationStore
	Chats         ChatStore
	Content       ContentStore
	Users         UserStore
}

type UnitOfWork interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
	// WithinSnapshot runs read-only work against a single snapshot.
	WithinSnapshot(ctx context.Context, fn func(repos Repositories) error) error
}

// PostgresStore is the pgx-backed UnitOfWork. It owns no connection state of
// its own; the pool is created and closed by the process entry point.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Repos() Repositories {
	return reposFor(s.db)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return runTx(ctx, tx, fn)
}

func (s *PostgresStore) WithinSnapshot(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	return runTx(ctx, tx, fn)
}

func runTx(ctx context.Context, tx Tx, fn func(repos Repositories) error) error {
	return commitOrRollback(ctx, tx, func() error { return fn(reposFor(tx)) })
}

func reposFor(q DBConn) Repositories {
	return Repositories{
		Relationships: &pgRelationshipStore{q: q},
		Notifications: &pgNotificationStore{q: q},
		Chats:         &pgChatStore{q: q},
		Content:       &pgContentStore{q: q},
		Users:         &pgUserStore{q: q},
	}
}
