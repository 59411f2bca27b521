package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

func withUser(ctx context.Context, id uuid.UUID) context.Context {
	return ContextWithUser(ctx, &models.User{ID: id, Username: "tester"})
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rr.Code, rr.Body.String())
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != message {
		t.Fatalf("expected error %q, got %q", message, resp.Error)
	}
}

type mockFriendshipService struct {
	SendRequestFunc  func(ctx context.Context, requesterID uuid.UUID, targetIdentifier string) (*models.Friendship, error)
	RespondFunc      func(ctx context.Context, requestID, byUserID uuid.UUID, accept bool) (*models.Friendship, error)
	CancelFunc       func(ctx context.Context, requestID, byUserID uuid.UUID) error
	UnfriendFunc     func(ctx context.Context, userID uuid.UUID, otherIdentifier string) error
	StatusFunc       func(ctx context.Context, viewerID uuid.UUID, subjectIdentifier string) (*services.StatusResult, error)
	ListFriendsFunc  func(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListIncomingFunc func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
	ListOutgoingFunc func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

func (m *mockFriendshipService) SendRequest(ctx context.Context, requesterID uuid.UUID, targetIdentifier string) (*models.Friendship, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, requesterID, targetIdentifier)
	}
	return &models.Friendship{}, nil
}

func (m *mockFriendshipService) Respond(ctx context.Context, requestID, byUserID uuid.UUID, accept bool) (*models.Friendship, error) {
	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, requestID, byUserID, accept)
	}
	return &models.Friendship{}, nil
}

func (m *mockFriendshipService) Cancel(ctx context.Context, requestID, byUserID uuid.UUID) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, requestID, byUserID)
	}
	return nil
}

func (m *mockFriendshipService) Unfriend(ctx context.Context, userID uuid.UUID, otherIdentifier string) error {
	if m.UnfriendFunc != nil {
		return m.UnfriendFunc(ctx, userID, otherIdentifier)
	}
	return nil
}

func (m *mockFriendshipService) Status(ctx context.Context, viewerID uuid.UUID, subjectIdentifier string) (*services.StatusResult, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, viewerID, subjectIdentifier)
	}
	return &services.StatusResult{Status: models.RelationshipNotFriends}, nil
}

func (m *mockFriendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return []models.FriendWithUser{}, nil
}

func (m *mockFriendshipService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	if m.ListIncomingFunc != nil {
		return m.ListIncomingFunc(ctx, userID)
	}
	return []models.FriendRequest{}, nil
}

func (m *mockFriendshipService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	if m.ListOutgoingFunc != nil {
		return m.ListOutgoingFunc(ctx, userID)
	}
	return []models.FriendRequest{}, nil
}

type mockBlockService struct {
	BlockFunc       func(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error
	UnblockFunc     func(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error
	ListBlockedFunc func(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error)
}

func (m *mockBlockService) Block(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error {
	if m.BlockFunc != nil {
		return m.BlockFunc(ctx, blockerID, blockedIdentifier)
	}
	return nil
}

func (m *mockBlockService) Unblock(ctx context.Context, blockerID uuid.UUID, blockedIdentifier string) error {
	if m.UnblockFunc != nil {
		return m.UnblockFunc(ctx, blockerID, blockedIdentifier)
	}
	return nil
}

func (m *mockBlockService) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error) {
	if m.ListBlockedFunc != nil {
		return m.ListBlockedFunc(ctx, blockerID)
	}
	return []models.BlockedUser{}, nil
}

type mockNotificationService struct {
	ListFunc        func(ctx context.Context, userID uuid.UUID, params services.NotificationListParams) ([]models.Notification, error)
	UnreadCountFunc func(ctx context.Context, userID uuid.UUID) (int, error)
	MarkReadFunc    func(ctx context.Context, notificationID, byUserID uuid.UUID) error
	MarkAllReadFunc func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID, params services.NotificationListParams) ([]models.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, params)
	}
	return []models.Notification{}, nil
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, notificationID, byUserID uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, notificationID, byUserID)
	}
	return nil
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return 0, nil
}

type mockStreamer struct {
	ch     chan models.Notification
	mu     sync.Mutex
	userID uuid.UUID
}

func (m *mockStreamer) Subscribe(ctx context.Context, userID uuid.UUID) <-chan models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = userID
	return m.ch
}

func (m *mockStreamer) subscribedUser() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

type mockChatService struct {
	GetOrCreateFunc  func(ctx context.Context, userID uuid.UUID, otherIdentifier string) (*models.ChatRoom, error)
	SendMessageFunc  func(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error)
	ListRoomsFunc    func(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	ListMessagesFunc func(ctx context.Context, roomID, userID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error)
}

func (m *mockChatService) GetOrCreate(ctx context.Context, userID uuid.UUID, otherIdentifier string) (*models.ChatRoom, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, userID, otherIdentifier)
	}
	return &models.ChatRoom{}, nil
}

func (m *mockChatService) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, roomID, senderID, body)
	}
	return &models.ChatMessage{}, nil
}

func (m *mockChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	if m.ListRoomsFunc != nil {
		return m.ListRoomsFunc(ctx, userID)
	}
	return []models.ChatRoom{}, nil
}

func (m *mockChatService) ListMessages(ctx context.Context, roomID, userID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, roomID, userID, limit, before)
	}
	return []models.ChatMessage{}, nil
}

type mockContentService struct {
	CreatePostFunc   func(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error)
	GetPostFunc      func(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID) (*models.Post, error)
	FeedFunc         func(ctx context.Context, viewerID *uuid.UUID, page services.Page) ([]models.Post, error)
	TrendingFunc     func(ctx context.Context, viewerID *uuid.UUID, page services.Page) ([]models.Post, error)
	SearchPostsFunc  func(ctx context.Context, viewerID *uuid.UUID, query string, page services.Page) ([]models.Post, error)
	ProfilePostsFunc func(ctx context.Context, viewerID *uuid.UUID, profileIdentifier string, page services.Page) ([]models.Post, error)
	AddCommentFunc   func(ctx context.Context, authorID, postID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error)
	ListCommentsFunc func(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID, page services.Page) ([]models.Comment, error)
	LikePostFunc     func(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	UnlikePostFunc   func(ctx context.Context, userID, postID uuid.UUID) error
	ReportPostFunc   func(ctx context.Context, reporterID, postID uuid.UUID, reason string) (*models.ReportOutcome, error)
}

func (m *mockContentService) CreatePost(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, authorID, content)
	}
	return &models.Post{}, nil
}

func (m *mockContentService) GetPost(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID) (*models.Post, error) {
	if m.GetPostFunc != nil {
		return m.GetPostFunc(ctx, viewerID, postID)
	}
	return &models.Post{ID: postID}, nil
}

func (m *mockContentService) Feed(ctx context.Context, viewerID *uuid.UUID, page services.Page) ([]models.Post, error) {
	if m.FeedFunc != nil {
		return m.FeedFunc(ctx, viewerID, page)
	}
	return []models.Post{}, nil
}

func (m *mockContentService) Trending(ctx context.Context, viewerID *uuid.UUID, page services.Page) ([]models.Post, error) {
	if m.TrendingFunc != nil {
		return m.TrendingFunc(ctx, viewerID, page)
	}
	return []models.Post{}, nil
}

func (m *mockContentService) SearchPosts(ctx context.Context, viewerID *uuid.UUID, query string, page services.Page) ([]models.Post, error) {
	if m.SearchPostsFunc != nil {
		return m.SearchPostsFunc(ctx, viewerID, query, page)
	}
	return []models.Post{}, nil
}

func (m *mockContentService) ProfilePosts(ctx context.Context, viewerID *uuid.UUID, profileIdentifier string, page services.Page) ([]models.Post, error) {
	if m.ProfilePostsFunc != nil {
		return m.ProfilePostsFunc(ctx, viewerID, profileIdentifier, page)
	}
	return []models.Post{}, nil
}

func (m *mockContentService) AddComment(ctx context.Context, authorID, postID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error) {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, authorID, postID, parentID, content)
	}
	return &models.Comment{}, nil
}

func (m *mockContentService) ListComments(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID, page services.Page) ([]models.Comment, error) {
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, viewerID, postID, page)
	}
	return []models.Comment{}, nil
}

func (m *mockContentService) LikePost(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	if m.LikePostFunc != nil {
		return m.LikePostFunc(ctx, userID, postID)
	}
	return true, nil
}

func (m *mockContentService) UnlikePost(ctx context.Context, userID, postID uuid.UUID) error {
	if m.UnlikePostFunc != nil {
		return m.UnlikePostFunc(ctx, userID, postID)
	}
	return nil
}

func (m *mockContentService) ReportPost(ctx context.Context, reporterID, postID uuid.UUID, reason string) (*models.ReportOutcome, error) {
	if m.ReportPostFunc != nil {
		return m.ReportPostFunc(ctx, reporterID, postID, reason)
	}
	return &models.ReportOutcome{}, nil
}

type mockUserService struct {
	ProfileFunc func(ctx context.Context, viewerID uuid.UUID, identifier string) (*models.Profile, error)
	SearchFunc  func(ctx context.Context, viewerID uuid.UUID, query string, limit int) ([]models.UserSearchResult, error)
}

func (m *mockUserService) Profile(ctx context.Context, viewerID uuid.UUID, identifier string) (*models.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, viewerID, identifier)
	}
	return &models.Profile{}, nil
}

func (m *mockUserService) Search(ctx context.Context, viewerID uuid.UUID, query string, limit int) ([]models.UserSearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, viewerID, query, limit)
	}
	return []models.UserSearchResult{}, nil
}
