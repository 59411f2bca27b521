package services

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// memState is the whole in-memory database. It is copied wholesale at the
// start of every transaction so a failed unit of work can be rolled back.
type memState struct {
	users         map[uuid.UUID]models.User
	friendships   map[uuid.UUID]models.Friendship
	blocks        map[[2]uuid.UUID]time.Time
	notifications []models.Notification
	rooms         map[uuid.UUID]models.ChatRoom
	messages      []models.ChatMessage
	posts         map[uuid.UUID]models.Post
	comments      []models.Comment
	likes         map[[2]uuid.UUID]bool
	reports       map[[2]uuid.UUID]string
}

func newMemState() *memState {
	return &memState{
		users:       map[uuid.UUID]models.User{},
		friendships: map[uuid.UUID]models.Friendship{},
		blocks:      map[[2]uuid.UUID]time.Time{},
		rooms:       map[uuid.UUID]models.ChatRoom{},
		posts:       map[uuid.UUID]models.Post{},
		likes:       map[[2]uuid.UUID]bool{},
		reports:     map[[2]uuid.UUID]string{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.friendships {
		c.friendships[k] = v
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	c.notifications = append([]models.Notification(nil), s.notifications...)
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	c.messages = append([]models.ChatMessage(nil), s.messages...)
	for k, v := range s.posts {
		c.posts[k] = v
	}
	c.comments = append([]models.Comment(nil), s.comments...)
	for k, v := range s.likes {
		c.likes[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	return c
}

// memStore is a UnitOfWork that serializes every transaction on one mutex.
// It mirrors the constraints of the SQL schema: pair-unique friendships,
// unique blocks, canonical unique chat rooms and the unread-notification
// dedupe index.
type memStore struct {
	mu    sync.Mutex
	state *memState
	tick  int

	// insertNotificationErr, when set, fails every notification insert.
	insertNotificationErr error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) now() time.Time {
	m.tick++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.tick) * time.Second)
}

func (m *memStore) addUser(username string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: uuid.New(), Username: username, CreatedAt: m.now()}
	m.state.users[u.ID] = u
	return u
}

func (m *memStore) Repos() Repositories {
	return m.repos(false)
}

func (m *memStore) repos(locked bool) Repositories {
	r := &memRepos{m: m, locked: locked}
	return Repositories{
		Relationships: r,
		Notifications: r,
		Chats:         r,
		Content:       r,
		Users:         r,
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := m.state.clone()
	if err := fn(m.repos(true)); err != nil {
		m.state = saved
		return err
	}
	return nil
}

func (m *memStore) WithinSnapshot(ctx context.Context, fn func(repos Repositories) error) error {
	return m.WithinTx(ctx, fn)
}

func (m *memStore) friendshipCount(a, b uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.state.friendships {
		if f.Involves(a) && f.Involves(b) {
			n++
		}
	}
	return n
}

func (m *memStore) notificationsFor(recipientID uuid.UUID) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.state.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func (m *memStore) roomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.rooms)
}

type memRepos struct {
	m      *memStore
	locked bool
}

func (r *memRepos) do(fn func(s *memState) error) error {
	if !r.locked {
		r.m.mu.Lock()
		defer r.m.mu.Unlock()
	}
	return fn(r.m.state)
}

// RelationshipStore

func (r *memRepos) FindFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	var found *models.Friendship
	err := r.do(func(s *memState) error {
		found = findPair(s, a, b)
		return nil
	})
	return found, err
}

func findPair(s *memState, a, b uuid.UUID) *models.Friendship {
	for _, f := range s.friendships {
		if (f.RequesterID == a && f.TargetID == b) || (f.RequesterID == b && f.TargetID == a) {
			copied := f
			return &copied
		}
	}
	return nil
}

func (r *memRepos) GetFriendship(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var found *models.Friendship
	err := r.do(func(s *memState) error {
		if f, ok := s.friendships[id]; ok {
			found = &f
		}
		return nil
	})
	return found, err
}

func (r *memRepos) CreateFriendshipRequest(ctx context.Context, requesterID, targetID uuid.UUID) (*models.Friendship, error) {
	if requesterID == targetID {
		return nil, ErrCannotFriendSelf
	}
	var created *models.Friendship
	err := r.do(func(s *memState) error {
		if _, ok := s.users[requesterID]; !ok {
			return ErrUserNotFound
		}
		if _, ok := s.users[targetID]; !ok {
			return ErrUserNotFound
		}
		if blockedEither(s, requesterID, targetID) {
			return ErrNotPermitted
		}
		if findPair(s, requesterID, targetID) != nil {
			return ErrFriendshipExists
		}
		now := r.m.now()
		f := models.Friendship{
			ID:          uuid.New(),
			RequesterID: requesterID,
			TargetID:    targetID,
			Status:      models.FriendshipStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.friendships[f.ID] = f
		created = &f
		return nil
	})
	return created, err
}

func (r *memRepos) TransitionFriendship(ctx context.Context, id, byUserID uuid.UUID, action models.FriendshipAction) (*models.Friendship, error) {
	var result *models.Friendship
	err := r.do(func(s *memState) error {
		f, ok := s.friendships[id]
		if !ok {
			if action == models.FriendshipActionUnfriend {
				return ErrFriendshipNotFound
			}
			return ErrRequestNotFound
		}
		if err := CheckFriendshipTransition(&f, byUserID, action); err != nil {
			return err
		}
		if action == models.FriendshipActionAccept {
			f.Status = models.FriendshipStatusAccepted
			f.UpdatedAt = r.m.now()
			s.friendships[id] = f
		} else {
			delete(s.friendships, id)
		}
		result = &f
		return nil
	})
	return result, err
}

func (r *memRepos) CreateBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrCannotBlockSelf
	}
	return r.do(func(s *memState) error {
		if _, ok := s.users[blockedID]; !ok {
			return ErrUserNotFound
		}
		key := [2]uuid.UUID{blockerID, blockedID}
		if _, ok := s.blocks[key]; ok {
			return ErrBlockExists
		}
		s.blocks[key] = r.m.now()
		if f := findPair(s, blockerID, blockedID); f != nil {
			delete(s.friendships, f.ID)
		}
		return nil
	})
}

func (r *memRepos) RemoveBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return r.do(func(s *memState) error {
		key := [2]uuid.UUID{blockerID, blockedID}
		if _, ok := s.blocks[key]; !ok {
			return ErrBlockNotFound
		}
		delete(s.blocks, key)
		return nil
	})
}

func blockedEither(s *memState, a, b uuid.UUID) bool {
	_, ab := s.blocks[[2]uuid.UUID{a, b}]
	_, ba := s.blocks[[2]uuid.UUID{b, a}]
	return ab || ba
}

func (r *memRepos) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	err := r.do(func(s *memState) error {
		blocked = blockedEither(s, a, b)
		return nil
	})
	return blocked, err
}

func (r *memRepos) HasBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	var blocked bool
	err := r.do(func(s *memState) error {
		_, blocked = s.blocks[[2]uuid.UUID{blockerID, blockedID}]
		return nil
	})
	return blocked, err
}

func (r *memRepos) ExcludedUserIDs(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.do(func(s *memState) error {
		seen := map[uuid.UUID]bool{}
		for key := range s.blocks {
			var other uuid.UUID
			switch viewerID {
			case key[0]:
				other = key[1]
			case key[1]:
				other = key[0]
			default:
				continue
			}
			if !seen[other] {
				seen[other] = true
				ids = append(ids, other)
			}
		}
		return nil
	})
	return ids, err
}

func (r *memRepos) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	friends := []models.FriendWithUser{}
	err := r.do(func(s *memState) error {
		for _, f := range s.friendships {
			if f.Involves(userID) && f.Status == models.FriendshipStatusAccepted {
				friends = append(friends, models.FriendWithUser{
					Friendship:     f,
					FriendUsername: s.users[f.OtherParty(userID)].Username,
				})
			}
		}
		sort.Slice(friends, func(i, j int) bool {
			return strings.ToLower(friends[i].FriendUsername) < strings.ToLower(friends[j].FriendUsername)
		})
		return nil
	})
	return friends, err
}

func (r *memRepos) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return r.listRequests(func(f models.Friendship) bool { return f.TargetID == userID }, userID)
}

func (r *memRepos) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return r.listRequests(func(f models.Friendship) bool { return f.RequesterID == userID }, userID)
}

func (r *memRepos) listRequests(match func(models.Friendship) bool, userID uuid.UUID) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	err := r.do(func(s *memState) error {
		for _, f := range s.friendships {
			if f.Status == models.FriendshipStatusPending && match(f) {
				requests = append(requests, models.FriendRequest{
					Friendship:    f,
					OtherUsername: s.users[f.OtherParty(userID)].Username,
				})
			}
		}
		sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
		return nil
	})
	return requests, err
}

func (r *memRepos) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]models.BlockedUser, error) {
	blocked := []models.BlockedUser{}
	err := r.do(func(s *memState) error {
		for key, at := range s.blocks {
			if key[0] == blockerID {
				blocked = append(blocked, models.BlockedUser{ID: key[1], Username: s.users[key[1]].Username, BlockedAt: at})
			}
		}
		sort.Slice(blocked, func(i, j int) bool { return blocked[i].BlockedAt.After(blocked[j].BlockedAt) })
		return nil
	})
	return blocked, err
}

// NotificationStore

func (r *memRepos) Insert(ctx context.Context, in NotificationInsert) (*models.Notification, error) {
	if r.m.insertNotificationErr != nil {
		return nil, r.m.insertNotificationErr
	}
	var created *models.Notification
	err := r.do(func(s *memState) error {
		if in.ActorID != nil {
			if *in.ActorID == in.RecipientID || blockedEither(s, *in.ActorID, in.RecipientID) {
				return nil
			}
			for _, n := range s.notifications {
				if !n.IsRead && n.RecipientID == in.RecipientID && n.ActorID != nil && *n.ActorID == *in.ActorID &&
					n.Type == in.Type && n.TargetType == in.TargetType && n.TargetID == in.TargetID {
					return nil
				}
			}
		}
		n := models.Notification{
			ID:          uuid.New(),
			RecipientID: in.RecipientID,
			ActorID:     in.ActorID,
			Type:        in.Type,
			TargetType:  in.TargetType,
			TargetID:    in.TargetID,
			Message:     in.Message,
			CreatedAt:   r.m.now(),
		}
		s.notifications = append(s.notifications, n)
		created = &n
		return nil
	})
	return created, err
}

func (r *memRepos) Get(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var found *models.Notification
	err := r.do(func(s *memState) error {
		for _, n := range s.notifications {
			if n.ID == id {
				copied := n
				found = &copied
			}
		}
		return nil
	})
	return found, err
}

func (r *memRepos) List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error) {
	out := []models.Notification{}
	err := r.do(func(s *memState) error {
		for i := len(s.notifications) - 1; i >= 0; i-- {
			n := s.notifications[i]
			if n.RecipientID != userID || (params.UnreadOnly && n.IsRead) {
				continue
			}
			if params.Before != nil && !n.CreatedAt.Before(*params.Before) {
				continue
			}
			out = append(out, n)
			if len(out) == params.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *memRepos) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.do(func(s *memState) error {
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				s.notifications[i].IsRead = true
			}
		}
		return nil
	})
}

func (r *memRepos) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var changed int64
	err := r.do(func(s *memState) error {
		for i := range s.notifications {
			if s.notifications[i].RecipientID == userID && !s.notifications[i].IsRead {
				s.notifications[i].IsRead = true
				changed++
			}
		}
		return nil
	})
	return changed, err
}

func (r *memRepos) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	err := r.do(func(s *memState) error {
		for _, n := range s.notifications {
			if n.RecipientID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

// ChatStore

func (r *memRepos) GetOrCreateRoom(ctx context.Context, lowID, highID uuid.UUID) (*models.ChatRoom, bool, error) {
	if bytes.Compare(lowID[:], highID[:]) >= 0 {
		return nil, false, errors.New("chat_rooms check constraint violated")
	}
	var room *models.ChatRoom
	var created bool
	err := r.do(func(s *memState) error {
		for _, existing := range s.rooms {
			if existing.UserLowID == lowID && existing.UserHighID == highID {
				copied := existing
				room = &copied
				return nil
			}
		}
		now := r.m.now()
		newRoom := models.ChatRoom{ID: uuid.New(), UserLowID: lowID, UserHighID: highID, CreatedAt: now, LastActivityAt: now}
		s.rooms[newRoom.ID] = newRoom
		room = &newRoom
		created = true
		return nil
	})
	return room, created, err
}

func (r *memRepos) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	var room *models.ChatRoom
	err := r.do(func(s *memState) error {
		if existing, ok := s.rooms[id]; ok {
			room = &existing
		}
		return nil
	})
	return room, err
}

func (r *memRepos) ListRooms(ctx context.Context, userID uuid.UUID, excluded []uuid.UUID) ([]models.ChatRoom, error) {
	rooms := []models.ChatRoom{}
	scope := ContentScope{ExcludedAuthorIDs: excluded}
	err := r.do(func(s *memState) error {
		for _, room := range s.rooms {
			if room.HasParticipant(userID) && !scope.Excludes(room.Peer(userID)) {
				rooms = append(rooms, room)
			}
		}
		sort.Slice(rooms, func(i, j int) bool { return rooms[i].LastActivityAt.After(rooms[j].LastActivityAt) })
		return nil
	})
	return rooms, err
}

func (r *memRepos) InsertMessage(ctx context.Context, roomID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	var msg *models.ChatMessage
	err := r.do(func(s *memState) error {
		room, ok := s.rooms[roomID]
		if !ok {
			return ErrChatRoomNotFound
		}
		m := models.ChatMessage{ID: uuid.New(), RoomID: roomID, SenderID: senderID, Body: body, CreatedAt: r.m.now()}
		s.messages = append(s.messages, m)
		room.LastActivityAt = m.CreatedAt
		s.rooms[roomID] = room
		msg = &m
		return nil
	})
	return msg, err
}

func (r *memRepos) ListMessages(ctx context.Context, roomID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessage, error) {
	out := []models.ChatMessage{}
	err := r.do(func(s *memState) error {
		for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
			m := s.messages[i]
			if m.RoomID != roomID || (before != nil && !m.CreatedAt.Before(*before)) {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}

// ContentStore

func (r *memRepos) withCounts(s *memState, p models.Post) models.Post {
	p.AuthorUsername = s.users[p.AuthorID].Username
	p.LikeCount = 0
	for key := range s.likes {
		if key[0] == p.ID {
			p.LikeCount++
		}
	}
	p.CommentCount = 0
	for _, c := range s.comments {
		if c.PostID == p.ID {
			p.CommentCount++
		}
	}
	return p
}

func (r *memRepos) CreatePost(ctx context.Context, authorID uuid.UUID, content string) (*models.Post, error) {
	var post *models.Post
	err := r.do(func(s *memState) error {
		if _, ok := s.users[authorID]; !ok {
			return ErrUserNotFound
		}
		p := models.Post{ID: uuid.New(), AuthorID: authorID, Content: content, CreatedAt: r.m.now()}
		s.posts[p.ID] = p
		p = r.withCounts(s, p)
		post = &p
		return nil
	})
	return post, err
}

func (r *memRepos) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post *models.Post
	err := r.do(func(s *memState) error {
		if p, ok := s.posts[id]; ok {
			p = r.withCounts(s, p)
			post = &p
		}
		return nil
	})
	return post, err
}

func (r *memRepos) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.do(func(s *memState) error {
		var cutoff time.Time
		if q.Kind == PostListTrending {
			cutoff = r.m.now().Add(-q.Trending.Window)
		}
		for _, p := range s.posts {
			if q.Scope.Excludes(p.AuthorID) || (p.IsHidden && !q.Scope.CanSeeHidden(p.AuthorID)) {
				continue
			}
			switch q.Kind {
			case PostListTrending:
				if p.CreatedAt.Before(cutoff) {
					continue
				}
			case PostListSearch:
				if !strings.Contains(strings.ToLower(p.Content), strings.ToLower(q.Search)) {
					continue
				}
			case PostListProfile:
				if p.AuthorID != q.AuthorID {
					continue
				}
			}
			posts = append(posts, r.withCounts(s, p))
		}

		score := func(p models.Post) int {
			return q.Trending.Like*p.LikeCount + q.Trending.Comment*p.CommentCount
		}
		sort.Slice(posts, func(i, j int) bool {
			if q.Kind == PostListTrending && score(posts[i]) != score(posts[j]) {
				return score(posts[i]) > score(posts[j])
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})

		if q.Page.Offset >= len(posts) {
			posts = []models.Post{}
			return nil
		}
		posts = posts[q.Page.Offset:]
		if len(posts) > q.Page.Limit {
			posts = posts[:q.Page.Limit]
		}
		return nil
	})
	return posts, err
}

func (r *memRepos) CreateComment(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error) {
	var comment *models.Comment
	err := r.do(func(s *memState) error {
		if _, ok := s.posts[postID]; !ok {
			return ErrPostNotFound
		}
		c := models.Comment{
			ID:             uuid.New(),
			PostID:         postID,
			AuthorID:       authorID,
			AuthorUsername: s.users[authorID].Username,
			ParentID:       parentID,
			Content:        content,
			CreatedAt:      r.m.now(),
		}
		s.comments = append(s.comments, c)
		comment = &c
		return nil
	})
	return comment, err
}

func (r *memRepos) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment *models.Comment
	err := r.do(func(s *memState) error {
		for _, c := range s.comments {
			if c.ID == id {
				copied := c
				comment = &copied
			}
		}
		return nil
	})
	return comment, err
}

func (r *memRepos) ListComments(ctx context.Context, postID uuid.UUID, scope ContentScope, page Page) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.do(func(s *memState) error {
		skipped := 0
		for _, c := range s.comments {
			if c.PostID != postID || scope.Excludes(c.AuthorID) {
				continue
			}
			if skipped < page.Offset {
				skipped++
				continue
			}
			if len(comments) == page.Limit {
				break
			}
			comments = append(comments, c)
		}
		return nil
	})
	return comments, err
}

func (r *memRepos) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var created bool
	err := r.do(func(s *memState) error {
		if _, ok := s.posts[postID]; !ok {
			return ErrPostNotFound
		}
		key := [2]uuid.UUID{postID, userID}
		if !s.likes[key] {
			s.likes[key] = true
			created = true
		}
		return nil
	})
	return created, err
}

func (r *memRepos) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var removed bool
	err := r.do(func(s *memState) error {
		key := [2]uuid.UUID{postID, userID}
		removed = s.likes[key]
		delete(s.likes, key)
		return nil
	})
	return removed, err
}

func (r *memRepos) AddReport(ctx context.Context, postID, reporterID uuid.UUID, reason string) (bool, error) {
	var added bool
	err := r.do(func(s *memState) error {
		if _, ok := s.posts[postID]; !ok {
			return ErrPostNotFound
		}
		key := [2]uuid.UUID{postID, reporterID}
		if _, ok := s.reports[key]; !ok {
			s.reports[key] = reason
			added = true
		}
		return nil
	})
	return added, err
}

func (r *memRepos) CountReports(ctx context.Context, postID uuid.UUID) (int, error) {
	count := 0
	err := r.do(func(s *memState) error {
		for key := range s.reports {
			if key[0] == postID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memRepos) HidePost(ctx context.Context, postID uuid.UUID) (bool, error) {
	var hidden bool
	err := r.do(func(s *memState) error {
		p, ok := s.posts[postID]
		if !ok || p.IsHidden {
			return nil
		}
		now := r.m.now()
		p.IsHidden = true
		p.HiddenAt = &now
		s.posts[postID] = p
		hidden = true
		return nil
	})
	return hidden, err
}

// UserStore

func (r *memRepos) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user *models.User
	err := r.do(func(s *memState) error {
		if u, ok := s.users[id]; ok {
			user = &u
		}
		return nil
	})
	return user, err
}

func (r *memRepos) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user *models.User
	err := r.do(func(s *memState) error {
		for _, u := range s.users {
			if strings.EqualFold(u.Username, username) {
				copied := u
				user = &copied
			}
		}
		return nil
	})
	return user, err
}

func (r *memRepos) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	users := []models.User{}
	err := r.do(func(s *memState) error {
		for _, u := range s.users {
			for _, name := range usernames {
				if strings.EqualFold(u.Username, name) {
					users = append(users, u)
					break
				}
			}
		}
		return nil
	})
	return users, err
}

func (r *memRepos) Search(ctx context.Context, query string, scope ContentScope, limit int) ([]models.UserSearchResult, error) {
	results := []models.UserSearchResult{}
	err := r.do(func(s *memState) error {
		for _, u := range s.users {
			if !strings.HasPrefix(strings.ToLower(u.Username), strings.ToLower(query)) {
				continue
			}
			if scope.Excludes(u.ID) || (scope.ViewerID != nil && *scope.ViewerID == u.ID) {
				continue
			}
			results = append(results, models.UserSearchResult{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
		}
		sort.Slice(results, func(i, j int) bool {
			return strings.ToLower(results[i].Username) < strings.ToLower(results[j].Username)
		})
		if len(results) > limit {
			results = results[:limit]
		}
		return nil
	})
	return results, err
}

// recordingPublisher captures everything pushed after commit.
type recordingPublisher struct {
	mu        sync.Mutex
	published []models.Notification
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type testEnv struct {
	store         *memStore
	publisher     *recordingPublisher
	notifications *NotificationService
	friendships   *FriendshipService
	blocks        *BlockService
	chats         *ChatService
	content       *ContentService
	users         *UserService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	publisher := &recordingPublisher{}
	notifications := NewNotificationService(store, publisher)
	return &testEnv{
		store:         store,
		publisher:     publisher,
		notifications: notifications,
		friendships:   NewFriendshipService(store, notifications),
		blocks:        NewBlockService(store),
		chats:         NewChatService(store, notifications),
		content:       NewContentService(store, notifications, ContentConfig{ReportHideThreshold: 3}),
		users:         NewUserService(store),
	}
}
