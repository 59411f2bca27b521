package main

import (
	"net/http"

	"github.com/HammerMeetNail/socialgraph/internal/handlers"
	"github.com/HammerMeetNail/socialgraph/internal/middleware"
)

type routes struct {
	auth                 *middleware.Authenticator
	friendRequestLimiter *middleware.RateLimiter
	reportLimiter        *middleware.RateLimiter
	health               *handlers.HealthHandler
	metrics              http.Handler
	users                *handlers.UserHandler
	friends              *handlers.FriendHandler
	blocks               *handlers.BlockHandler
	notifications        *handlers.NotificationHandler
	chats                *handlers.ChatHandler
	content              *handlers.ContentHandler
}

func newRouter(rt routes) *http.ServeMux {
	mux := http.NewServeMux()

	authed := func(fn http.HandlerFunc) http.Handler { return rt.auth.Require(fn) }
	anonymous := func(fn http.HandlerFunc) http.Handler { return rt.auth.Optional(fn) }
	limited := func(rl *middleware.RateLimiter, fn http.HandlerFunc) http.Handler {
		if rl == nil {
			return rt.auth.Require(fn)
		}
		return rt.auth.Require(rl.Middleware(fn))
	}

	// Health and metrics
	mux.HandleFunc("GET /health", rt.health.Health)
	mux.HandleFunc("GET /ready", rt.health.Ready)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics)
	}

	// User directory
	mux.Handle("GET /api/users/search", authed(rt.users.Search))
	mux.Handle("GET /api/users/{identifier}", authed(rt.users.Profile))
	mux.Handle("GET /api/users/{identifier}/posts", anonymous(rt.users.Posts))

	// Friends
	mux.Handle("POST /api/friends/requests", limited(rt.friendRequestLimiter, rt.friends.SendRequest))
	mux.Handle("GET /api/friends/requests", authed(rt.friends.ListRequests))
	mux.Handle("PUT /api/friends/requests/{id}/accept", authed(rt.friends.AcceptRequest))
	mux.Handle("PUT /api/friends/requests/{id}/decline", authed(rt.friends.DeclineRequest))
	mux.Handle("DELETE /api/friends/requests/{id}", authed(rt.friends.CancelRequest))
	mux.Handle("GET /api/friends/status/{identifier}", authed(rt.friends.Status))
	mux.Handle("DELETE /api/friends/{identifier}", authed(rt.friends.Unfriend))
	mux.Handle("GET /api/friends", authed(rt.friends.List))

	// Blocks
	mux.Handle("POST /api/blocks", authed(rt.blocks.Block))
	mux.Handle("DELETE /api/blocks/{identifier}", authed(rt.blocks.Unblock))
	mux.Handle("GET /api/blocks", authed(rt.blocks.List))

	// Notifications
	mux.Handle("GET /api/notifications", authed(rt.notifications.List))
	mux.Handle("GET /api/notifications/unread-count", authed(rt.notifications.UnreadCount))
	mux.Handle("POST /api/notifications/read-all", authed(rt.notifications.MarkAllRead))
	mux.Handle("POST /api/notifications/{id}/read", authed(rt.notifications.MarkRead))
	mux.Handle("GET /api/notifications/stream", rt.auth.RequireStream(http.HandlerFunc(rt.notifications.Stream)))

	// Chat
	mux.Handle("POST /api/chats", authed(rt.chats.GetOrCreate))
	mux.Handle("GET /api/chats", authed(rt.chats.ListRooms))
	mux.Handle("GET /api/chats/{id}/messages", authed(rt.chats.ListMessages))
	mux.Handle("POST /api/chats/{id}/messages", authed(rt.chats.SendMessage))

	// Content
	mux.Handle("POST /api/posts", authed(rt.content.CreatePost))
	mux.Handle("GET /api/posts/{id}", anonymous(rt.content.GetPost))
	mux.Handle("GET /api/feed", anonymous(rt.content.Feed))
	mux.Handle("GET /api/trending", anonymous(rt.content.Trending))
	mux.Handle("GET /api/search/posts", anonymous(rt.content.Search))
	mux.Handle("POST /api/posts/{id}/comments", authed(rt.content.AddComment))
	mux.Handle("GET /api/posts/{id}/comments", anonymous(rt.content.ListComments))
	mux.Handle("POST /api/posts/{id}/like", authed(rt.content.Like))
	mux.Handle("DELETE /api/posts/{id}/like", authed(rt.content.Unlike))
	mux.Handle("POST /api/posts/{id}/report", limited(rt.reportLimiter, rt.content.Report))

	return mux
}
