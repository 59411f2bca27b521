package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HammerMeetNail/socialgraph/internal/logging"
	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
)

type NotificationHandler struct {
	notificationService services.NotificationServiceInterface
	streamer            services.NotificationStreamer
	upgrader            websocket.Upgrader
}

// NewNotificationHandler serves the polling endpoints and, when streamer is
// non-nil, the websocket push stream. allowedOrigins limits browser origins
// for the stream; an empty list accepts same-origin requests only.
func NewNotificationHandler(notificationService services.NotificationServiceInterface, streamer services.NotificationStreamer, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		streamer:            streamer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

type NotificationUnreadCountResponse struct {
	Count int `json:"count"`
}

type NotificationMarkAllResponse struct {
	Updated int64 `json:"updated"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	var before *time.Time
	if beforeParam := r.URL.Query().Get("before"); beforeParam != "" {
		parsed, err := time.Parse(time.RFC3339, beforeParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid before timestamp")
			return
		}
		before = &parsed
	}

	notifications, err := h.notificationService.List(r.Context(), userID, services.NotificationListParams{
		Limit:      limit,
		Before:     before,
		UnreadOnly: r.URL.Query().Get("unread") == "1",
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NotificationListResponse{Notifications: notifications})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NotificationUnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathUUID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NotificationMarkAllResponse{Updated: updated})
}

// Stream upgrades to a websocket and pushes each new notification as a JSON
// text frame. The client only needs to answer pings.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.streamer == nil {
		writeError(w, http.StatusServiceUnavailable, "Notification stream unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Warn("Notification stream upgrade failed", map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go readUntilClosed(conn, cancel)

	notifications := h.streamer.Subscribe(ctx, userID)
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the stream once the connection goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Notification stream closed", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}
}
