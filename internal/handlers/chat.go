package handlers

import (
	"net/http"
	"time"

	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

type ChatHandler struct {
	chatService services.ChatServiceInterface
}

func NewChatHandler(chatService services.ChatServiceInterface) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatRoomResponse struct {
	Room *models.ChatRoom `json:"room"`
}

type ChatRoomListResponse struct {
	Rooms []models.ChatRoom `json:"rooms"`
}

type ChatMessageResponse struct {
	Message *models.ChatMessage `json:"message"`
}

type ChatMessageListResponse struct {
	Messages []models.ChatMessage `json:"messages"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

func (h *ChatHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req IdentifierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := h.chatService.GetOrCreate(r.Context(), userID, req.Identifier)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatRoomResponse{Room: room})
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rooms, err := h.chatService.ListRooms(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatRoomListResponse{Rooms: rooms})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "id", "chat")
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), roomID, userID, req.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ChatMessageResponse{Message: msg})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "id", "chat")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	var before *time.Time
	if beforeParam := r.URL.Query().Get("before"); beforeParam != "" {
		parsed, err := time.Parse(time.RFC3339Nano, beforeParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid before timestamp")
			return
		}
		before = &parsed
	}

	messages, err := h.chatService.ListMessages(r.Context(), roomID, userID, limit, before)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatMessageListResponse{Messages: messages})
}
