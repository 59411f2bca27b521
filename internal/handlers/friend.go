package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

type FriendHandler struct {
	friendshipService services.FriendshipServiceInterface
}

func NewFriendHandler(friendshipService services.FriendshipServiceInterface) *FriendHandler {
	return &FriendHandler{friendshipService: friendshipService}
}

type FriendshipResponse struct {
	Friendship *models.Friendship `json:"friendship"`
}

type FriendListResponse struct {
	Friends []models.FriendWithUser `json:"friends"`
}

type FriendRequestsResponse struct {
	Incoming []models.FriendRequest `json:"incoming"`
	Outgoing []models.FriendRequest `json:"outgoing"`
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req IdentifierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	friendship, err := h.friendshipService.SendRequest(r.Context(), userID, req.Identifier)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, FriendshipResponse{Friendship: friendship})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "request")
	if !ok {
		return
	}

	friendship, err := h.friendshipService.Respond(r.Context(), requestID, userID, accept)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !accept {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request declined"})
		return
	}
	writeJSON(w, http.StatusOK, FriendshipResponse{Friendship: friendship})
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "request")
	if !ok {
		return
	}

	if err := h.friendshipService.Cancel(r.Context(), requestID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request canceled"})
}

func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.friendshipService.Unfriend(r.Context(), userID, r.PathValue("identifier")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend removed"})
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	friends, err := h.friendshipService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	incoming, err := h.friendshipService.ListIncoming(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	outgoing, err := h.friendshipService.ListOutgoing(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestsResponse{Incoming: incoming, Outgoing: outgoing})
}

func (h *FriendHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.friendshipService.Status(r.Context(), userID, r.PathValue("identifier"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
