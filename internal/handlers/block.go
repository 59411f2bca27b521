package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

type BlockHandler struct {
	blockService services.BlockServiceInterface
}

func NewBlockHandler(blockService services.BlockServiceInterface) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

type BlockListResponse struct {
	Blocked []models.BlockedUser `json:"blocked"`
}

func (h *BlockHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req IdentifierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.blockService.Block(r.Context(), userID, req.Identifier); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User blocked"})
}

func (h *BlockHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.blockService.Unblock(r.Context(), userID, r.PathValue("identifier")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "User unblocked"})
}

func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	blocked, err := h.blockService.ListBlocked(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BlockListResponse{Blocked: blocked})
}
