package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

type ContentHandler struct {
	contentService services.ContentServiceInterface
}

func NewContentHandler(contentService services.ContentServiceInterface) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

type ContentRequest struct {
	Content string `json:"content"`
}

type CommentRequest struct {
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type ReportRequest struct {
	Reason string `json:"reason"`
}

type PostResponse struct {
	Post *models.Post `json:"post"`
}

type CommentResponse struct {
	Comment *models.Comment `json:"comment"`
}

type CommentListResponse struct {
	Comments []models.Comment `json:"comments"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
}

func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.contentService.CreatePost(r.Context(), userID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, PostResponse{Post: post})
}

func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathUUID(w, r, "id", "post")
	if !ok {
		return
	}

	post, err := h.contentService.GetPost(r.Context(), viewerIDFromContext(r.Context()), postID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostResponse{Post: post})
}

func (h *ContentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	posts, err := h.contentService.Feed(r.Context(), viewerIDFromContext(r.Context()), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts})
}

func (h *ContentHandler) Trending(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	posts, err := h.contentService.Trending(r.Context(), viewerIDFromContext(r.Context()), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts})
}

func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	posts, err := h.contentService.SearchPosts(r.Context(), viewerIDFromContext(r.Context()), r.URL.Query().Get("q"), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts})
}

func (h *ContentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(w, r, "id", "post")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.contentService.AddComment(r.Context(), userID, postID, req.ParentID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CommentResponse{Comment: comment})
}

func (h *ContentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathUUID(w, r, "id", "post")
	if !ok {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	comments, err := h.contentService.ListComments(r.Context(), viewerIDFromContext(r.Context()), postID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CommentListResponse{Comments: comments})
}

func (h *ContentHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(w, r, "id", "post")
	if !ok {
		return
	}

	if _, err := h.contentService.LikePost(r.Context(), userID, postID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LikeResponse{Liked: true})
}

func (h *ContentHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(w, r, "id", "post")
	if !ok {
		return
	}

	if err := h.contentService.UnlikePost(r.Context(), userID, postID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LikeResponse{Liked: false})
}

func (h *ContentHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(w, r, "id", "post")
	if !ok {
		return
	}

	var req ReportRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.contentService.ReportPost(r.Context(), userID, postID, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
