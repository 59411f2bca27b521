package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/socialgraph/internal/models"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

type UserHandler struct {
	userService    services.UserServiceInterface
	contentService services.ContentServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface, contentService services.ContentServiceInterface) *UserHandler {
	return &UserHandler{userService: userService, contentService: contentService}
}

type UserSearchResponse struct {
	Users []models.UserSearchResult `json:"users"`
}

type ProfileResponse struct {
	Profile *models.Profile `json:"profile"`
}

type PostListResponse struct {
	Posts []models.Post `json:"posts"`
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	users, err := h.userService.Search(r.Context(), userID, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserSearchResponse{Users: users})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.Profile(r.Context(), userID, r.PathValue("identifier"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Profile: profile})
}

// Posts lists a profile's posts. Anonymous viewers are allowed.
func (h *UserHandler) Posts(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	posts, err := h.contentService.ProfilePosts(r.Context(), viewerIDFromContext(r.Context()), r.PathValue("identifier"), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts})
}
