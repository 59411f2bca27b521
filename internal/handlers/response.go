package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/socialgraph/internal/logging"
	"github.com/HammerMeetNail/socialgraph/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

var serviceErrorStatus = map[services.Kind]int{
	services.KindInvalidOperation: http.StatusBadRequest,
	services.KindNotFound:         http.StatusNotFound,
	services.KindForbidden:        http.StatusForbidden,
	services.KindConflict:         http.StatusConflict,
}

// writeServiceError maps a service failure to its HTTP status. Only the
// domain message reaches the client, never the context wrapped around it.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *services.Error
	if errors.As(err, &domainErr) {
		if status, ok := serviceErrorStatus[domainErr.Kind]; ok {
			writeError(w, status, domainErr.Message)
			return
		}
	}
	logging.Error("Request failed", map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	})
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return user.ID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parsePage reads limit/offset query parameters. Missing values use defaults;
// malformed ones are rejected.
func parsePage(w http.ResponseWriter, r *http.Request) (services.Page, bool) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return services.Page{}, false
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return services.Page{}, false
	}
	return services.NewPage(limit, offset), true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return value, true
}

type IdentifierRequest struct {
	Identifier string `json:"identifier"`
}
