package middleware

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/socialgraph/internal/auth"
	"github.com/HammerMeetNail/socialgraph/internal/handlers"
	"github.com/HammerMeetNail/socialgraph/internal/models"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

type Authenticator struct {
	verifier TokenVerifier
}

func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return a.handle(next, true, false)
}

// Optional lets anonymous requests through but still rejects a token that
// was presented and fails verification.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.handle(next, false, false)
}

// RequireStream is Require for websocket upgrades, where browsers cannot set
// headers; it also accepts the token in the access_token query parameter.
func (a *Authenticator) RequireStream(next http.Handler) http.Handler {
	return a.handle(next, true, true)
}

func (a *Authenticator) handle(next http.Handler, required, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" && allowQuery {
			if token := r.URL.Query().Get("access_token"); token != "" {
				header = "Bearer " + token
			}
		}

		if header == "" {
			if required {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.BearerToken(header)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		identity, err := a.verifier.Verify(token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrMissingToken) {
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user := &models.User{ID: identity.UserID, Username: identity.Username}
		next.ServeHTTP(w, r.WithContext(handlers.ContextWithUser(r.Context(), user)))
	})
}
