package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the identity minted by the external identity service.
// Subject holds the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Identity struct {
	UserID   uuid.UUID
	Username string
}

// Verifier checks HS256 bearer tokens. Issuance happens elsewhere.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier has no secret", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	username := strings.TrimSpace(claims.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username claim is required", ErrInvalidToken)
	}

	return &Identity{UserID: userID, Username: username}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", ErrMissingToken
	}
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: authorization header must be Bearer {token}", ErrInvalidToken)
	}
	return parts[1], nil
}
