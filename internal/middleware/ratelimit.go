package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/socialgraph/internal/handlers"
	"github.com/HammerMeetNail/socialgraph/internal/logging"
)

// RedisEvaler is the slice of the redis client the limiter needs.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Fixed window counter: INCR, and set the expiry on the first hit.
const rateLimitScript = `
local current
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type RateLimiter struct {
	redis  RedisEvaler
	limit  int64
	window time.Duration
	prefix string
	keyFn  func(r *http.Request) string
	// failOpen controls behavior when Redis errors: when true, requests are allowed through.
	failOpen bool
}

func NewRateLimiter(redis RedisEvaler, limit int64, window time.Duration, prefix string, keyFn func(r *http.Request) string, failOpen bool) *RateLimiter {
	if keyFn == nil {
		keyFn = KeyByUser
	}
	return &RateLimiter{
		redis:    redis,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFn:    keyFn,
		failOpen: failOpen,
	}
}

// KeyByUser keys the limit on the authenticated caller. Anonymous requests
// return "" and fall back to the client IP.
func KeyByUser(r *http.Request) string {
	if user := handlers.GetUserFromContext(r.Context()); user != nil {
		return "user:" + user.ID.String()
	}
	return ""
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil || rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		keySuffix := rl.keyFn(r)
		if keySuffix == "" {
			keySuffix = "ip:" + GetClientIP(r)
		}
		key := rl.prefix + keySuffix

		ttlSeconds := int64(rl.window.Seconds())
		if ttlSeconds < 1 {
			ttlSeconds = 1
		}
		result, err := rl.redis.Eval(r.Context(), rateLimitScript, []string{key}, ttlSeconds).Result()
		if err != nil {
			logging.Error("Rate limit Redis error", map[string]interface{}{"error": err.Error(), "prefix": rl.prefix})
			rl.unavailable(w, r, next)
			return
		}

		var count int64
		switch v := result.(type) {
		case int64:
			count = v
		case float64:
			count = int64(v)
		default:
			logging.Error("Rate limit Redis script returned unexpected type", map[string]interface{}{"type": fmt.Sprintf("%T", result)})
			rl.unavailable(w, r, next)
			return
		}

		if count > rl.limit {
			w.Header().Set("Retry-After", strconv.FormatInt(ttlSeconds, 10))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) unavailable(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if rl.failOpen {
		next.ServeHTTP(w, r)
		return
	}
	writeError(w, http.StatusServiceUnavailable, "Rate limiting temporarily unavailable")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetClientIP extracts the client IP from the request, respecting X-Forwarded-For
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
