package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/HammerMeetNail/socialgraph/internal/logging"
	"github.com/HammerMeetNail/socialgraph/internal/metrics"
)

type RequestLogger struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.Default
	}
	return &RequestLogger{logger: logger}
}

// WithMetrics also counts every finished request by status class.
func (rl *RequestLogger) WithMetrics(m *metrics.Metrics) *RequestLogger {
	rl.metrics = m
	return rl
}

func (rl *RequestLogger) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		rl.metrics.Request(r.Method, rec.status)

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   GetClientIP(r),
		}

		switch {
		case rec.status >= 500:
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}
			rl.logger.Error("Request failed", fields)
		case rec.status >= 400:
			rl.logger.Warn("Request rejected", fields)
		default:
			rl.logger.Info("Request completed", fields)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the notification stream upgrade through the logger.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	r.wroteHeader = true
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
