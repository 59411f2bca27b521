// Package testutil holds request and JSON helpers shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func NewTestRequest(method, path string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, path, body)
}

func NewTestRequestWithJSON(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func ParseJSONResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("parse json response %q: %v", string(body), err)
	}
	return out
}

func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d (body %s)", want, rr.Code, strings.TrimSpace(rr.Body.String()))
	}
}

// AssertJSONContains checks a top-level string field of a JSON object body.
func AssertJSONContains(t *testing.T, body []byte, key, want string) {
	t.Helper()
	got, ok := ParseJSONResponse(t, body)[key]
	if !ok {
		t.Fatalf("expected key %q in %s", key, string(body))
	}
	if got != want {
		t.Fatalf("expected %q=%q, got %v", key, want, got)
	}
}

func RandomUUID() uuid.UUID {
	return uuid.New()
}

// RandomUsername returns a unique, valid handle.
func RandomUsername() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
