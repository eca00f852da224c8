package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/sealedbid/internal/model"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func decodeLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

// TestLoggingMiddleware_LogsRequestFields はリクエストログに必要なフィールドが含まれることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(newJSONLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auctions", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogEntry(t, &buf)
	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "POST" {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/api/auctions" {
		t.Errorf("path = %v, want /api/auctions", entry["path"])
	}
	if status, _ := entry["status"].(float64); status != 201 {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want >= 0", entry["duration_ms"])
	}
	if _, ok := entry["user_id"]; ok {
		t.Error("user_id should be omitted for anonymous requests")
	}
}

// TestLoggingMiddleware_UserIDFromInnerSession は内側のセッションミドルウェアが
// 解決したユーザーIDがログに含まれることを検証する。
func TestLoggingMiddleware_UserIDFromInnerSession(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockSessionRepository{findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
		return &model.Session{ID: id, UserID: "user-123"}, nil
	}}
	inner := NewSessionMiddleware(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler := NewLoggingMiddleware(newJSONLogger(&buf))(NewMetricsMiddleware(&fakeStatusRecorder{})(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/bids", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if entry := decodeLogEntry(t, &buf); entry["user_id"] != "user-123" {
		t.Errorf("user_id = %v, want user-123", entry["user_id"])
	}
}

func TestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := chimw.RequestID(NewLoggingMiddleware(newJSONLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if id, _ := decodeLogEntry(t, &buf)["request_id"].(string); id == "" {
		t.Error("expected request_id in log entry")
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスコードに応じてログレベルが変わることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusBadRequest, "WARN"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewLoggingMiddleware(newJSONLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			if entry := decodeLogEntry(t, &buf); entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
		})
	}
}

// TestLoggingMiddleware_BodyWriteCapture はWriteHeaderなしの書き込みで200が記録されることを検証する。
func TestLoggingMiddleware_BodyWriteCapture(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(newJSONLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	entry := decodeLogEntry(t, &buf)
	if status, _ := entry["status"].(float64); status != 200 {
		t.Errorf("status = %v, want 200", status)
	}
	if n, _ := entry["bytes"].(float64); n != 5 {
		t.Errorf("bytes = %v, want 5", entry["bytes"])
	}
	// httptest.NewRequestのRemoteAddrは192.0.2.1:1234
	if entry["remote_ip"] != "192.0.2.1" {
		t.Errorf("remote_ip = %v, want 192.0.2.1", entry["remote_ip"])
	}
}

type fakeStatusRecorder struct {
	statuses []int
}

func (f *fakeStatusRecorder) RecordHTTPStatus(code int) {
	f.statuses = append(f.statuses, code)
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	rec := &fakeStatusRecorder{}
	handler := NewMetricsMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, model.NewAuctionEndedError())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auctions/a/bids", nil))

	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusBadRequest {
		t.Errorf("statuses = %v, want [400]", rec.statuses)
	}
}

func TestRecoveryMiddleware_ReturnsJSON500(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInternal)
	}
}

func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	handler := NewSecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}
