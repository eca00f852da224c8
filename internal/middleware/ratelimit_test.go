package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/sealedbid/internal/model"
	"golang.org/x/time/rate"
)

func testRateConfig(generalBurst, bidBurst, loginBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    generalBurst,
		BidRate:         rate.Limit(0.001),
		BidBurst:        bidBurst,
		LoginRate:       rate.Limit(0.001),
		LoginBurst:      loginBurst,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func userRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auctions/a/bids", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralBurst != 120 || cfg.BidBurst != 30 || cfg.LoginBurst != 20 {
		t.Errorf("bursts = %d/%d/%d, want 120/30/20", cfg.GeneralBurst, cfg.BidBurst, cfg.LoginBurst)
	}
	if cfg.GeneralRate != rate.Limit(2) {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.BidRate != rate.Limit(0.5) {
		t.Errorf("BidRate = %v, want 0.5", cfg.BidRate)
	}
}

func TestGeneralMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(2, 10, 10))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, userRequest("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-1"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry < 1 {
		t.Errorf("Retry-After = %q, want positive integer", w.Header().Get("Retry-After"))
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
}

func TestGeneralMiddleware_IsolatedPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1, 10, 10))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), userRequest("user-a"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-b"))
	if w.Code != http.StatusOK {
		t.Errorf("user-b status = %d, want 200", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestBidMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(100, 1, 10))
	defer rl.Stop()
	general := rl.GeneralMiddleware()(okHandler())
	bid := rl.BidMiddleware()(okHandler())

	w := httptest.NewRecorder()
	bid.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("first bid status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	bid.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second bid status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	general.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("general status = %d, want 200", w.Code)
	}
	if rl.BidLimiterCount() != 1 {
		t.Errorf("BidLimiterCount() = %d, want 1", rl.BidLimiterCount())
	}
}

func TestUserMiddleware_WithoutUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1, 1, 1))
	defer rl.Stop()

	w := httptest.NewRecorder()
	rl.BidMiddleware()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginMiddleware_KeyedByClientIP(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(10, 10, 1))
	defer rl.Stop()
	handler := rl.LoginMiddleware()(okHandler())

	loginFrom := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := loginFrom("10.0.0.1:1111"); code != http.StatusOK {
		t.Fatalf("first login status = %d, want 200", code)
	}
	if code := loginFrom("10.0.0.1:2222"); code != http.StatusTooManyRequests {
		t.Errorf("same IP different port status = %d, want 429", code)
	}
	if code := loginFrom("10.0.0.2:1111"); code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", code)
	}
	if rl.LoginLimiterCount() != 2 {
		t.Errorf("LoginLimiterCount() = %d, want 2", rl.LoginLimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(10, 10, 10))
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), userRequest("user-1"))
	rl.BidMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), userRequest("user-1"))

	rl.cleanup(time.Now())
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("fresh entry should survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.GeneralLimiterCount() != 0 || rl.BidLimiterCount() != 0 {
		t.Errorf("stale entries remain: general=%d bid=%d", rl.GeneralLimiterCount(), rl.BidLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1, 1, 1))
	rl.Stop()
	rl.Stop()
}
