package httputil

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// TestLimiter verifies per-IP concurrent request limits.
func TestLimiter(t *testing.T) {
	limiter := NewLimiter(3)

	for i := 0; i < 3; i++ {
		if !limiter.Acquire("10.0.0.1") {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}
	if limiter.Acquire("10.0.0.1") {
		t.Error("acquire beyond limit should fail")
	}
	if !limiter.Acquire("10.0.0.2") {
		t.Error("different IP should not be limited")
	}

	limiter.Release("10.0.0.1")
	if !limiter.Acquire("10.0.0.1") {
		t.Error("acquire after release should succeed")
	}

	if c := limiter.Count("10.0.0.1"); c != 3 {
		t.Errorf("count = %d, want 3", c)
	}
	if c := limiter.Count("10.0.0.2"); c != 1 {
		t.Errorf("count = %d, want 1", c)
	}
}

// TestLimiterConcurrent verifies limiter thread safety.
func TestLimiterConcurrent(t *testing.T) {
	limiter := NewLimiter(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Acquire("10.0.0.1") {
				defer limiter.Release("10.0.0.1")
				time.Sleep(10 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if c := limiter.Count("10.0.0.1"); c != 0 {
		t.Errorf("count after all released = %d, want 0", c)
	}
}

// TestLimitHTTPResponse verifies the 429 response while a request is held.
func TestLimitHTTPResponse(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	limiter := NewLimiter(1)

	entered := make(chan struct{})
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	})
	h := limiter.Limit(slow, false, logger)

	done := make(chan int)
	go func() {
		req := httptest.NewRequest("GET", "/api/v1/pluto/track", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		done <- w.Code
	}()
	<-entered

	req := httptest.NewRequest("GET", "/api/v1/pluto/track", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	close(release)
	if code := <-done; code != http.StatusOK {
		t.Errorf("held request status = %d, want 200", code)
	}
	if c := limiter.Count("10.0.0.1"); c != 0 {
		t.Errorf("count after release = %d, want 0", c)
	}
}
