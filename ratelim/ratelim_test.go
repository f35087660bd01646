package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func okHandle(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func TestLimit_AllowsBurstThenRejects(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter()
	defer rl.Stop()
	limited := rl.Limit(okHandle)

	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		limited(rec, req, nil)
		lastCode = rec.Code
		if i < 5 {
			assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestLimit_TracksIPsIndependently(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter()
	defer rl.Stop()
	limited := rl.Limit(okHandle)

	// exhaust the first IP
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:50000"
		limited(httptest.NewRecorder(), req, nil)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.3:50000"
	rec := httptest.NewRecorder()
	limited(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSweepOnce_DropsOnlyStaleVisitors(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter()
	defer rl.Stop()

	rl.getLimiter("10.0.0.4")
	rl.getLimiter("10.0.0.5")
	rl.mu.Lock()
	rl.visitors["10.0.0.4"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.sweepOnce(10 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.4")
	assert.Contains(t, rl.visitors, "10.0.0.5")
}

func TestStop_EndsSweeperAndIsIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter()
	rl.Stop()
	rl.Stop()

	select {
	case <-rl.done:
	default:
		t.Fatal("done channel still open after Stop")
	}
}
