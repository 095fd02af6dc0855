package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "rl:auth",
	}
	handler := RateLimitMiddleware(client, config, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr
}

func hit(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Property: exactly the configured number of requests pass per window
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			handler, _ := newRateLimitedHandler(t, requestsPerWindow)

			successCount, blockedCount := 0, 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				switch hit(handler, "192.168.1.100").Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_HeadersAndEnvelope(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 2)

	first := hit(handler, "10.0.0.1")
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	hit(handler, "10.0.0.1")
	blocked := hit(handler, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), `"message":"rate limit exceeded"`)
}

func TestRateLimit_ClientsAreCountedSeparately(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1)

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2").Code)
}

func TestRateLimit_WindowExpires(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1").Code)

	mr.FastForward(time.Minute + time.Second)

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1").Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1").Code)
	}
}

func TestRateLimit_NilClientDisablesLimiting(t *testing.T) {
	handler := RateLimitMiddleware(nil, RateLimitConfig{RequestsPerWindow: 1}, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1").Code)
	}
}

func TestRateLimit_IgnoresSourcePort(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1)

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.9:40001").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.9:40002").Code)
}

func TestClientKey_PrefersAuthenticatedUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", clientKey(req))

	userID := uuid.New()
	req = req.WithContext(WithUser(req.Context(), userID, domain.RoleCustomer))
	assert.Equal(t, "user:"+userID.String(), clientKey(req))
}
