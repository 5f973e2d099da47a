package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localdeals-backend/internal/shared"
	"localdeals-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// =====================================================
// AUTH + ROLE
// =====================================================

func newAuthRouter(tokens *jwt.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), RequireRole(roles...), func(c *gin.Context) {
		userID, _ := UserID(c)
		businessID, _ := BusinessID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     userID.String(),
			"business_id": businessID.String(),
			"role":        c.GetString(shared.ContextRole),
		})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Minute)
	r := newAuthRouter(tokens, shared.RoleSubscriber, shared.RoleBusiness)

	userID := uuid.New()
	businessID := uuid.New()

	subscriberToken, err := tokens.GenerateAccessToken(userID.String(), shared.RoleSubscriber, "")
	require.NoError(t, err)
	businessToken, err := tokens.GenerateAccessToken(userID.String(), shared.RoleBusiness, businessID.String())
	require.NoError(t, err)
	foreignToken, err := jwt.NewManager("other-secret", time.Minute).GenerateAccessToken(userID.String(), shared.RoleSubscriber, "")
	require.NoError(t, err)
	badUserToken, err := tokens.GenerateAccessToken("not-a-uuid", shared.RoleSubscriber, "")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + subscriberToken, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"signed with another secret", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"user id is not a uuid", "Bearer " + badUserToken, http.StatusUnauthorized},
		{"subscriber", "Bearer " + subscriberToken, http.StatusOK},
		{"business", "bearer " + businessToken, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, tc.header)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	w := get(r, "Bearer "+businessToken)
	assert.Contains(t, w.Body.String(), businessID.String())
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRequireRole(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Minute)
	r := newAuthRouter(tokens, shared.RoleBusiness)

	subscriberToken, err := tokens.GenerateAccessToken(uuid.NewString(), shared.RoleSubscriber, "")
	require.NoError(t, err)
	w := get(r, "Bearer "+subscriberToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// role business nhưng token thiếu business_id
	orphanToken, err := tokens.GenerateAccessToken(uuid.NewString(), shared.RoleBusiness, "")
	require.NoError(t, err)
	w = get(r, "Bearer "+orphanToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "business account required")

	businessToken, err := tokens.GenerateAccessToken(uuid.NewString(), shared.RoleBusiness, uuid.NewString())
	require.NoError(t, err)
	w = get(r, "Bearer "+businessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

// =====================================================
// RATE LIMIT
// =====================================================

type memoryCache struct {
	mu       sync.Mutex
	counters map[string]int64
	ttls     map[string]time.Duration
	err      error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{counters: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Ping(context.Context) error { return m.err }

func (m *memoryCache) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key], nil
}

func newLimitedRouter(store *memoryCache, businessID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.POST("/confirm",
		func(c *gin.Context) {
			if businessID != uuid.Nil {
				c.Set(shared.ContextBusinessID, businessID)
			}
			c.Next()
		},
		RateLimit(store, RateLimitConfig{
			Prefix:  "confirm",
			Limit:   3,
			Window:  time.Minute,
			KeyFunc: BusinessKey,
		}),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func post(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/confirm", nil))
	return w
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	store := newMemoryCache()
	business := uuid.New()
	r := newLimitedRouter(store, business)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post(r).Code, "attempt %d", i+1)
	}

	w := post(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	key := "ratelimit:confirm:" + business.String()
	assert.Equal(t, time.Minute, store.ttls[key])
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	store := newMemoryCache()
	first := newLimitedRouter(store, uuid.New())
	second := newLimitedRouter(store, uuid.New())

	for i := 0; i < 3; i++ {
		post(first)
	}
	assert.Equal(t, http.StatusTooManyRequests, post(first).Code)
	assert.Equal(t, http.StatusOK, post(second).Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	store := newMemoryCache()
	store.err = errors.New("redis: connection refused")
	r := newLimitedRouter(store, uuid.New())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, post(r).Code)
	}
}

func TestRateLimit_SkipsWithoutKey(t *testing.T) {
	store := newMemoryCache()
	r := newLimitedRouter(store, uuid.Nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, post(r).Code)
	}
	assert.Empty(t, store.counters)
}

// =====================================================
// REQUEST ID
// =====================================================

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(shared.ContextRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}
