package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(ContextUserID)})
	})
	r.GET("/admin", AuthMiddleware(secret), RoleMiddleware("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := protectedRouter("secret")

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "garbage").Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken("user-1", "customer", "secret", time.Minute)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestRoleMiddleware(t *testing.T) {
	r := protectedRouter("secret")

	customer, _ := utils.GenerateToken("user-1", "customer", "secret", time.Minute)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", customer).Code)

	admin, _ := utils.GenerateToken("user-2", "Admin", "secret", time.Minute)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", admin).Code)
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := do(r, http.MethodGet, "/ok?page=2", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "page=2", entry.Data["query"])
	assert.Equal(t, w.Header().Get(RequestIDHeader), entry.Data["requestId"])

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRateLimit(t *testing.T) {
	store, err := NewRateLimitStore(context.Background(), "")
	require.NoError(t, err)
	limit, err := RateLimit(store, "2-M")
	require.NoError(t, err)

	r := gin.New()
	r.POST("/coupons/validate", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/coupons/validate", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/coupons/validate", "").Code)
	w := do(r, http.MethodPost, "/coupons/validate", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	_, err = RateLimit(store, "lots")
	assert.Error(t, err)
}

func TestRateLimit_SharedRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	// two instances behind a load balancer share one budget
	var routers []*gin.Engine
	for i := 0; i < 2; i++ {
		store, err := NewRateLimitStore(ctx, "redis://"+mr.Addr())
		require.NoError(t, err)
		limit, err := RateLimit(store, "1-M")
		require.NoError(t, err)
		r := gin.New()
		r.POST("/coupons/apply", limit, func(c *gin.Context) { c.Status(http.StatusOK) })
		routers = append(routers, r)
	}

	assert.Equal(t, http.StatusOK, do(routers[0], http.MethodPost, "/coupons/apply", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(routers[1], http.MethodPost, "/coupons/apply", "").Code)
}

func TestNewRateLimitStore_BadURL(t *testing.T) {
	_, err := NewRateLimitStore(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestMetricsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/items/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/nope", "").Code)
}
