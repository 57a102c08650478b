package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"happymeter/config"
	"happymeter/internal/auth"
	"happymeter/internal/database/databasetest"
	"happymeter/internal/domain"
	"happymeter/internal/models"
	"happymeter/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	r := NewInMemoryRateLimiter(2, time.Minute)
	defer r.Close()
	r.now = func() time.Time { return now }

	assert.True(t, r.Allow("a"))
	assert.True(t, r.Allow("a"))
	assert.False(t, r.Allow("a"))
	assert.True(t, r.Allow("b"), "keys are independent")
	assert.Equal(t, time.Minute, r.Retry("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, r.Allow("a"))
	assert.Zero(t, r.Retry("c"))
}

func TestRateLimiterCloseStopsCleanup(t *testing.T) {
	r := NewInMemoryRateLimiter(1, time.Minute)
	r.Close()
	r.Close()
	select {
	case <-r.done:
	default:
		t.Fatal("cleanup goroutine still running after Close")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, time.Minute)
	defer limiter.Close()
	router := gin.New()
	router.GET("/", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAuthAndProgramOwner(t *testing.T) {
	db := databasetest.Open(t)
	mine := models.LoyaltyProgram{OwnerID: 1, Name: "Mine", IsActive: true}
	theirs := models.LoyaltyProgram{OwnerID: 2, Name: "Theirs", IsActive: true}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&theirs).Error)

	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour, Issuer: "test"}
	token, err := auth.GenerateAccessToken(cfg, 1, domain.RoleOwner)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/programs/:program_id",
		AuthRequired(cfg),
		ProgramOwner(repository.NewProgramRepository(db)),
		RequireRole(domain.RoleOwner),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"name": GetProgram(c).Name}) },
	)

	do := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do("/programs/1", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Mine"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do("/programs/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/programs/1", "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/programs/1", "Bearer junk").Code)
	assert.Equal(t, http.StatusForbidden, do("/programs/2", "Bearer "+token).Code)
	assert.Equal(t, http.StatusNotFound, do("/programs/99", "Bearer "+token).Code)
	assert.Equal(t, http.StatusBadRequest, do("/programs/abc", "Bearer "+token).Code)

	staff, err := auth.GenerateAccessToken(cfg, 1, domain.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do("/programs/1", "Bearer "+staff).Code)
}

func TestQueryTokenAuth(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour}
	token, err := auth.GenerateAccessToken(cfg, 5, domain.RoleOwner)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/ws", QueryTokenAuth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": GetOwnerID(c)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"owner":5}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
