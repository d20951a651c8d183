package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel-lockup-service/internal/domain/models"
	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenFor(t *testing.T, cfg *config.Config, userID uint, role, kiosk string) string {
	t.Helper()
	token, err := services.NewJWTService(cfg, nil).GenerateToken(userID, role, kiosk)
	require.NoError(t, err)
	return token
}

func authRouter(cfg *config.Config) *gin.Engine {
	InitAuthMiddleware(cfg, nil)

	r := gin.New()
	whoami := func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":  id,
			"role":     c.GetString(ContextRole),
			"kiosk_id": c.GetString(ContextKioskID),
			"is_admin": IsAdmin(c),
		})
	}
	r.GET("/admin", AuthenticateAdmin(), whoami)
	r.GET("/kiosk", AuthenticateKiosk(), whoami)
	return r
}

func TestAuthentication(t *testing.T) {
	cfg := &config.Config{JWTSecretKey: "test-secret"}
	r := authRouter(cfg)

	adminToken := tokenFor(t, cfg, 1, models.AdminRoleAdmin, "")
	kioskToken := tokenFor(t, cfg, 7, models.AdminRoleKiosk, "front-door")
	foreignToken := tokenFor(t, &config.Config{JWTSecretKey: "other-secret"}, 1, models.AdminRoleAdmin, "")

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"missing header", "/kiosk", "", http.StatusUnauthorized, "Authorization header is required"},
		{"garbage token", "/kiosk", "Bearer not-a-token", http.StatusUnauthorized, "Invalid token"},
		{"wrong secret", "/admin", "Bearer " + foreignToken, http.StatusUnauthorized, "Invalid token"},
		{"kiosk on admin route", "/admin", "Bearer " + kioskToken, http.StatusForbidden, "requires role admin"},
		{"kiosk on kiosk route", "/kiosk", "Bearer " + kioskToken, http.StatusOK, `"kiosk_id":"front-door"`},
		{"admin on kiosk route", "/kiosk", "Bearer " + adminToken, http.StatusOK, `"is_admin":true`},
		{"admin without prefix", "/admin", adminToken, http.StatusOK, `"user_id":1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("Bearer abc"))
	assert.Equal(t, "abc", extractToken("abc"))
	assert.Equal(t, "Bearer ", extractToken("Bearer "))
}

func limitedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/scan", handlers...)
	return r
}

func hit(r *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/scan", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIPRateLimiter(t *testing.T) {
	r := limitedRouter(IPRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1:1002"))

	// 其他IP有独立的令牌桶
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.2:1000"))
}

func TestKioskRateLimiterKeysByKiosk(t *testing.T) {
	kiosk := "north"
	setKiosk := func(c *gin.Context) {
		c.Set(ContextKioskID, kiosk)
		c.Next()
	}
	r := limitedRouter(setKiosk, KioskRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1:1000"))
	// 同一终端换IP仍然受限
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.9:1000"))

	kiosk = "south"
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1:1000"))
}

func TestLimiterStoreEvictsIdleKeys(t *testing.T) {
	store := newLimiterStore(RateLimiterConfig{Rate: 1, Burst: 1, ExpiryTime: time.Minute})
	now := time.Now()

	assert.True(t, store.allow("a", now))
	assert.True(t, store.allow("b", now))
	assert.False(t, store.allow("a", now))
	assert.Equal(t, 2, store.size())

	later := now.Add(3 * time.Minute)
	assert.True(t, store.allow("c", later))
	assert.Equal(t, 1, store.size())
	assert.True(t, store.allow("a", later), "evicted key starts with a full bucket")
}
