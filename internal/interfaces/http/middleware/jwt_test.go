package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrm/backend/internal/infrastructure/auth"
	"github.com/fieldcrm/backend/internal/infrastructure/config"
)

func testAuthService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing-0123",
		Issuer:          "fieldcrm-test",
		TokenExpiration: time.Hour,
	})
}

func authRouter(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/sync/integrations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetJWTUserID(c),
			"username": GetJWTUsername(c),
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	svc := testAuthService()
	router := authRouter(svc)

	userID := uuid.New()
	token, _, err := svc.GenerateToken(userID, "sync_operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/integrations", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "sync_operator")
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	router := authRouter(testAuthService())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/integrations", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTMiddlewareRejectsBadScheme(t *testing.T) {
	svc := testAuthService()
	router := authRouter(svc)

	token, _, err := svc.GenerateToken(uuid.New(), "operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/integrations", nil)
	req.Header.Set(AuthHeaderKey, "Basic "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsExpiredToken(t *testing.T) {
	expired := auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing-0123",
		Issuer:          "fieldcrm-test",
		TokenExpiration: -time.Minute,
	})
	router := authRouter(testAuthService())

	token, _, err := expired.GenerateToken(uuid.New(), "operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/integrations", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTMiddlewareSkipsHealthPath(t *testing.T) {
	router := authRouter(testAuthService())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddlewareCustomOnError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultJWTConfig(testAuthService())
	cfg.OnError = func(c *gin.Context, err error) {
		c.AbortWithStatus(http.StatusTeapot)
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}
