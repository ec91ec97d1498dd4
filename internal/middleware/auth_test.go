package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gamemarket-backend/internal/config"
	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *services.RedisService, *services.JWTService) {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		JWTSecret: "auth-middleware-test-secret",
		TokenTTL:  time.Hour,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })

	jwtService := services.NewJWTService(cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", middleware.AuthMiddleware(jwtService, redisService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	return router, redisService, jwtService
}

func createAuthTestUser(t *testing.T, redisService *services.RedisService, username string, status models.UserStatus) *models.User {
	t.Helper()

	now := time.Now().Unix()
	user := &models.User{
		ID:        models.GenerateUserID(),
		Username:  username,
		Email:     username + "@test.local",
		Role:      models.RoleUser,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := redisService.CreateUser(user); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	t.Cleanup(func() { redisService.DeleteUser(user.ID) })

	return user
}

func requestWithToken(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsSuspendedUser(t *testing.T) {
	router, redisService, jwtService := setupAuthRouter(t)

	suspended := createAuthTestUser(t, redisService, "mw-suspended-1", models.UserStatusSuspended)
	token, err := jwtService.GenerateToken(suspended)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	// The token itself is valid; the suspension check is what rejects.
	w := requestWithToken(router, token)
	if w.Code != http.StatusForbidden {
		t.Errorf("suspended user got %d, want 403", w.Code)
	}
}

func TestAuthMiddlewareAllowsActiveUser(t *testing.T) {
	router, redisService, jwtService := setupAuthRouter(t)

	active := createAuthTestUser(t, redisService, "mw-active-1", models.UserStatusActive)
	token, err := jwtService.GenerateToken(active)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	w := requestWithToken(router, token)
	if w.Code != http.StatusOK {
		t.Errorf("active user got %d, want 200", w.Code)
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	if w := requestWithToken(router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token got %d, want 401", w.Code)
	}
	if w := requestWithToken(router, "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token got %d, want 401", w.Code)
	}
}

func TestAuthMiddlewareQueryTokenFallback(t *testing.T) {
	router, redisService, jwtService := setupAuthRouter(t)

	active := createAuthTestUser(t, redisService, "mw-active-2", models.UserStatusActive)
	token, err := jwtService.GenerateToken(active)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	// Websocket upgrade requests carry the token as a query parameter.
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("query-token request got %d, want 200", w.Code)
	}
}
