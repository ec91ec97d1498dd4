package services_test

import (
	"testing"
	"time"

	"gamemarket-backend/internal/config"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

// setupTestRedis connects to a local Redis; tests that need it are
// skipped when none is available.
func setupTestRedis(t *testing.T) *services.RedisService {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })

	return redisService
}

func createTestUser(t *testing.T, redisService *services.RedisService, username string, role models.Role) *models.User {
	t.Helper()

	now := time.Now().Unix()
	user := &models.User{
		ID:        models.GenerateUserID(),
		Username:  username,
		Email:     username + "@test.local",
		Role:      role,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := redisService.CreateUser(user); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	t.Cleanup(func() { redisService.DeleteUser(user.ID) })

	return user
}

func createTestAccount(t *testing.T, redisService *services.RedisService, sellerID string, price int64) *models.Account {
	t.Helper()

	now := time.Now().Unix()
	account := &models.Account{
		ID:       models.GenerateAccountID(),
		Game:     "valorant",
		Title:    "Test Valorant Account",
		Slug:     models.Slugify("Test Valorant Account"),
		Price:    price,
		Status:   models.AccountStatusActive,
		SellerID: sellerID,
		Attributes: map[string]interface{}{
			"rank":   "Immortal 3",
			"region": "EU",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := redisService.SaveAccount(account); err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	t.Cleanup(func() { redisService.DeleteAccount(account.ID) })

	return account
}
