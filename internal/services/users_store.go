package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gamemarket-backend/internal/models"
)

// CreateUser persists a new user and claims its email and username via
// SETNX index keys. Losing either claim rolls back the other and
// returns ErrConflict.
func (s *RedisService) CreateUser(user *models.User) error {
	emailKey := fmt.Sprintf(KeyEmailIndex, strings.ToLower(user.Email))
	usernameKey := fmt.Sprintf(KeyUsernameIndex, strings.ToLower(user.Username))

	ok, err := s.client.SetNX(s.ctx, emailKey, user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim email: %v", err)
	}
	if !ok {
		return fmt.Errorf("email taken: %w", ErrConflict)
	}

	ok, err = s.client.SetNX(s.ctx, usernameKey, user.ID, 0).Result()
	if err != nil {
		s.client.Del(s.ctx, emailKey)
		return fmt.Errorf("failed to claim username: %v", err)
	}
	if !ok {
		s.client.Del(s.ctx, emailKey)
		return fmt.Errorf("username taken: %w", ErrConflict)
	}

	if err := s.setJSON(fmt.Sprintf(KeyUser, user.ID), user); err != nil {
		return err
	}

	return s.client.ZAdd(s.ctx, KeyUsersAll, redis.Z{
		Score:  float64(user.CreatedAt),
		Member: user.ID,
	}).Err()
}

func (s *RedisService) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.getJSON(fmt.Sprintf(KeyUser, userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *RedisService) GetUserByEmail(email string) (*models.User, error) {
	userID, err := s.client.Get(s.ctx, fmt.Sprintf(KeyEmailIndex, strings.ToLower(email))).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve email: %v", err)
	}
	return s.GetUser(userID)
}

func (s *RedisService) SaveUser(user *models.User) error {
	user.UpdatedAt = time.Now().Unix()
	return s.setJSON(fmt.Sprintf(KeyUser, user.ID), user)
}

func (s *RedisService) ListUsers(page, limit int64) ([]*models.User, error) {
	ids, err := s.zrevRangePage(KeyUsersAll, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %v", err)
	}

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.GetUser(id)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// Username resolves a user ID to a display name; unknown IDs come back
// as-is so listing joins never fail on a missing user.
func (s *RedisService) Username(userID string) string {
	user, err := s.GetUser(userID)
	if err != nil {
		return userID
	}
	return user.Username
}

func (s *RedisService) DeleteUser(userID string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	s.client.Del(s.ctx, fmt.Sprintf(KeyEmailIndex, strings.ToLower(user.Email)))
	s.client.Del(s.ctx, fmt.Sprintf(KeyUsernameIndex, strings.ToLower(user.Username)))
	s.client.ZRem(s.ctx, KeyUsersAll, userID)
	return s.client.Del(s.ctx, fmt.Sprintf(KeyUser, userID)).Err()
}
