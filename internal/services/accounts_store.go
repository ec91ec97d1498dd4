package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gamemarket-backend/internal/models"
)

// sellAccountScript is the compare-and-swap on the sold transition: it
// re-checks the stored status before overwriting the document and
// removing the listing from the active index, all in one atomic step.
// Two concurrent buys of the same account cannot both pass the check.
var sellAccountScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("account not found")
	end

	local account = cjson.decode(data)
	if account.status ~= "active" then
		return redis.error_reply("account not available")
	end

	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("ZREM", KEYS[2], account.id)

	return "OK"
`)

// unsellAccountScript is the compensating swap for a sold transition
// whose surrounding work failed: sold goes back to active and the
// listing rejoins the active index, atomically.
var unsellAccountScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("account not found")
	end

	local account = cjson.decode(data)
	if account.status ~= "sold" then
		return redis.error_reply("account not sold")
	end

	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("ZADD", KEYS[2], ARGV[2], account.id)

	return "OK"
`)

func (s *RedisService) SaveAccount(account *models.Account) error {
	account.UpdatedAt = time.Now().Unix()

	if err := s.setJSON(fmt.Sprintf(KeyAccount, account.ID), account); err != nil {
		return err
	}

	if err := s.client.Set(s.ctx, fmt.Sprintf(KeySlugIndex, account.Slug), account.ID, 0).Err(); err != nil {
		return fmt.Errorf("failed to index slug: %v", err)
	}

	sellerKey := fmt.Sprintf(KeySellerAccounts, account.SellerID)
	if err := s.client.ZAdd(s.ctx, sellerKey, redis.Z{
		Score:  float64(account.CreatedAt),
		Member: account.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index seller account: %v", err)
	}

	activeKey := fmt.Sprintf(KeyActiveAccounts, account.Game)
	if account.Status == models.AccountStatusActive {
		return s.client.ZAdd(s.ctx, activeKey, redis.Z{
			Score:  float64(account.CreatedAt),
			Member: account.ID,
		}).Err()
	}
	return s.client.ZRem(s.ctx, activeKey, account.ID).Err()
}

func (s *RedisService) GetAccount(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.getJSON(fmt.Sprintf(KeyAccount, accountID), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *RedisService) GetAccountBySlug(slug string) (*models.Account, error) {
	accountID, err := s.client.Get(s.ctx, fmt.Sprintf(KeySlugIndex, slug)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve slug: %v", err)
	}
	return s.GetAccount(accountID)
}

// SellAccount flips an active account to sold. ErrAccountUnavailable
// when the account is not currently active, so a second concurrent buy
// of the same listing always loses.
func (s *RedisService) SellAccount(accountID string) (*models.Account, error) {
	account, err := s.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	account.Status = models.AccountStatusSold
	account.UpdatedAt = time.Now().Unix()

	data, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %v", err)
	}

	keys := []string{
		fmt.Sprintf(KeyAccount, accountID),
		fmt.Sprintf(KeyActiveAccounts, account.Game),
	}
	if err := sellAccountScript.Run(s.ctx, s.client, keys, string(data)).Err(); err != nil {
		if strings.Contains(err.Error(), "not available") {
			return nil, ErrAccountUnavailable
		}
		if strings.Contains(err.Error(), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to sell account: %v", err)
	}

	return account, nil
}

// UnsellAccount reverses a sold transition when the work following it
// could not complete, so the listing never strands in sold with no
// order behind it. ErrAccountUnavailable when the account is not sold.
func (s *RedisService) UnsellAccount(accountID string) (*models.Account, error) {
	account, err := s.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	account.Status = models.AccountStatusActive
	account.UpdatedAt = time.Now().Unix()

	data, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %v", err)
	}

	keys := []string{
		fmt.Sprintf(KeyAccount, accountID),
		fmt.Sprintf(KeyActiveAccounts, account.Game),
	}
	if err := unsellAccountScript.Run(s.ctx, s.client, keys, string(data), account.CreatedAt).Err(); err != nil {
		if strings.Contains(err.Error(), "not sold") {
			return nil, ErrAccountUnavailable
		}
		if strings.Contains(err.Error(), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to restore account: %v", err)
	}

	return account, nil
}

func (s *RedisService) ListActiveAccounts(game string, page, limit int64) ([]*models.Account, error) {
	ids, err := s.zrevRangePage(fmt.Sprintf(KeyActiveAccounts, game), page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %v", err)
	}
	return s.bulkGetAccounts(ids)
}

func (s *RedisService) ListSellerAccounts(sellerID string, page, limit int64) ([]*models.Account, error) {
	ids, err := s.zrevRangePage(fmt.Sprintf(KeySellerAccounts, sellerID), page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller accounts: %v", err)
	}
	return s.bulkGetAccounts(ids)
}

func (s *RedisService) bulkGetAccounts(ids []string) ([]*models.Account, error) {
	if len(ids) == 0 {
		return []*models.Account{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(s.ctx, fmt.Sprintf(KeyAccount, id))
	}

	_, err := pipe.Exec(s.ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	accounts := make([]*models.Account, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var account models.Account
		if err := json.Unmarshal([]byte(data), &account); err != nil {
			continue
		}
		accounts = append(accounts, &account)
	}

	return accounts, nil
}

// IncrementViews keeps the view counter in its own key so concurrent
// reads never clobber each other through the document write path.
func (s *RedisService) IncrementViews(accountID string) (int64, error) {
	return s.client.Incr(s.ctx, fmt.Sprintf(KeyAccountViews, accountID)).Result()
}

func (s *RedisService) GetViews(accountID string) int64 {
	views, err := s.client.Get(s.ctx, fmt.Sprintf(KeyAccountViews, accountID)).Int64()
	if err != nil {
		return 0
	}
	return views
}

func (s *RedisService) DeleteAccount(accountID string) error {
	account, err := s.GetAccount(accountID)
	if err != nil {
		return err
	}
	s.client.ZRem(s.ctx, fmt.Sprintf(KeyActiveAccounts, account.Game), accountID)
	s.client.ZRem(s.ctx, fmt.Sprintf(KeySellerAccounts, account.SellerID), accountID)
	s.client.Del(s.ctx, fmt.Sprintf(KeySlugIndex, account.Slug))
	s.client.Del(s.ctx, fmt.Sprintf(KeyAccountViews, accountID))
	return s.client.Del(s.ctx, fmt.Sprintf(KeyAccount, accountID)).Err()
}
