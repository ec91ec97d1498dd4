package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gamemarket-backend/internal/models"
)

// The wallet scripts mutate the user's balance and write the ledger
// entry in one atomic step, so the invariant
//
//	wallet == initial + sum(deposits) - sum(withdrawals)
//
// holds even under concurrent mutations. Debit is decrement-if-
// sufficient: a shortfall errors out with no state change.
var creditWalletScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("user not found")
	end

	local user = cjson.decode(data)
	user.wallet = (tonumber(user.wallet) or 0) + tonumber(ARGV[1])
	user.updated_at = tonumber(ARGV[3])
	redis.call("SET", KEYS[1], cjson.encode(user))

	local action = cjson.decode(ARGV[2])
	action.balance_after = user.wallet
	redis.call("SET", KEYS[2], cjson.encode(action))
	redis.call("ZADD", KEYS[3], ARGV[3], action.id)

	return user.wallet
`)

var debitWalletScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("user not found")
	end

	local user = cjson.decode(data)
	local balance = tonumber(user.wallet) or 0
	if balance < amount then
		return redis.error_reply("insufficient balance")
	end

	user.wallet = balance - amount
	user.updated_at = tonumber(ARGV[3])
	redis.call("SET", KEYS[1], cjson.encode(user))

	local action = cjson.decode(ARGV[2])
	action.balance_after = user.wallet
	redis.call("SET", KEYS[2], cjson.encode(action))
	redis.call("ZADD", KEYS[3], ARGV[3], action.id)

	return user.wallet
`)

func (s *RedisService) CreditWallet(userID string, amount int64, message string) (int64, error) {
	return s.runWalletScript(creditWalletScript, userID, amount, models.WalletActionDeposit, message)
}

func (s *RedisService) DebitWallet(userID string, amount int64, message string) (int64, error) {
	return s.runWalletScript(debitWalletScript, userID, amount, models.WalletActionWithdrawal, message)
}

func (s *RedisService) runWalletScript(script *redis.Script, userID string, amount int64, actionType models.WalletActionType, message string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	now := time.Now().Unix()
	action := models.WalletAction{
		ID:        models.GenerateWalletActionID(),
		UserID:    userID,
		Type:      actionType,
		Amount:    amount,
		Message:   message,
		CreatedAt: now,
	}

	actionData, err := json.Marshal(action)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal wallet action: %v", err)
	}

	keys := []string{
		fmt.Sprintf(KeyUser, userID),
		fmt.Sprintf(KeyWalletAction, action.ID),
		fmt.Sprintf(KeyWalletHistory, userID),
	}

	balance, err := script.Run(s.ctx, s.client, keys, amount, string(actionData), now).Int64()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient balance") {
			return 0, ErrInsufficientBalance
		}
		if strings.Contains(err.Error(), "user not found") {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("wallet mutation failed: %v", err)
	}

	return balance, nil
}

func (s *RedisService) GetWalletHistory(userID string, page, limit int64) ([]*models.WalletAction, error) {
	ids, err := s.zrevRangePage(fmt.Sprintf(KeyWalletHistory, userID), page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet history: %v", err)
	}

	if len(ids) == 0 {
		return []*models.WalletAction{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(s.ctx, fmt.Sprintf(KeyWalletAction, id))
	}

	_, err = pipe.Exec(s.ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	actions := make([]*models.WalletAction, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var action models.WalletAction
		if err := json.Unmarshal([]byte(data), &action); err != nil {
			continue
		}
		actions = append(actions, &action)
	}

	return actions, nil
}

// ClaimPaymentIntent marks a payment intent as processed. Returns false
// when the intent was already claimed, making webhook credits idempotent
// per intent ID.
func (s *RedisService) ClaimPaymentIntent(intentID string) (bool, error) {
	key := fmt.Sprintf(KeyPaymentIntent, intentID)
	ok, err := s.client.SetNX(s.ctx, key, "processed", TTLPaymentIntent).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim payment intent: %v", err)
	}
	return ok, nil
}
