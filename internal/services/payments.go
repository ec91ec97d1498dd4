package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"gamemarket-backend/internal/config"
	"gamemarket-backend/internal/models"
)

// PaymentService fronts the Stripe API for wallet deposits: it creates
// payment intents and credits the wallet ledger when the webhook
// confirms payment.
type PaymentService struct {
	redisService  *RedisService
	webhookSecret string
}

func NewPaymentService(cfg *config.Config, redisService *RedisService) *PaymentService {
	stripe.Key = cfg.StripeSecretKey
	return &PaymentService{
		redisService:  redisService,
		webhookSecret: cfg.StripeWebhookSecret,
	}
}

// CreateDeposit creates a payment intent for a wallet top-up. The user
// ID rides along in metadata so the webhook knows whose wallet to
// credit.
func (ps *PaymentService) CreateDeposit(ctx context.Context, user *models.User, amount int64) (*stripe.PaymentIntent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.AddMetadata("user_id", user.ID)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %v", err)
	}
	return intent, nil
}

// HandleWebhook verifies the event signature and credits the wallet on
// payment_intent.succeeded. Each intent is credited at most once.
func (ps *PaymentService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, ps.webhookSecret)
	if err != nil {
		return fmt.Errorf("webhook verification failed: %w", err)
	}

	if event.Type != "payment_intent.succeeded" {
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to parse payment intent: %v", err)
	}

	userID := intent.Metadata["user_id"]
	if userID == "" {
		zap.L().Warn("Payment intent without user metadata", zap.String("intent_id", intent.ID))
		return nil
	}

	fresh, err := ps.redisService.ClaimPaymentIntent(intent.ID)
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	message := fmt.Sprintf("Stripe deposit %s", intent.ID)
	if _, err := ps.redisService.CreditWallet(userID, intent.Amount, message); err != nil {
		return fmt.Errorf("failed to credit deposit: %v", err)
	}

	zap.L().Info("Wallet deposit credited",
		zap.String("user_id", userID),
		zap.Int64("amount", intent.Amount),
		zap.String("intent_id", intent.ID))
	return nil
}
