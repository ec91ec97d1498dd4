package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gamemarket-backend/internal/catalog"
	"gamemarket-backend/internal/models"
)

// OrderService turns a checkout into a committed sale: the account's
// sold transition, the order document, and the buyer/seller chat.
type OrderService struct {
	redisService *RedisService
	chatService  *ChatService
	catalog      *catalog.Catalog
}

func NewOrderService(redisService *RedisService, chatService *ChatService, cat *catalog.Catalog) *OrderService {
	return &OrderService{
		redisService: redisService,
		chatService:  chatService,
		catalog:      cat,
	}
}

// CreateOrder commits the sale. The sold transition is the atomic
// compare-and-swap in SellAccount, so a concurrent buy of the same
// listing fails with ErrAccountUnavailable before any order is written.
// Chat provisioning afterwards is best-effort: the order stands even if
// it fails.
func (os *OrderService) CreateOrder(ctx context.Context, buyer *models.User, req *models.CreateOrderRequest) (*models.Order, error) {
	account, err := os.redisService.GetAccount(req.AccountID)
	if err != nil {
		return nil, err
	}

	if account.SellerID == buyer.ID {
		return nil, fmt.Errorf("cannot buy your own listing: %w", ErrForbidden)
	}

	account, err = os.redisService.SellAccount(account.ID)
	if err != nil {
		return nil, err
	}

	game := req.Game
	if game == "" {
		game = account.Game
	}

	now := time.Now().Unix()
	order := &models.Order{
		ID:        models.GenerateOrderID(),
		AccountID: account.ID,
		ClientID:  buyer.ID,
		SellerID:  account.SellerID,
		Price:     account.Price,
		Game:      game,
		Status:    models.OrderStatusProcessing,
		CreatedAt: now,
	}

	if err := os.redisService.SaveOrder(order); err != nil {
		// Compensate the sold transition so the listing does not strand
		// in sold with no order behind it.
		if _, restoreErr := os.redisService.UnsellAccount(account.ID); restoreErr != nil {
			zap.L().Error("Failed to restore listing after order write failure",
				zap.String("account_id", account.ID),
				zap.Error(restoreErr))
		}
		return nil, fmt.Errorf("failed to save order: %v", err)
	}

	if _, err := os.chatService.EnsureOrderChat(order); err != nil {
		zap.L().Warn("Failed to provision order chat",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	return order, nil
}

// UpdateStatus applies an admin status change and narrates it into the
// order's chat. A missing chat skips the narration silently; a refund
// credits the buyer's wallet ledger.
func (os *OrderService) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, actor *models.User) (*models.Order, error) {
	switch status {
	case models.OrderStatusProcessing, models.OrderStatusCompleted, models.OrderStatusRefunded:
	default:
		return nil, fmt.Errorf("invalid order status: %s", status)
	}

	order, err := os.redisService.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	prev := order.Status
	order.Status = status
	if err := os.redisService.SaveOrder(order); err != nil {
		return nil, err
	}

	if status == models.OrderStatusRefunded {
		msg := fmt.Sprintf("Refund for order %s", order.ID)
		if _, err := os.redisService.CreditWallet(order.ClientID, order.Price, msg); err != nil {
			zap.L().Error("Failed to credit refund",
				zap.String("order_id", order.ID),
				zap.String("client_id", order.ClientID),
				zap.Error(err))
		}
	}

	os.notifyStatusChange(order, prev)
	return order, nil
}

func (os *OrderService) notifyStatusChange(order *models.Order, prev models.OrderStatus) {
	chat, err := os.redisService.GetChatByOrderID(order.ID)
	if err != nil {
		// No chat for this order; nothing to narrate.
		return
	}

	content := fmt.Sprintf("Order status changed from %s to %s", prev, order.Status)
	msg := models.NewSystemMessage(content)
	if err := os.redisService.AppendMessage(chat.ID, msg, chat.SenderID, chat.ReceiverID); err != nil {
		zap.L().Warn("Failed to append status message",
			zap.String("chat_id", chat.ID),
			zap.Error(err))
	}
}

// Review records the buyer's verdict on their own order.
func (os *OrderService) Review(ctx context.Context, orderID, buyerID string, req *models.ReviewRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := os.redisService.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != buyerID {
		return nil, fmt.Errorf("only the buyer may review: %w", ErrForbidden)
	}

	order.Review = req.Verdict
	order.ReviewMessage = req.Message
	if err := os.redisService.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Summarize joins orders with display fields for the reporting
// endpoints. The game label falls back from the order's own label to
// the account's stored game and finally to valorant.
func (os *OrderService) Summarize(orders []*models.Order) []models.OrderSummary {
	summaries := make([]models.OrderSummary, 0, len(orders))
	for _, order := range orders {
		summary := models.OrderSummary{
			Order:          *order,
			ClientUsername: os.redisService.Username(order.ClientID),
			SellerUsername: os.redisService.Username(order.SellerID),
			PriceDisplay:   models.FormatCurrency(order.Price),
			DateDisplay:    models.FormatDate(order.CreatedAt),
		}

		game := order.Game
		if account, err := os.redisService.GetAccount(order.AccountID); err == nil {
			summary.AccountTitle = account.Title
			if game == "" {
				game = account.Game
			}
		}
		if game == "" {
			game = "valorant"
		}
		summary.GameLabel = os.catalog.Label(game)

		summaries = append(summaries, summary)
	}
	return summaries
}
