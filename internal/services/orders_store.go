package services

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gamemarket-backend/internal/models"
)

func (s *RedisService) SaveOrder(order *models.Order) error {
	order.UpdatedAt = time.Now().Unix()

	if err := s.setJSON(fmt.Sprintf(KeyOrder, order.ID), order); err != nil {
		return err
	}

	score := float64(order.CreatedAt)
	member := redis.Z{Score: score, Member: order.ID}
	if err := s.client.ZAdd(s.ctx, KeyOrdersAll, member).Err(); err != nil {
		return fmt.Errorf("failed to index order: %v", err)
	}
	s.client.ZAdd(s.ctx, fmt.Sprintf(KeyOrdersSeller, order.SellerID), member)
	s.client.ZAdd(s.ctx, fmt.Sprintf(KeyOrdersClient, order.ClientID), member)

	return nil
}

func (s *RedisService) GetOrder(orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.getJSON(fmt.Sprintf(KeyOrder, orderID), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *RedisService) ListAllOrders(page, limit int64) ([]*models.Order, error) {
	return s.listOrders(KeyOrdersAll, page, limit)
}

func (s *RedisService) ListOrdersBySeller(sellerID string, page, limit int64) ([]*models.Order, error) {
	return s.listOrders(fmt.Sprintf(KeyOrdersSeller, sellerID), page, limit)
}

func (s *RedisService) ListOrdersByClient(clientID string, page, limit int64) ([]*models.Order, error) {
	return s.listOrders(fmt.Sprintf(KeyOrdersClient, clientID), page, limit)
}

func (s *RedisService) listOrders(indexKey string, page, limit int64) ([]*models.Order, error) {
	ids, err := s.zrevRangePage(indexKey, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %v", err)
	}

	orders := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		order, err := s.GetOrder(id)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *RedisService) DeleteOrder(orderID string) error {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return err
	}
	s.client.ZRem(s.ctx, KeyOrdersAll, orderID)
	s.client.ZRem(s.ctx, fmt.Sprintf(KeyOrdersSeller, order.SellerID), orderID)
	s.client.ZRem(s.ctx, fmt.Sprintf(KeyOrdersClient, order.ClientID), orderID)
	return s.client.Del(s.ctx, fmt.Sprintf(KeyOrder, orderID)).Err()
}
