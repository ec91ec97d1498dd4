package services

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gamemarket-backend/internal/models"
)

func (s *RedisService) SaveTicket(ticket *models.Ticket) error {
	if err := s.setJSON(fmt.Sprintf(KeyTicket, ticket.ID), ticket); err != nil {
		return err
	}

	member := redis.Z{Score: float64(ticket.LastActivity), Member: ticket.ID}
	s.client.ZAdd(s.ctx, KeyTicketsAll, member)
	s.client.ZAdd(s.ctx, fmt.Sprintf(KeyTicketsCreator, ticket.CreatorID), member)

	if ticket.AssignedAdmin == "" {
		return s.client.ZAdd(s.ctx, KeyTicketsUnassigned, member).Err()
	}

	s.client.ZRem(s.ctx, KeyTicketsUnassigned, ticket.ID)
	return s.client.ZAdd(s.ctx, fmt.Sprintf(KeyTicketsAdmin, ticket.AssignedAdmin), member).Err()
}

func (s *RedisService) GetTicket(ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.getJSON(fmt.Sprintf(KeyTicket, ticketID), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// AssignTicket claims an unassigned ticket for an admin. The claim is
// the atomic ZREM on the unassigned index: only one admin can win it.
func (s *RedisService) AssignTicket(ticketID, adminID string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.AssignedAdmin != "" {
		return nil, ErrTicketAssigned
	}

	removed, err := s.client.ZRem(s.ctx, KeyTicketsUnassigned, ticketID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim ticket: %v", err)
	}
	if removed == 0 {
		return nil, ErrTicketAssigned
	}

	ticket.AssignedAdmin = adminID
	ticket.Status = models.TicketStatusInProgress
	ticket.LastActivity = time.Now().Unix()
	if err := s.SaveTicket(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *RedisService) ListAllTickets(page, limit int64) ([]*models.Ticket, error) {
	return s.listTickets(KeyTicketsAll, page, limit)
}

func (s *RedisService) ListUnassignedTickets(page, limit int64) ([]*models.Ticket, error) {
	return s.listTickets(KeyTicketsUnassigned, page, limit)
}

func (s *RedisService) ListTicketsByAdmin(adminID string, page, limit int64) ([]*models.Ticket, error) {
	return s.listTickets(fmt.Sprintf(KeyTicketsAdmin, adminID), page, limit)
}

func (s *RedisService) ListTicketsByCreator(creatorID string, page, limit int64) ([]*models.Ticket, error) {
	return s.listTickets(fmt.Sprintf(KeyTicketsCreator, creatorID), page, limit)
}

func (s *RedisService) listTickets(indexKey string, page, limit int64) ([]*models.Ticket, error) {
	ids, err := s.zrevRangePage(indexKey, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %v", err)
	}

	tickets := make([]*models.Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, err := s.GetTicket(id)
		if err != nil {
			continue
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (s *RedisService) DeleteTicket(ticketID string) error {
	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return err
	}
	s.client.ZRem(s.ctx, KeyTicketsAll, ticketID)
	s.client.ZRem(s.ctx, KeyTicketsUnassigned, ticketID)
	s.client.ZRem(s.ctx, fmt.Sprintf(KeyTicketsCreator, ticket.CreatorID), ticketID)
	if ticket.AssignedAdmin != "" {
		s.client.ZRem(s.ctx, fmt.Sprintf(KeyTicketsAdmin, ticket.AssignedAdmin), ticketID)
	}
	return s.client.Del(s.ctx, fmt.Sprintf(KeyTicket, ticketID)).Err()
}
