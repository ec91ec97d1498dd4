package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gamemarket-backend/internal/models"
)

// appendMessageScript appends one message to the embedded list and
// bumps lastActivity plus every recency index in one atomic step, so a
// message can never land without the chat resurfacing in its
// participants' lists.
var appendMessageScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("chat not found")
	end

	local chat = cjson.decode(data)
	if type(chat.messages) ~= "table" then
		chat.messages = {}
	end
	table.insert(chat.messages, cjson.decode(ARGV[1]))
	chat.last_activity = tonumber(ARGV[2])
	redis.call("SET", KEYS[1], cjson.encode(chat))

	for i = 2, #KEYS do
		redis.call("ZADD", KEYS[i], ARGV[2], chat.id)
	end

	return #chat.messages
`)

// markMessagesReadScript flips the read flag on every message not
// authored by the reader, in the same atomic step as the reread, so a
// concurrent append is never clobbered by a stale full-document
// rewrite. The document is only rewritten when something changed, which
// implies messages is non-empty at encode time.
var markMessagesReadScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("chat not found")
	end

	local chat = cjson.decode(data)
	if type(chat.messages) ~= "table" then
		return 0
	end

	local changed = 0
	for _, msg in ipairs(chat.messages) do
		if msg.sender_id ~= ARGV[1] and msg.read ~= true then
			msg.read = true
			changed = changed + 1
		end
	end

	if changed > 0 then
		redis.call("SET", KEYS[1], cjson.encode(chat))
	end
	return changed
`)

// setChatReceiverScript swaps in a rewritten chat document only if the
// message count still matches what the caller read. A concurrent append
// wins and the caller retries on the fresh document.
var setChatReceiverScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("chat not found")
	end

	local chat = cjson.decode(data)
	local count = 0
	if type(chat.messages) == "table" then
		count = #chat.messages
	end
	if count ~= tonumber(ARGV[2]) then
		return 0
	end

	redis.call("SET", KEYS[1], ARGV[1])
	return 1
`)

// CreateChat persists a chat after claiming the order/ticket uniqueness
// index with SETNX. When the scope already has a chat the existing one
// is returned and created is false; callers never get a duplicate.
func (s *RedisService) CreateChat(chat *models.Chat) (*models.Chat, bool, error) {
	if err := chat.Validate(); err != nil {
		return nil, false, err
	}

	var indexKey string
	if chat.OrderID != "" {
		indexKey = fmt.Sprintf(KeyChatOrderIndex, chat.OrderID)
	} else {
		indexKey = fmt.Sprintf(KeyChatTicketIndex, chat.TicketID)
	}

	ok, err := s.client.SetNX(s.ctx, indexKey, chat.ID, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to claim chat index: %v", err)
	}
	if !ok {
		existingID, err := s.client.Get(s.ctx, indexKey).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve existing chat: %v", err)
		}
		existing, err := s.GetChat(existingID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}

	if err := s.setJSON(fmt.Sprintf(KeyChat, chat.ID), chat); err != nil {
		s.client.Del(s.ctx, indexKey)
		return nil, false, err
	}

	s.indexChatForUser(chat.SenderID, chat.ID, chat.LastActivity)
	if chat.ReceiverID != "" {
		s.indexChatForUser(chat.ReceiverID, chat.ID, chat.LastActivity)
	}

	return chat, true, nil
}

func (s *RedisService) GetChat(chatID string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.getJSON(fmt.Sprintf(KeyChat, chatID), &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *RedisService) GetChatByOrderID(orderID string) (*models.Chat, error) {
	return s.getChatByIndex(fmt.Sprintf(KeyChatOrderIndex, orderID))
}

func (s *RedisService) GetChatByTicketID(ticketID string) (*models.Chat, error) {
	return s.getChatByIndex(fmt.Sprintf(KeyChatTicketIndex, ticketID))
}

func (s *RedisService) getChatByIndex(indexKey string) (*models.Chat, error) {
	chatID, err := s.client.Get(s.ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chat index: %v", err)
	}
	return s.GetChat(chatID)
}

// MarkMessagesRead marks every message not authored by readerID as
// read. Runs as a single script; concurrent appends cannot be lost.
// Returns whether anything changed.
func (s *RedisService) MarkMessagesRead(chatID, readerID string) (bool, error) {
	changed, err := markMessagesReadScript.Run(s.ctx, s.client,
		[]string{fmt.Sprintf(KeyChat, chatID)}, readerID).Int()
	if err != nil {
		if strings.Contains(err.Error(), "chat not found") {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to mark messages read: %v", err)
	}
	return changed > 0, nil
}

func (s *RedisService) AppendMessage(chatID string, msg models.Message, participants ...string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	keys := []string{fmt.Sprintf(KeyChat, chatID)}
	for _, userID := range participants {
		if userID != "" && userID != "system" {
			keys = append(keys, fmt.Sprintf(KeyUserChats, userID))
		}
	}

	now := time.Now().Unix()
	if msg.CreatedAt > now {
		now = msg.CreatedAt
	}

	if err := appendMessageScript.Run(s.ctx, s.client, keys, string(data), now).Err(); err != nil {
		if strings.Contains(err.Error(), "chat not found") {
			return ErrNotFound
		}
		return fmt.Errorf("failed to append message: %v", err)
	}
	return nil
}

func (s *RedisService) ChatsForUser(userID string, page, limit int64) ([]*models.Chat, error) {
	ids, err := s.zrevRangePage(fmt.Sprintf(KeyUserChats, userID), page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %v", err)
	}

	chats := make([]*models.Chat, 0, len(ids))
	for _, id := range ids {
		chat, err := s.GetChat(id)
		if err != nil {
			continue
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// SetChatReceiver fills in the second participant (admin joining a
// ticket chat) and indexes the chat for them. The swap is conditional
// on the message count the caller read; losing to a concurrent append
// retries on the fresh document.
func (s *RedisService) SetChatReceiver(chatID, receiverID string) (*models.Chat, error) {
	for attempt := 0; attempt < 3; attempt++ {
		chat, err := s.GetChat(chatID)
		if err != nil {
			return nil, err
		}

		chat.ReceiverID = receiverID
		data, err := json.Marshal(chat)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chat: %v", err)
		}

		keys := []string{fmt.Sprintf(KeyChat, chatID)}
		swapped, err := setChatReceiverScript.Run(s.ctx, s.client, keys, string(data), len(chat.Messages)).Int()
		if err != nil {
			if strings.Contains(err.Error(), "chat not found") {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to set chat receiver: %v", err)
		}
		if swapped == 1 {
			s.indexChatForUser(receiverID, chat.ID, chat.LastActivity)
			return chat, nil
		}
	}
	return nil, fmt.Errorf("chat changed concurrently: %w", ErrConflict)
}

func (s *RedisService) indexChatForUser(userID, chatID string, lastActivity int64) {
	s.client.ZAdd(s.ctx, fmt.Sprintf(KeyUserChats, userID), redis.Z{
		Score:  float64(lastActivity),
		Member: chatID,
	})
}

func (s *RedisService) DeleteChat(chatID string) error {
	chat, err := s.GetChat(chatID)
	if err != nil {
		return err
	}
	if chat.OrderID != "" {
		s.client.Del(s.ctx, fmt.Sprintf(KeyChatOrderIndex, chat.OrderID))
	}
	if chat.TicketID != "" {
		s.client.Del(s.ctx, fmt.Sprintf(KeyChatTicketIndex, chat.TicketID))
	}
	s.client.ZRem(s.ctx, fmt.Sprintf(KeyUserChats, chat.SenderID), chatID)
	if chat.ReceiverID != "" {
		s.client.ZRem(s.ctx, fmt.Sprintf(KeyUserChats, chat.ReceiverID), chatID)
	}
	return s.client.Del(s.ctx, fmt.Sprintf(KeyChat, chatID)).Err()
}
