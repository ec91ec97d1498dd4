package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	chatService  *services.ChatService
	redisService *services.RedisService
	hub          *ChatHub
}

// ChatHub routes events to connections. One connection per user;
// rooms are keyed by chat ID. Process-local by design: a single
// instance serves the realtime tier.
type ChatHub struct {
	clients    map[string]*websocket.Conn
	rooms      map[string]map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	join       chan roomChange
	leave      chan roomChange
	deliver    chan delivery
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
}

type roomChange struct {
	ChatID string
	Client *Client
}

// delivery targets exactly one audience: a room (minus Exclude), a
// single user, or everyone.
type delivery struct {
	Room    string
	UserID  string
	Exclude string
	All     bool
	Event   Event
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type clientEvent struct {
	Type     string `json:"type"`
	ChatID   string `json:"chat_id,omitempty"`
	Content  string `json:"content,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

func NewWebSocketHandler(chatService *services.ChatService, redisService *services.RedisService) *WebSocketHandler {
	hub := &ChatHub{
		clients:    make(map[string]*websocket.Conn),
		rooms:      make(map[string]map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan roomChange),
		leave:      make(chan roomChange),
		deliver:    make(chan delivery, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		chatService:  chatService,
		redisService: redisService,
		hub:          hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	user := middleware.CurrentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	client := &Client{
		UserID: user.ID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var ev clientEvent
		err := conn.ReadJSON(&ev)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("WebSocket closed", zap.String("user_id", user.ID), zap.Error(err))
			}
			break
		}

		h.handleEvent(c, client, user, &ev)
	}
}

func (h *WebSocketHandler) handleEvent(c *gin.Context, client *Client, user *models.User, ev *clientEvent) {
	switch ev.Type {
	case "joinChat":
		h.joinChat(c, client, user, ev.ChatID)
	case "leaveChat":
		h.hub.leave <- roomChange{ChatID: ev.ChatID, Client: client}
	case "sendMessage":
		h.sendMessage(c, client, user, ev)
	case "typing":
		h.typing(client, user, ev)
	case "markAsRead":
		h.markAsRead(c, client, user, ev.ChatID)
	default:
		h.sendError(client, "unknown event type")
	}
}

// joinChat resolves the target by chat ID or order ID, lazily
// provisioning the order chat when needed, then puts the connection in
// the chat room and tells the other members.
func (h *WebSocketHandler) joinChat(c *gin.Context, client *Client, user *models.User, id string) {
	chat, err := h.chatService.ResolveForJoin(c.Request.Context(), id, user)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	h.hub.join <- roomChange{ChatID: chat.ID, Client: client}

	h.hub.deliver <- delivery{
		Room:    chat.ID,
		Exclude: client.UserID,
		Event: Event{
			Type: "userJoined",
			Data: gin.H{
				"chat_id":  chat.ID,
				"user_id":  user.ID,
				"username": user.Username,
			},
		},
	}

	h.hub.deliver <- delivery{
		UserID: client.UserID,
		Event: Event{
			Type: "chatJoined",
			Data: gin.H{"chat": chat},
		},
	}
}

func (h *WebSocketHandler) sendMessage(c *gin.Context, client *Client, user *models.User, ev *clientEvent) {
	if ev.ChatID == "" || ev.Content == "" {
		h.sendError(client, "chat_id and content are required")
		return
	}

	allowed, err := h.redisService.CheckRateLimit(user.ID, "ws:message", services.DefaultRateLimitMessages, time.Minute)
	if err == nil && !allowed {
		h.sendError(client, "too many messages, slow down")
		return
	}

	chat, msg, err := h.chatService.AddMessage(c.Request.Context(), ev.ChatID, user, ev.Content)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	h.hub.deliver <- delivery{
		Room: chat.ID,
		Event: Event{
			Type: "newMessage",
			Data: gin.H{
				"chat_id": chat.ID,
				"message": msg,
			},
		},
	}

	// Nudge the other participant's private connection; they may not
	// have the chat room open.
	if other := chat.OtherParticipant(user.ID); other != "" {
		h.hub.deliver <- delivery{
			UserID: other,
			Event: Event{
				Type: "chatNotification",
				Data: gin.H{
					"chat_id": chat.ID,
					"from":    user.Username,
					"preview": msg.Content,
				},
			},
		}
	}
}

// typing is broadcast-only, nothing is persisted.
func (h *WebSocketHandler) typing(client *Client, user *models.User, ev *clientEvent) {
	if ev.ChatID == "" {
		return
	}
	h.hub.deliver <- delivery{
		Room:    ev.ChatID,
		Exclude: client.UserID,
		Event: Event{
			Type: "userTyping",
			Data: gin.H{
				"chat_id":   ev.ChatID,
				"user_id":   user.ID,
				"is_typing": ev.IsTyping,
			},
		},
	}
}

func (h *WebSocketHandler) markAsRead(c *gin.Context, client *Client, user *models.User, chatID string) {
	changed, err := h.chatService.MarkAllRead(c.Request.Context(), chatID, user)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	if !changed {
		return
	}

	h.hub.deliver <- delivery{
		Room: chatID,
		Event: Event{
			Type: "messagesRead",
			Data: gin.H{
				"chat_id": chatID,
				"by":      user.ID,
			},
		},
	}
}

func (h *WebSocketHandler) sendError(client *Client, message string) {
	h.hub.deliver <- delivery{
		UserID: client.UserID,
		Event: Event{
			Type: "error",
			Data: gin.H{"message": message},
		},
	}
}

// run owns all connection writes; every other goroutine talks to it
// through the channels.
func (hub *ChatHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			hub.broadcastStatus(client.UserID, true)
			zap.L().Debug("Client registered", zap.String("user_id", client.UserID))

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				for chatID, members := range hub.rooms {
					if _, ok := members[client.UserID]; ok {
						delete(members, client.UserID)
						if len(members) == 0 {
							delete(hub.rooms, chatID)
						}
					}
				}
				hub.broadcastStatus(client.UserID, false)
				zap.L().Debug("Client unregistered", zap.String("user_id", client.UserID))
			}

		case change := <-hub.join:
			members, ok := hub.rooms[change.ChatID]
			if !ok {
				members = make(map[string]*websocket.Conn)
				hub.rooms[change.ChatID] = members
			}
			members[change.Client.UserID] = change.Client.Conn

		case change := <-hub.leave:
			if members, ok := hub.rooms[change.ChatID]; ok {
				delete(members, change.Client.UserID)
				if len(members) == 0 {
					delete(hub.rooms, change.ChatID)
				}
			}

		case d := <-hub.deliver:
			hub.dispatch(d)
		}
	}
}

func (hub *ChatHub) dispatch(d delivery) {
	switch {
	case d.All:
		for _, conn := range hub.clients {
			conn.WriteJSON(d.Event)
		}
	case d.Room != "":
		for userID, conn := range hub.rooms[d.Room] {
			if userID == d.Exclude {
				continue
			}
			conn.WriteJSON(d.Event)
		}
	case d.UserID != "":
		if conn, ok := hub.clients[d.UserID]; ok {
			conn.WriteJSON(d.Event)
		}
	}
}

func (hub *ChatHub) broadcastStatus(userID string, online bool) {
	hub.dispatch(delivery{
		All: true,
		Event: Event{
			Type: "userStatus",
			Data: gin.H{
				"user_id": userID,
				"online":  online,
			},
		},
	})
}
