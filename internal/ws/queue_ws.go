package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"waitline/internal/log"
	"waitline/internal/notify"
)

// ErrNoSubscribers означает, что у пользователя нет открытых соединений.
var ErrNoSubscribers = errors.New("ws: no subscribers")

const (
	EventUserJoined    = "user_joined"
	EventStatusChanged = "status_changed"
)

// WSMessage is the envelope every client receives.
type WSMessage struct {
	EventType string      `json:"event_type"`
	QueueID   string      `json:"queue_id"`
	Data      interface{} `json:"data"`
}

func QueueChannel(queueID string) string { return "queue:" + queueID }

func UserChannel(userID string) string { return "user:" + userID }

// Hub хранит подключения клиентов, сгруппированные по каналу
// ("queue:<id>" или "user:<id>").
type Hub struct {
	clients map[string]map[*Client]bool
	// Канал для регистрации нового клиента.
	register chan *Client
	// Канал для удаления клиента.
	unregister chan *Client
	// Канал для трансляции сообщений по конкретному каналу.
	broadcast chan BroadcastMessage
	// Закрывается, когда Run завершился.
	done chan struct{}
	mu   sync.RWMutex
	log  *log.Logger
}

// BroadcastMessage представляет сообщение для рассылки в определённый канал.
type BroadcastMessage struct {
	Channel string
	Message []byte
}

var _ notify.Notifier = (*Hub)(nil)

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run обрабатывает каналы хаба, пока не отменён ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Channel] == nil {
				h.clients[client.Channel] = make(map[*Client]bool)
			}
			h.clients[client.Channel][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.Channel] {
				select {
				case client.Send <- message.Message:
				default:
					// Клиент не успевает читать, отключаем его.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(client *Client) {
	clients, ok := h.clients[client.Channel]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.Channel)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.drop(client)
		}
	}
}

// Subscribers returns how many clients listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}

func (h *Hub) BroadcastMessage(ctx context.Context, msg BroadcastMessage) error {
	// broadcast is buffered, so a stopped hub would otherwise still accept
	select {
	case <-h.done:
		return ErrNoSubscribers
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrNoSubscribers
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BroadcastQueueEvent sends an event to everyone watching queueID.
func (h *Hub) BroadcastQueueEvent(ctx context.Context, queueID, eventType string, data interface{}) error {
	payload, err := json.Marshal(WSMessage{EventType: eventType, QueueID: queueID, Data: data})
	if err != nil {
		return err
	}
	return h.BroadcastMessage(ctx, BroadcastMessage{Channel: QueueChannel(queueID), Message: payload})
}

// Notify delivers a personal message to the user's open connections.
func (h *Hub) Notify(ctx context.Context, userID string, msg notify.Message) error {
	channel := UserChannel(userID)
	if h.Subscribers(channel) == 0 {
		return ErrNoSubscribers
	}
	payload, err := json.Marshal(WSMessage{EventType: msg.Kind, QueueID: msg.QueueID, Data: msg})
	if err != nil {
		return err
	}
	return h.BroadcastMessage(ctx, BroadcastMessage{Channel: channel, Message: payload})
}

// Client представляет одно подключение через WebSocket.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Channel string
}

// readPump входящие сообщения не обрабатывает, только отслеживает разрыв соединения.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.log.Debugw("websocket closed", "channel", c.Channel, "error", err)
			}
			return
		}
	}
}

// writePump отправляет сообщения клиенту из канала Send.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Канал закрыт.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			// Отправка ping-сообщения для поддержания соединения.
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// QueueHandler подписывает клиента на события очереди.
// URL: /api/queues/{queue_id}/ws
func (h *Hub) QueueHandler(c *gin.Context) {
	h.serve(c, QueueChannel(c.Param("queue_id")))
}

// UserHandler подписывает клиента на личные уведомления.
// URL: /api/users/{user_id}/ws
func (h *Hub) UserHandler(c *gin.Context) {
	h.serve(c, UserChannel(c.Param("user_id")))
}

func (h *Hub) serve(c *gin.Context, channel string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой.
		h.log.Warnw("websocket upgrade failed", "channel", channel, "error", err)
		return
	}
	client := &Client{
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Channel: channel,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
