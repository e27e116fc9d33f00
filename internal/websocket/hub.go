package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

// MessageType 定义 WebSocket 消息类型
type MessageType string

const (
	MessageTypeEmailReceived  MessageType = "email.received"
	MessageTypeEmailProcessed MessageType = "email.processed"
	MessageTypeResponseSent   MessageType = "response.sent"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
)

// Message 定义 WebSocket 消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client 代表一个 WebSocket 客户端连接
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	log  *zap.Logger
}

// Hub 管理所有 WebSocket 连接，把流水线事件广播给仪表盘。
// 所有客户端收到全部事件，无订阅机制。
type Hub struct {
	clients        map[string]*Client
	register       chan *Client
	unregister     chan *Client
	broadcast      chan []byte
	mu             sync.RWMutex
	log            *zap.Logger
	allowedOrigins []string

	// OnClientCountChange 在客户端数量变化时调用，用于接入监控指标
	OnClientCountChange func(count int)
}

// NewHub 创建 WebSocket Hub
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	// 如果没有配置，默认允许所有
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return &Hub{
		clients:        make(map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan []byte, 256),
		log:            log,
		allowedOrigins: allowedOrigins,
	}
}

// Run 启动 Hub
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client registered", zap.String("id", client.ID))
			h.notifyClientCount(count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client unregistered", zap.String("id", client.ID))
			h.notifyClientCount(count)

		case data := <-h.broadcast:
			h.broadcastToAll(data)
		}
	}
}

// emailEvent 邮件事件推送数据
type emailEvent struct {
	EmailID     string `json:"emailId"`
	Sender      string `json:"sender,omitempty"`
	SenderEmail string `json:"senderEmail"`
	Subject     string `json:"subject"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Sentiment   string `json:"sentiment,omitempty"`
	Category    string `json:"category,omitempty"`
}

// responseEvent 回复事件推送数据
type responseEvent struct {
	ResponseID string `json:"responseId"`
	EmailID    string `json:"emailId"`
	Tone       string `json:"tone"`
	Confidence int    `json:"confidence"`
	SentAt     string `json:"sentAt,omitempty"`
}

// NotifyEmailReceived 通知新邮件入库
func (h *Hub) NotifyEmailReceived(email *domain.Email) {
	h.publish(MessageTypeEmailReceived, emailEventFrom(email))
}

// NotifyEmailProcessed 通知邮件分类完成
func (h *Hub) NotifyEmailProcessed(email *domain.Email) {
	h.publish(MessageTypeEmailProcessed, emailEventFrom(email))
}

// NotifyResponseSent 通知回复已发送
func (h *Hub) NotifyResponseSent(response *domain.EmailResponse) {
	event := responseEvent{
		ResponseID: response.ID,
		EmailID:    response.EmailID,
		Tone:       string(response.Tone),
		Confidence: response.Confidence,
	}
	if response.SentAt != nil {
		event.SentAt = response.SentAt.Format(time.RFC3339)
	}
	h.publish(MessageTypeResponseSent, event)
}

func emailEventFrom(email *domain.Email) emailEvent {
	event := emailEvent{
		EmailID:     email.ID,
		Sender:      email.Sender,
		SenderEmail: email.SenderEmail,
		Subject:     email.Subject,
		Status:      string(email.Status),
	}
	if email.Category != nil {
		event.Category = *email.Category
	}
	if email.Priority != nil {
		event.Priority = string(*email.Priority)
	}
	if email.Sentiment != nil {
		event.Sentiment = string(*email.Sentiment)
	}
	return event
}

// publish 序列化事件并投入广播队列
func (h *Hub) publish(msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to marshal event data", zap.Error(err))
		return
	}

	msg := &Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		h.log.Warn("broadcast queue full, dropping event", zap.String("type", string(msgType)))
	}
}

// broadcastToAll 向所有客户端广播消息
func (h *Hub) broadcastToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
			// 客户端阻塞，跳过
			h.log.Warn("client channel blocked, skipping", zap.String("clientID", client.ID))
		}
	}
}

// closeAllClients 关闭所有客户端连接
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
}

func (h *Hub) notifyClientCount(count int) {
	if h.OnClientCountChange != nil {
		h.OnClientCountChange(count)
	}
}

// upgraderFactory 创建带有 Origin 验证的 WebSocket 升级器
func upgraderFactory(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == "*" {
					return true
				}
			}

			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				// 没有 Origin 视为同源请求
				return true
			}

			for _, origin := range allowedOrigins {
				if requestOrigin == origin {
					return true
				}
			}

			return false
		},
	}
}

// HandleWebSocket 处理 WebSocket 连接
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := upgraderFactory(hub.allowedOrigins)

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Error("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		client := &Client{
			ID:   uuid.NewString(),
			conn: conn,
			hub:  hub,
			send: make(chan []byte, 256),
			log:  hub.log,
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump 处理客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket error", zap.Error(err))
			}
			break
		}

		// 仪表盘是只读订阅方，除心跳外忽略客户端消息
		if msg.Type == MessageTypePong {
			c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		}
	}
}

// writePump 发送消息给客户端
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
