package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"oasis/pkg/logger"
	"oasis/pkg/redis"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client 代表一个WebSocket连接的用户
type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// NewClient 创建连接对象
func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, Conn: conn, Send: make(chan []byte, 256)}
}

// Manager 管理所有在线用户的WebSocket连接
// 同一用户只保留最新的一条连接
type Manager struct {
	clients map[uint]*Client
	lock    sync.RWMutex
}

// NewManager 创建连接管理器
func NewManager() *Manager {
	return &Manager{clients: make(map[uint]*Client)}
}

// AddClient 添加新连接，替换并关闭旧连接
func (m *Manager) AddClient(client *Client) {
	m.lock.Lock()
	old, ok := m.clients[client.UserID]
	m.clients[client.UserID] = client
	m.lock.Unlock()

	if ok && old != client {
		close(old.Send)
		if old.Conn != nil {
			_ = old.Conn.Close()
		}
	}

	// 推送Redis中的离线通知
	go m.pushOfflineNotifications(client)
}

// RemoveClient 移除连接（仅当仍是当前连接时）
func (m *Manager) RemoveClient(client *Client) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if c, ok := m.clients[client.UserID]; ok && c == client {
		close(c.Send)
		delete(m.clients, client.UserID)
		return true
	}
	return false
}

// Push 推送消息给在线用户，返回是否已投递到连接的发送队列
func (m *Manager) Push(userID uint, msg []byte) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	client, ok := m.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		// 发送队列已满，视为未送达
		return false
	}
}

// IsOnline 判断用户是否在线
func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// OnlineCount 当前连接数
func (m *Manager) OnlineCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.clients)
}

// pushOfflineNotifications 上线后补发离线通知
func (m *Manager) pushOfflineNotifications(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	notifications, err := redis.DrainOfflineNotifications(ctx, client.UserID)
	if err != nil {
		logger.Warn("读取离线通知失败", zap.Uint("user_id", client.UserID), zap.Error(err))
		return
	}

	// 收件箱新的在前，按时间顺序补发
	for i := len(notifications) - 1; i >= 0; i-- {
		data, err := json.Marshal(Envelope{Type: "notification", Data: notifications[i]})
		if err != nil {
			continue
		}
		if !m.Push(client.UserID, data) {
			// 连接已被替换或队列已满，剩余通知放回收件箱
			for j := i; j >= 0; j-- {
				_ = redis.AddOfflineNotification(ctx, client.UserID, notifications[j])
			}
			return
		}
	}
}

// Envelope 推送给客户端的消息外壳
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
