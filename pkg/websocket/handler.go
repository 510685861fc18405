package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"oasis/config"
	"oasis/pkg/jwt"
	"oasis/pkg/logger"
	"oasis/pkg/redis"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// Handler 通知推送的WebSocket入口
type Handler struct {
	jwt     *jwt.JWTService
	cfg     config.WebSocketConfig
	manager *Manager
}

// NewHandler 创建WebSocket处理器
func NewHandler(jwtSvc *jwt.JWTService, cfg config.WebSocketConfig, manager *Manager) *Handler {
	return &Handler{jwt: jwtSvc, cfg: cfg, manager: manager}
}

// Serve Gin路由处理函数，token 通过 query 或 Sec-WebSocket-Protocol 传入
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "token无效或已过期")
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		response.Unauthorized(c, "token无效")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		return
	}

	client := NewClient(userID, conn)
	h.manager.AddClient(client)
	setPresence(userID, true)
	logger.Info("WebSocket连接建立", zap.Uint("user_id", userID))

	defer func() {
		if h.manager.RemoveClient(client) {
			setPresence(userID, false)
		}
		_ = conn.Close()
		logger.Info("WebSocket连接关闭", zap.Uint("user_id", userID))
	}()

	go h.writePump(client)
	h.readPump(client)
}

// writePump 写协程：转发发送队列并定时发送ping心跳
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// readPump 读协程（接收心跳）。超时未收到任何读事件则断开
func (h *Handler) readPump(client *Client) {
	conn := client.Conn
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))

		var msg Envelope
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Type == "heartbeat" {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = redis.RefreshUserPresence(ctx, client.UserID)
			cancel()
		}
	}
}

func setPresence(userID uint, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var err error
	if online {
		err = redis.SetUserOnline(ctx, userID)
	} else {
		err = redis.SetUserOffline(ctx, userID)
	}
	if err != nil {
		logger.Warn("更新在线状态失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}
