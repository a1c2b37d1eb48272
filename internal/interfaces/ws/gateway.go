// Package ws 提供 WebSocket 对话网关
package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"parithera-api/internal/application/chat"
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/interfaces/http/middleware"
	apperrors "parithera-api/pkg/errors"
	"parithera-api/pkg/logger"
	"parithera-api/pkg/metrics"
	"parithera-api/pkg/utils"
)

const (
	// writeTimeout 单次消息写超时
	writeTimeout = 10 * time.Second
	// maxInboundBytes 入站消息大小上限
	maxInboundBytes = 16 * 1024
)

// InboundMessage 客户端发起一轮对话的消息
type InboundMessage struct {
	Request        string `json:"request"`
	ProjectID      string `json:"projectId"`
	OrganizationID string `json:"organizationId"`
}

// Gateway 对话 WebSocket 网关
//
// 每条入站消息触发一轮对话，进度经 chat:status 事件推送，
// 回合结束推送最终 chat 事件。
type Gateway struct {
	orchestrator *chat.Orchestrator
	jwtManager   *utils.JWTManager
	upgrader     websocket.Upgrader
}

// NewGateway 创建 WebSocket 网关
func NewGateway(orchestrator *chat.Orchestrator, secret, issuer string) *Gateway {
	return &Gateway{
		orchestrator: orchestrator,
		jwtManager:   utils.NewJWTManager(secret, issuer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 跨域由网关前置的 CORS 层控制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register 注册 WebSocket 路由
func (g *Gateway) Register(engine *gin.Engine) {
	engine.GET("/ws/chat", g.Handle)
}

// Handle 升级连接并处理对话消息
func (g *Gateway) Handle(c *gin.Context) {
	claims, err := g.authenticate(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "invalid or missing token",
		})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxInboundBytes)

	metrics.ActiveChatClients.Inc()
	defer metrics.ActiveChatClients.Dec()

	ctx := c.Request.Context()
	logger.Info(ctx, "chat client connected",
		"user_id", claims.UserID,
		"organization_id", claims.OrganizationID,
	)

	emitter := &connEmitter{conn: conn}

	for {
		var in InboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn(ctx, "chat client read failed", "error", err.Error())
			}
			return
		}

		g.handleTurn(ctx, emitter, claims, in)
	}
}

// handleTurn 执行一轮对话并推送最终结果
func (g *Gateway) handleTurn(ctx context.Context, emitter *connEmitter, claims *utils.Claims, in InboundMessage) {
	orgID := in.OrganizationID
	if orgID == "" {
		orgID = claims.OrganizationID
	}

	msg, respType, err := g.orchestrator.HandleTurn(ctx, chat.TurnRequest{
		OrganizationID: orgID,
		ProjectID:      in.ProjectID,
		UserID:         claims.UserID,
		Request:        in.Request,
	}, emitter)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		emitter.Emit(ctx, chat.Envelope{
			Event: chat.EventChat,
			Data: entity.Message{
				Request:   in.Request,
				Followup:  []string{},
				JSON:      map[string]interface{}{},
				Error:     appErr.Message,
				Status:    chat.StatusDone,
				Timestamp: time.Now(),
			},
			Type: chat.ResponseTypeError,
		})
		return
	}

	emitter.Emit(ctx, chat.Envelope{
		Event: chat.EventChat,
		Data:  *msg,
		Type:  respType,
	})
}

// authenticate 在升级前校验 JWT，支持 Authorization 头与 token 查询参数
func (g *Gateway) authenticate(c *gin.Context) (*utils.Claims, error) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return nil, utils.ErrInvalidToken
	}

	claims, err := g.jwtManager.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != "access" {
		return nil, utils.ErrInvalidToken
	}

	// 与 HTTP 链路对齐，便于仓储层读取组织上下文
	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, middleware.OrganizationIDKey, claims.OrganizationID)
	ctx = context.WithValue(ctx, middleware.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)

	return claims, nil
}

// connEmitter 将状态事件写入 WebSocket 连接
type connEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Emit 推送一条事件信封，写失败仅记录日志
func (e *connEmitter) Emit(ctx context.Context, env chat.Envelope) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = e.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := e.conn.WriteJSON(env); err != nil {
		logger.Warn(ctx, "failed to push chat event",
			"event", env.Event,
			"error", err.Error(),
		)
	}
}
