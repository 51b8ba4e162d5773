package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/worker"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// WsHandler 推送简历解析结果。客户端连上后第一条消息必须是 {"type":"auth","token":...}，
// 通过后服务端回 {"type":"ready"}，随后转发该用户频道上的通知。
type WsHandler struct {
	redisClient redis.UniversalClient
	tokens      middleware.TokenValidator
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时只接受同源连接。
func NewWsHandler(redisClient redis.UniversalClient, tokens middleware.TokenValidator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WsHandler{
		redisClient: redisClient,
		tokens:      tokens,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return originAllowed(r, allowedOrigins) },
		},
	}
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(allowed) > 0 {
		return slices.Contains(allowed, origin)
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type wsReadyMessage struct {
	Type   string `json:"type"`
	UserID uint   `json:"userId"`
}

// wsRejection 表示鉴权阶段需要以关闭帧结束连接。
type wsRejection struct {
	reason string
	err    error
}

func (r *wsRejection) Error() string { return r.reason + ": " + r.err.Error() }

// HandleConnection 升级连接，完成首条消息鉴权后开始转发通知。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	claims, err := h.authenticate(conn)
	if err != nil {
		var rejection *wsRejection
		if errors.As(err, &rejection) {
			writeClose(conn, websocket.ClosePolicyViolation, rejection.reason)
		}
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}

	log = log.With(slog.Uint64("user_id", uint64(claims.UserID)), slog.String("role", string(claims.Role)))
	if err := writeJSON(conn, wsReadyMessage{Type: "ready", UserID: claims.UserID}); err != nil {
		log.Warn("write ready message failed", slog.Any("error", err))
		return
	}
	log.Info("websocket authenticated")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 读循环只用于发现断开，客户端后续消息全部忽略。
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				cancel()
				return
			}
		}
	}()

	err = h.forward(ctx, conn, claims.UserID, log)
	select {
	case rerr := <-readErr:
		if err == nil || errors.Is(err, context.Canceled) {
			err = rerr
		}
	default:
	}
	log.Info("websocket connection closed", slog.Any("error", err))
}

// authenticate 在超时内读取首条消息并校验 access token。
func (h *WsHandler) authenticate(conn *websocket.Conn) (*auth.TokenClaims, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read auth message: %w", err)
	}

	var msg wsAuthMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return nil, &wsRejection{reason: "invalid auth payload", err: err}
	}
	if msg.Type != "auth" || msg.Token == "" {
		return nil, &wsRejection{reason: "auth required", err: errors.New("first message is not auth")}
	}

	claims, err := h.tokens.ValidateToken(msg.Token)
	if err != nil {
		return nil, &wsRejection{reason: "unauthorized", err: err}
	}
	if claims.TokenType != auth.TokenTypeAccess {
		return nil, &wsRejection{reason: "access token required", err: fmt.Errorf("token type %q", claims.TokenType)}
	}
	if claims.MustChangePassword {
		return nil, &wsRejection{reason: "password change required", err: errors.New("must change password")}
	}
	return claims, nil
}

// forward 订阅用户频道并把通知原样写给客户端，定期发送 ping。
func (h *WsHandler) forward(ctx context.Context, conn *websocket.Conn, userID uint, log *slog.Logger) error {
	channel := worker.NotifyChannel(userID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()
	log.Debug("subscribed to notifications", slog.String("channel", channel))

	messages := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("notification channel closed")
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write notification: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
