package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	middlewarePkg "github.com/zhouzirui/chat-widget/backend/internal/middleware"
	chatService "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// WebSocketHandler 提供聊天小组件使用的 WebSocket 通道。每个连接按顺序处理消息。
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器，allowedOrigins 与 REST 的 CORS 配置一致
func NewWebSocketHandler(chatSvc *chatService.Service, allowedOrigins string) *WebSocketHandler {
	origins := middlewarePkg.ParseOrigins(allowedOrigins)
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非浏览器客户端不带 Origin
				if origin == "" {
					return true
				}
				return middlewarePkg.OriginAllowed(origins, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// SubmitMessage asks for a reply to Text.
type SubmitMessage struct {
	Text       string `json:"text"`
	Credential string `json:"credential,omitempty"`
}

// CredentialMessage stores a credential on the session.
type CredentialMessage struct {
	Credential string `json:"credential"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type errorData struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	writes := make(chan outgoingMessage, 16)
	go h.writeLoop(ctx, conn, writes)

	send := func(msgType string, data interface{}) {
		select {
		case writes <- outgoingMessage{Type: msgType, SessionID: sessionID, Data: data, Timestamp: time.Now().Unix()}:
		case <-ctx.Done():
		}
	}

	send("connected", session.View())

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			send("error", errorData{Message: "session mismatch"})
		} else {
			h.handleMessage(ctx, session, &msg, send)
		}

		// A provider call can outlast the read deadline.
		conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, session *chatService.Session, msg *inboundMessage, send func(string, interface{})) {
	switch msg.Type {
	case "submit":
		var submit SubmitMessage
		if err := json.Unmarshal(msg.Data, &submit); err != nil {
			send("error", errorData{Message: "invalid submit payload"})
			return
		}
		if strings.TrimSpace(submit.Text) == "" {
			send("error", errorData{Message: "text is required"})
			return
		}

		credential := strings.TrimSpace(submit.Credential)
		if credential == "" {
			credential = session.Credential()
		}

		reply, err := session.Submit(ctx, submit.Text, credential)
		if err != nil {
			send("error", submitErrorData(err))
			return
		}
		send("message", reply)
	case "credential":
		var cred CredentialMessage
		if err := json.Unmarshal(msg.Data, &cred); err != nil {
			send("error", errorData{Message: "invalid credential payload"})
			return
		}
		session.SetCredential(strings.TrimSpace(cred.Credential))
		send("credential", session.View())
	case "history":
		send("history", session.History())
	case "clear":
		session.Clear()
		send("cleared", session.View())
	default:
		send("error", errorData{Message: "unsupported message type: " + msg.Type})
	}
}

func submitErrorData(err error) errorData {
	var chatErr *chatService.Error
	if errors.As(err, &chatErr) {
		return errorData{Message: chatErr.Message, Kind: string(chatErr.Kind)}
	}
	return errorData{Message: err.Error()}
}

// writeLoop 串行写出消息并定期发送ping
func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, writes <-chan outgoingMessage) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-writes:
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("[websocket] write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
