package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	chatservice "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

type wsFrame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

func newWSServer(t *testing.T, provider chatservice.CompletionProvider, credential, allowedOrigins string) (string, *chatservice.Session) {
	t.Helper()

	chatSvc := chatservice.NewService(provider, chatservice.Options{Model: "gemini-3-flash-preview"})
	session, err := chatSvc.CreateSession(context.Background(), credential)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewWebSocketHandler(chatSvc, allowedOrigins).RegisterWebSocketRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + session.ID(), session
}

func dialSession(t *testing.T, provider chatservice.CompletionProvider, credential string) (*websocket.Conn, *chatservice.Session) {
	t.Helper()

	url, session := newWSServer(t, provider, credential, "*")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	frame := readFrame(t, conn)
	require.Equal(t, "connected", frame.Type)
	return conn, session
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgType, "data": json.RawMessage(raw)}))
}

func TestWebSocketSubmitAndHistory(t *testing.T) {
	conn, session := dialSession(t, &scriptedProvider{reply: "4"}, "valid-key")

	sendFrame(t, conn, "submit", SubmitMessage{Text: "What is 2+2?"})
	frame := readFrame(t, conn)
	require.Equal(t, "message", frame.Type)
	require.Contains(t, string(frame.Data), `"content":"4"`)

	sendFrame(t, conn, "history", nil)
	frame = readFrame(t, conn)
	require.Equal(t, "history", frame.Type)
	require.Len(t, session.History(), 2)

	sendFrame(t, conn, "clear", nil)
	frame = readFrame(t, conn)
	require.Equal(t, "cleared", frame.Type)
	require.Empty(t, session.History())
}

func TestWebSocketMissingCredential(t *testing.T) {
	conn, session := dialSession(t, &scriptedProvider{reply: "unused"}, "")

	sendFrame(t, conn, "submit", SubmitMessage{Text: "hello"})
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)

	var data errorData
	require.NoError(t, json.Unmarshal(frame.Data, &data))
	require.Equal(t, string(chatservice.KindMissingCredential), data.Kind)
	require.Len(t, session.History(), 1)

	sendFrame(t, conn, "credential", CredentialMessage{Credential: "late-key"})
	frame = readFrame(t, conn)
	require.Equal(t, "credential", frame.Type)
	require.NotContains(t, string(frame.Data), "late-key")
	require.Equal(t, "late-key", session.Credential())
}

func TestWebSocketProviderError(t *testing.T) {
	conn, _ := dialSession(t, &scriptedProvider{err: errors.New("upstream unavailable")}, "valid-key")

	sendFrame(t, conn, "submit", SubmitMessage{Text: "hello"})
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)

	var data errorData
	require.NoError(t, json.Unmarshal(frame.Data, &data))
	require.Equal(t, string(chatservice.KindProviderError), data.Kind)
	require.Equal(t, "upstream unavailable", data.Message)
}

func TestWebSocketUnsupportedType(t *testing.T) {
	conn, _ := dialSession(t, &scriptedProvider{reply: "ok"}, "valid-key")

	sendFrame(t, conn, "audio", nil)
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	require.Contains(t, string(frame.Data), "unsupported message type")
}

func TestWebSocketChecksOrigin(t *testing.T) {
	url, _ := newWSServer(t, &scriptedProvider{reply: "ok"}, "valid-key", "https://widget.example.com")

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://widget.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, "connected", readFrame(t, conn).Type)
}
