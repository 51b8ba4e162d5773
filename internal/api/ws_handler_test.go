package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

func dialWS(t *testing.T, s *testServer) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(s.router)
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "auth", "token": "not-a-jwt"}))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), err.Error())
}

func TestWebSocketRequiresAuthFirst(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "hello"}))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), err.Error())
}

func TestWebSocketAcknowledgesAccessToken(t *testing.T) {
	s := newTestServer(t)
	user, token := s.userWithToken(t, "cand@example.com", database.RoleCandidate)
	conn := dialWS(t, s)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "auth", "token": token}))
	var ready wsReadyMessage
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, "ready", ready.Type)
	assert.Equal(t, user.ID, ready.UserID)
}

func TestOriginAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/v1/ws", nil)
	assert.True(t, originAllowed(req, nil))

	req.Header.Set("Origin", "http://api.example.com")
	assert.True(t, originAllowed(req, nil))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, originAllowed(req, nil))
	assert.True(t, originAllowed(req, []string{"https://evil.example"}))
	assert.False(t, originAllowed(req, []string{"https://app.example.com"}))
}
