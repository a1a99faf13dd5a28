package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"school-inventory/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDoesNotBlockWithoutRunLoop(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Publish("request.status_changed", map[string]int{"n": i})
	}
	assert.Len(t, hub.Broadcast, broadcastBuffer)
}

func TestServeWsDeliversEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("ws-secret")
	hub := NewHub(nil)
	go hub.Run()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret) })
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role:             "staff",
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.New().String()},
	}).SignedString(secret)
	require.NoError(t, err)

	conn, _, err := gorilla.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish("stock.updated", map[string]int{"quantity": 7})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "stock.updated", event.Event)
}
