package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"happymeter/internal/loyalty"
	"happymeter/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastIsScopedToProgram(t *testing.T) {
	hub := NewHub()
	a := NewClient(1, 10)
	b := NewClient(2, 20)
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastToProgram(1, map[string]string{"hello": "one"})

	select {
	case msg := <-a.Send:
		assert.JSONEq(t, `{"hello":"one"}`, string(msg))
	default:
		t.Fatal("program 1 client got nothing")
	}
	assert.Empty(t, b.Send)

	a.Close()
	a.Close()
	assert.Zero(t, hub.ClientCount(1))
	assert.Equal(t, 1, hub.ClientCount(2))

	// broadcasting to a closed client must not panic
	hub.BroadcastToProgram(1, "x")
}

func TestSlowClientDropsMessages(t *testing.T) {
	hub := NewHub()
	c := &Client{ProgramID: 1, Send: make(chan []byte, 1)}
	hub.Register(c)
	hub.BroadcastToProgram(1, 1)
	hub.BroadcastToProgram(1, 2)
	assert.Len(t, c.Send, 1)
}

func TestFeedSocketReceivesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	router := gin.New()
	router.GET("/feed", func(c *gin.Context) {
		c.Set("owner_id", uint(3))
		c.Set("program", &models.LoyaltyProgram{ID: 7, OwnerID: 3})
	}, UpgradeFeedWS(hub))

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(7) == 1 }, time.Second, 10*time.Millisecond)

	tier := uint(4)
	hub.BroadcastToProgram(7, NewFeedMessage(5, "VISIT", &loyalty.Result{EventID: 9, NewTierID: &tier}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg FeedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageLoyaltyEvent, msg.Type)
	assert.Equal(t, uint(9), msg.EventID)
	assert.Equal(t, uint(5), msg.CustomerID)
	require.NotNil(t, msg.NewTierID)
	assert.Equal(t, tier, *msg.NewTierID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}
