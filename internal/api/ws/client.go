package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client wraps one dashboard websocket connection. Grounded on the teacher's
// internal/api/websocket/client.go read/write pumps, minus the
// UserID/WorkspaceID fields it registered itself under — this client tracks
// only which executions it is subscribed to.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	subs map[uuid.UUID]bool
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 64),
		subs: make(map[uuid.UUID]bool),
	}
}

// subscribeRequest is the only inbound message shape a dashboard client may
// send: a request to watch or stop watching one execution.
type subscribeRequest struct {
	Action      string    `json:"action"` // "subscribe" or "unsubscribe"
	ExecutionID uuid.UUID `json:"executionId"`
}

func (c *Client) addSubscription(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[id] = true
}

func (c *Client) removeSubscription(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

func (c *Client) subscriptions() map[uuid.UUID]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uuid.UUID]bool, len(c.subs))
	for id := range c.subs {
		out[id] = true
	}
	return out
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("dashboard websocket read error")
			}
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		switch req.Action {
		case "subscribe":
			c.hub.Subscribe(c, req.ExecutionID)
		case "unsubscribe":
			c.hub.Unsubscribe(c, req.ExecutionID)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
