// Package ws implements the CRUD layer's live dashboard feed: a
// gorilla/websocket hub clients subscribe to for a given execution's
// progress. Grounded on the teacher's internal/api/websocket/hub.go and
// client.go, narrowed from its user/workspace-scoped broadcast rooms down to
// per-execution subscription rooms (there is no user/workspace model left to
// scope by) and wired directly onto progress.Bus instead of a handler
// manually calling BroadcastToExecution. This is NOT how the scheduler
// itself reports progress — it only serves an optional live view on top of
// the same Progress Bus the SSE endpoint reads from.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans out Progress Bus snapshots to dashboard clients subscribed to a
// given execution. Unlike progress.Bus, which forgets subscribers have no
// notion of sockets, Hub owns the websocket connections themselves.
type Hub struct {
	bus *progress.Bus

	mu        sync.Mutex
	execConns map[uuid.UUID]map[*Client]bool
	busTokens map[uuid.UUID]int
}

func NewHub(bus *progress.Bus) *Hub {
	return &Hub{
		bus:       bus,
		execConns: make(map[uuid.UUID]map[*Client]bool),
		busTokens: make(map[uuid.UUID]int),
	}
}

// Subscribe adds client to executionID's room, wiring a Bus subscription the
// first time anyone asks for that execution.
func (h *Hub) Subscribe(client *Client, executionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.execConns[executionID]; !ok {
		h.execConns[executionID] = make(map[*Client]bool)
		h.busTokens[executionID] = h.bus.Subscribe(executionID, func(p models.ExecutionProgress) {
			h.broadcast(executionID, p)
		})
	}
	h.execConns[executionID][client] = true
	client.addSubscription(executionID)
}

func (h *Hub) Unsubscribe(client *Client, executionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client, executionID)
	client.removeSubscription(executionID)
}

// Disconnect drops a client from every room it was subscribed to. Called
// once, from the client's read pump, when the socket closes.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for executionID := range client.subscriptions() {
		h.removeLocked(client, executionID)
	}
}

func (h *Hub) removeLocked(client *Client, executionID uuid.UUID) {
	conns, ok := h.execConns[executionID]
	if !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.execConns, executionID)
		h.bus.Unsubscribe(executionID, h.busTokens[executionID])
		delete(h.busTokens, executionID)
	}
}

func (h *Hub) broadcast(executionID uuid.UUID, p models.ExecutionProgress) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}

	h.mu.Lock()
	conns := make([]*Client, 0, len(h.execConns[executionID]))
	for c := range h.execConns[executionID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("executionId", executionID.String()).Msg("dashboard client send buffer full, dropping")
		}
	}
}
