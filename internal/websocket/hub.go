package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"course-notes-admin/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "draft_progress"

// Hub fans progress messages out to every connection watching a draft.
type Hub struct {
	// Registered clients: DraftId -> connections (several tabs may watch one draft)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance communication; nil for a single instance.
	rdb        *redis.Client
	instanceId string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceId: uuid.New().String(),
		logger:     log,
	}
}

// Run owns registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.DraftId] = append(h.clients[client.DraftId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"draft_id": client.DraftId})

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.DraftId]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.DraftId] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.DraftId]) == 0 {
		delete(h.clients, client.DraftId)
		h.logger.Info("Hub", "Draft has no more watchers", map[string]interface{}{"draft_id": client.DraftId})
	}
}

// Send delivers data to local watchers of draftId and, with Redis, to the
// watchers connected to other instances.
func (h *Hub) Send(draftId string, data []byte) {
	h.deliverLocal(draftId, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"origin":   h.instanceId,
			"draft_id": draftId,
			"message":  json.RawMessage(data),
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Watchers reports how many local connections follow draftId.
func (h *Hub) Watchers(draftId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[draftId])
}

func (h *Hub) deliverLocal(draftId string, data []byte) {
	// Hold the read lock while sending so removeClient cannot close a channel under us.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[draftId] {
		select {
		case client.Send <- data:
		default:
			// Slow reader: a newer frame will follow, drop this one.
			h.logger.Warn("Hub", "Client Send buffer full, dropping progress frame", map[string]interface{}{"draft_id": draftId})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload struct {
				Origin  string          `json:"origin"`
				DraftId string          `json:"draft_id"`
				Message json.RawMessage `json:"message"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceId {
				continue
			}
			h.deliverLocal(payload.DraftId, payload.Message)
		}
	}
}
