package ws

import (
	"encoding/json"
	"sync"

	"github.com/grigolet/gangle/internal/game"
	"github.com/grigolet/gangle/internal/service"
	"go.uber.org/zap"
)

type Hub struct {
	svc service.GameService
	log *zap.Logger

	mu            sync.RWMutex
	clientsByChat map[int64]map[int64]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan chatMessage
}

type chatMessage struct {
	chatID int64
	data   []byte
}

func NewHub(svc service.GameService, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		svc:           svc,
		log:           log,
		clientsByChat: make(map[int64]map[int64]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan chatMessage, 256),
	}
	go h.run()
	return h
}

// RoundStarted and RoundResolved fan lifecycle events out to every client in
// the chat. The angle appears only in the resolved payload.
func (h *Hub) RoundStarted(chatID int64, status game.RoundStatus) {
	h.Broadcast(chatID, Envelope{Type: "round_started", Payload: status})
}

func (h *Hub) RoundResolved(chatID int64, results *game.Results) {
	h.Broadcast(chatID, Envelope{Type: "round_resolved", Payload: results})
}

func (h *Hub) Broadcast(chatID int64, env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Error("ws broadcast marshal failed", zap.Error(err))
		return
	}
	h.broadcast <- chatMessage{chatID: chatID, data: b}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.clientsByChat[c.chatID]; !ok {
				h.clientsByChat[c.chatID] = make(map[int64]*Client)
			}
			h.clientsByChat[c.chatID][c.userID] = c
			h.mu.Unlock()

			h.log.Info("ws client registered",
				zap.Int64("chat_id", c.chatID),
				zap.Int64("user_id", c.userID),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if chatClients, ok := h.clientsByChat[c.chatID]; ok {
				if _, exists := chatClients[c.userID]; exists {
					delete(chatClients, c.userID)
					close(c.send)
				}
				if len(chatClients) == 0 {
					delete(h.clientsByChat, c.chatID)
				}
			}
			h.mu.Unlock()

			h.log.Info("ws client unregistered",
				zap.Int64("chat_id", c.chatID),
				zap.Int64("user_id", c.userID),
			)

		case msg := <-h.broadcast:
			// Slow clients are dropped inline; run() is the only reader
			// of h.unregister, so routing them through it would block
			// the hub on itself.
			var slow []*Client
			h.mu.RLock()
			for _, c := range h.clientsByChat[msg.chatID] {
				select {
				case c.send <- msg.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()

			for _, c := range slow {
				h.drop(c)
			}
		}
	}
}

// drop removes a client from its chat and closes its send channel. Safe to
// call for a client that was already dropped.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	chatClients, ok := h.clientsByChat[c.chatID]
	if !ok {
		return
	}
	if _, exists := chatClients[c.userID]; !exists {
		return
	}
	delete(chatClients, c.userID)
	close(c.send)
	if len(chatClients) == 0 {
		delete(h.clientsByChat, c.chatID)
	}

	h.log.Info("ws client dropped",
		zap.Int64("chat_id", c.chatID),
		zap.Int64("user_id", c.userID),
	)
}
