package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// Message is the envelope of every frame pushed to subscribers
type Message struct {
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"updated_at"`
	Data      any       `json:"data"`
}

// ClientCounter tracks connected subscribers (metrics hook)
type ClientCounter interface {
	IncrementStreamClients()
	DecrementStreamClients()
}

// Hub fans watchlist updates out to websocket clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	checker  *OriginChecker
	snapshot func() any
	counter  ClientCounter
	logger   *slog.Logger

	dropped atomic.Uint64
}

// Option configures a Hub
type Option func(*Hub)

// WithAllowedOrigins restricts browser origins; empty allows all
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) { h.checker = NewOriginChecker(origins) }
}

// WithSnapshot sets the message sent to each client right after it connects
func WithSnapshot(fn func() any) Option {
	return func(h *Hub) { h.snapshot = fn }
}

// WithClientCounter sets the subscriber gauge
func WithClientCounter(c ClientCounter) Option {
	return func(h *Hub) { h.counter = c }
}

// NewHub creates a hub; call Run before serving clients
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		checker:    NewOriginChecker(nil),
		logger:     slog.Default().With("module", "stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes registrations and broadcasts until ctx is cancelled.
// All remaining clients are disconnected on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
			h.leave()
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			if h.counter != nil {
				h.counter.IncrementStreamClients()
			}
			h.logger.Info("Client connected", "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.leave()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client disconnected", "clients", n)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	if len(slow) == 0 {
		return
	}

	h.mu.Lock()
	for _, client := range slow {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
			h.leave()
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Warn("Removed slow clients", "removed", len(slow), "clients", n)
}

// leave must be called with mu held
func (h *Hub) leave() {
	if h.counter != nil {
		h.counter.DecrementStreamClients()
	}
}

// Broadcast encodes message and queues it for every client.
// The message is dropped when the queue is full or the hub has stopped.
func (h *Hub) Broadcast(message any) {
	data, err := encode(message)
	if err != nil {
		h.logger.Error("Error marshaling broadcast message", slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// PublishWatchlist broadcasts a watchlist frame
func (h *Hub) PublishWatchlist(data any) {
	h.Broadcast(&Message{Type: "watchlist", UpdatedAt: time.Now().UTC(), Data: data})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages returns how many broadcasts were discarded
func (h *Hub) DroppedMessages() uint64 {
	return h.dropped.Load()
}

func encode(message any) ([]byte, error) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer jsonBufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		return nil, err
	}

	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
