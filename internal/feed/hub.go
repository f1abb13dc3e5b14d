// Package feed broadcasts generated events to websocket subscribers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"collider-lab/internal/domain"
)

const (
	// DefaultPublishTimeout bounds how long Publish waits for queue space.
	DefaultPublishTimeout = 100 * time.Millisecond

	clientBuffer  = 64
	queueSize     = 256
	writeDeadline = 10 * time.Second
)

var (
	// ErrQueueFull is returned when Publish times out waiting for queue space.
	ErrQueueFull = errors.New("feed queue full")

	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("feed closed")
)

// Observer is notified of subscriber changes. Implemented by observability.Metrics.
type Observer interface {
	SetFeedSubscribers(n int)
	RecordFeedDrop()
}

// Message is the JSON document sent to subscribers for every record.
type Message struct {
	EventID      string  `json:"event_id"`
	RunID        string  `json:"run_id,omitempty"`
	ID1          int     `json:"id_1"`
	ID2          int     `json:"id_2"`
	BeamEnergy   float64 `json:"energy"`
	SqrtS        float64 `json:"sqrt_s"`
	Channel      string  `json:"channel"`
	Status       string  `json:"status"`
	FailureStage string  `json:"failure_stage,omitempty"`
	Products     []int   `json:"products"`
	Seed         [2]int  `json:"seed"`
	Attempts     int     `json:"attempts"`
}

// MessageFromRecord converts a persisted record into a feed message.
func MessageFromRecord(r *domain.EventRecord) Message {
	products := r.Products
	if products == nil {
		products = []int{}
	}
	return Message{
		EventID:      r.EventID,
		RunID:        r.RunID,
		ID1:          r.ID1,
		ID2:          r.ID2,
		BeamEnergy:   r.BeamEnergy,
		SqrtS:        r.SqrtS,
		Channel:      string(r.Channel),
		Status:       string(r.Status),
		FailureStage: string(r.FailureStage),
		Products:     products,
		Seed:         [2]int{r.SeedID1, r.SeedID2},
		Attempts:     r.Attempts,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans published records out to every connected subscriber.
// Subscribers that fall behind are disconnected.
type Hub struct {
	logger         *zap.Logger
	observer       Observer
	upgrader       websocket.Upgrader
	publishTimeout time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}

	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Options for creating Hub.
type Options struct {
	Logger         *zap.Logger
	Observer       Observer
	PublishTimeout time.Duration
	CheckOrigin    func(r *http.Request) bool
}

// NewHub creates a hub and starts its broadcaster.
func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	h := &Hub{
		logger:         logger.Named("feed"),
		observer:       opts.Observer,
		publishTimeout: timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		clients:   make(map[*client]struct{}),
		broadcast: make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}

	h.wg.Add(1)
	go h.run()
	return h
}

// ServeHTTP upgrades the request and subscribes the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", zap.Error(err))
		return
	}
	h.add(conn)
}

// Publish queues a record for broadcast. It waits at most the publish timeout.
func (h *Hub) Publish(ctx context.Context, r *domain.EventRecord) error {
	data, err := json.Marshal(MessageFromRecord(r))
	if err != nil {
		return fmt.Errorf("encode feed message: %w", err)
	}

	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	timer := time.NewTimer(h.publishTimeout)
	defer timer.Stop()

	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrQueueFull
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and stops the broadcaster.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		for c := range h.clients {
			h.detachLocked(c)
		}
		h.mu.Unlock()
		h.notify()
	})
	return nil
}

func (h *Hub) add(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		conn.Close()
		return
	default:
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.notify()

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.broadcast:
			var slow []*client
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()

			for _, c := range slow {
				if h.remove(c) && h.observer != nil {
					h.observer.RecordFeedDrop()
				}
			}
		}
	}
}

// writeLoop drains the client queue until it is closed or a write fails.
func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("write failed", zap.Error(err))
			h.remove(c)
			return
		}
	}
}

// readLoop discards inbound frames and detects disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) bool {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		h.detachLocked(c)
	}
	h.mu.Unlock()
	if ok {
		h.notify()
	}
	return ok
}

func (h *Hub) detachLocked(c *client) {
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
}

func (h *Hub) notify() {
	if h.observer != nil {
		h.observer.SetFeedSubscribers(h.Len())
	}
}
