// Package ws provides the live update channel: stores and users hold a
// websocket open and receive transaction outcomes and rolling OTP codes
// as they are published.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	subscriberSlot = 16
)

// Hub implements ports.Registry as an in-process fan-out keyed by
// channel id (store or user). Slow subscribers drop messages rather
// than block publishers.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[chan []byte]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHub creates the connection registry.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[chan []byte]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Subscribe registers a listener on a channel. The returned cancel
// function must be called to release the slot.
func (h *Hub) Subscribe(channel string) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberSlot)

	h.mu.Lock()
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[chan []byte]struct{})
		h.channels[channel] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.channels[channel]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.channels, channel)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a message to every listener on a channel.
func (h *Hub) Publish(channel string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.channels[channel] {
		select {
		case ch <- message:
		default:
			// Subscriber is not keeping up; drop instead of blocking.
		}
	}
}

// ServeWS upgrades the request and streams the channel's messages until
// the client disconnects.
func (h *Hub) ServeWS(c *gin.Context, channel string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("channel", channel).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	messages, cancel := h.Subscribe(channel)
	defer cancel()

	// Reader goroutine only notices disconnects; inbound frames are
	// ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
