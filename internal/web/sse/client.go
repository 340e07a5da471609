package sse

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client represents a connected SSE client
type Client struct {
	id          string
	viewerID    string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(viewerID string) *Client {
	return &Client{
		id:          uuid.NewString(),
		viewerID:    viewerID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// ServeSSE streams a hub's events to one connection until it closes.
// onConnect runs once the client is registered, so an initial state
// pushed from it reaches this connection.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, viewerID string, onConnect func()) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(viewerID)
	hub.Register(client)
	defer hub.Unregister(client)

	_, _ = w.Write(formatSSEMessage("connected", `{"client":"`+client.id+`"}`))
	flusher.Flush()

	if onConnect != nil {
		onConnect()
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
