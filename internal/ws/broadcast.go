package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/netphils/cefdetector-standalone/internal/fixture"
)

// ErrTooManyConnections is returned by AddClient when the limit is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

type client struct {
	conn    *websocket.Conn
	b       *Broadcaster
	channel string
	send    chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// Broadcaster fans discovery events out to every subscribed client. Each
// client first receives a subscribed acknowledgement, then the events in
// publication order.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	maxConns int
	seq      uint64
	stopped  bool
}

// NewBroadcaster creates a broadcaster. maxConns <= 0 means unlimited.
func NewBroadcaster(maxConns int) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
	}
}

// AddClient registers conn on channel and queues the acknowledgement.
func (b *Broadcaster) AddClient(conn *websocket.Conn, channel string) (*client, error) {
	ack, err := json.Marshal(WSMessage{
		Type:    MsgSubscribed,
		Payload: SubscribedPayload{Channel: channel},
	})
	if err != nil {
		return nil, err
	}

	c := &client{
		conn:    conn,
		b:       b,
		channel: channel,
		send:    make(chan []byte, 64),
	}
	c.send <- ack

	b.mu.Lock()
	if b.stopped || (b.maxConns > 0 && len(b.clients) >= b.maxConns) {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	b.clients[c] = true
	b.mu.Unlock()

	go c.writePump()
	return c, nil
}

// RemoveClient unregisters c and closes its connection once pending
// writes are flushed. Safe to call more than once.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

// PublishDiscovery sends item to every client on the discovery channel.
func (b *Broadcaster) PublishDiscovery(item fixture.Item) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	b.broadcast(ChannelDiscovery, WSMessage{
		Type:    MsgDiscovery,
		Seq:     seq,
		Payload: item,
	})
}

func (b *Broadcaster) broadcast(channel string, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		if c.channel == channel {
			clients = append(clients, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !b.trySend(c, data) {
			log.Printf("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// trySend queues data without blocking. It reports false when the client's
// buffer is full.
func (b *Broadcaster) trySend(c *client, data []byte) (ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.clients[c] {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Stop disconnects every client and refuses new ones.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	b.stopped = true
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
