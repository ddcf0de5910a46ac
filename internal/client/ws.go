package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	closeGrace       = time.Second
	pongTimeout      = 60 * time.Second
	pingInterval     = 30 * time.Second
	eventBuffer      = 64
)

// WSClient opens subscriptions to the backend's push channels.
type WSClient struct {
	url   string
	token string
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url, token string) *WSClient {
	return &WSClient{url: url, token: token}
}

// Subscription is one registered push-channel connection. Events are
// delivered in emission order on Events; the channel is closed when the
// connection ends or Close is called.
type Subscription struct {
	channel string
	conn    *websocket.Conn
	events  chan DiscoveredItem
	done    chan struct{}
	cancel  context.CancelFunc // stops the ping goroutine

	closeOnce sync.Once
	writeMu   sync.Mutex // serialises pings
	lastSeq   uint64
}

// Subscribe dials the push endpoint for channel and blocks until the backend
// acknowledges the registration, so that a request issued after Subscribe
// returns cannot emit events the subscription misses.
func (c *WSClient) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("parse ws url: %w", err)
	}
	q := u.Query()
	q.Set("channel", channel)
	if c.token != "" {
		q.Set("token", c.token)
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial %s channel: %w", channel, err)
	}

	// No write mutex needed here because the connection isn't shared yet.
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("await %s ack: %w", channel, err)
	}
	if ack.Type != MsgSubscribed {
		conn.Close()
		return nil, fmt.Errorf("await %s ack: got %q", channel, ack.Type)
	}
	var p SubscribedPayload
	if err := json.Unmarshal(ack.Payload, &p); err != nil || p.Channel != channel {
		conn.Close()
		return nil, fmt.Errorf("await %s ack: acknowledged %q", channel, p.Channel)
	}

	pingCtx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		channel: channel,
		conn:    conn,
		events:  make(chan DiscoveredItem, eventBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
		lastSeq: ack.Seq,
	}
	go s.readLoop()
	go s.pingLoop(pingCtx)
	return s, nil
}

// Channel returns the subscribed channel name.
func (s *Subscription) Channel() string {
	return s.channel
}

// Events returns the ordered stream of discovered items.
func (s *Subscription) Events() <-chan DiscoveredItem {
	return s.events
}

// Close releases the connection. It is safe to call more than once and
// returns once the socket is closed; pending events are discarded.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		err = s.conn.Close()
	})
	return err
}

func (s *Subscription) readLoop() {
	defer close(s.events)

	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Printf("ws %s read error: %v", s.channel, err)
				s.Close()
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Seq != 0 && s.lastSeq != 0 && msg.Seq != s.lastSeq+1 {
			log.Printf("ws %s: sequence gap %d -> %d", s.channel, s.lastSeq, msg.Seq)
		}
		if msg.Seq != 0 {
			s.lastSeq = msg.Seq
		}

		switch msg.Type {
		case MsgDiscovery:
			var item DiscoveredItem
			if err := json.Unmarshal(msg.Payload, &item); err != nil {
				log.Printf("ws %s: bad discovery payload: %v", s.channel, err)
				continue
			}
			select {
			case s.events <- item:
			case <-s.done:
				return
			}
		case MsgError:
			log.Printf("ws %s: server error: %s", s.channel, string(msg.Payload))
		}
	}
}

// pingLoop sends periodic pings until the context is cancelled or a write
// fails.
func (s *Subscription) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
