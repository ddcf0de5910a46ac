package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Stream is an ordered source of discovered items that must be closed
// exactly once by its owner.
type Stream interface {
	Events() <-chan DiscoveredItem
	Close() error
}

// Backend bundles the request/response and push-channel halves of the
// backend contract behind one value.
type Backend struct {
	HTTP *HTTPClient
	WS   *WSClient
}

// NewBackend builds both clients from the WebSocket URL; the HTTP base is
// derived from it.
func NewBackend(wsURL, token string, timeout time.Duration) *Backend {
	return &Backend{
		HTTP: NewHTTPClient(DeriveHTTPBase(wsURL), token, timeout),
		WS:   NewWSClient(wsURL, token),
	}
}

// CountInstalled returns the number of installed applications.
func (b *Backend) CountInstalled(ctx context.Context) (int, error) {
	return b.HTTP.CountInstalled(ctx)
}

// RunAnalysis triggers a backend analysis and returns its summary.
func (b *Backend) RunAnalysis(ctx context.Context) (AnalysisSummary, error) {
	return b.HTTP.RunAnalysis(ctx)
}

// Subscribe registers on a push channel.
func (b *Backend) Subscribe(ctx context.Context, channel string) (Stream, error) {
	s, err := b.WS.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Health reports the backend host.
func (b *Backend) Health(ctx context.Context) (*Health, error) {
	return b.HTTP.Health(ctx)
}

// DeriveHTTPBase converts ws://host:port/ws → http://host:port
func DeriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
