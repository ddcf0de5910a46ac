// Package client provides the HTTP and WebSocket clients for the detection
// backend. Types mirror the backend wire protocol without importing backend
// packages.
package client

import "encoding/json"

// ChannelDiscovery is the push channel carrying one DiscoveredItem per
// detected browser runtime.
const ChannelDiscovery = "discovery"

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSubscribed MessageType = "subscribed"
	MsgDiscovery  MessageType = "discovery"
	MsgError      MessageType = "error"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribedPayload acknowledges a channel registration.
type SubscribedPayload struct {
	Channel string `json:"channel"`
}

// DiscoveredItem is one streamed discovery event. Icon is an opaque
// resource locator (usually a data: URI) and may be empty.
type DiscoveredItem struct {
	DisplayName string `json:"displayName"`
	BrowserType string `json:"browserType"`
	SizeBytes   uint64 `json:"size"`
	Icon        string `json:"icon"`
}

// AnalysisSummary is the terminal result of an analysis run. Count is the
// backend's own total and is not derived from the streamed items.
type AnalysisSummary struct {
	Count     int    `json:"count"`
	SizeBytes uint64 `json:"size"`
}

// countResponse is returned by /api/installed/count.
type countResponse struct {
	Count int `json:"count"`
}

// Health is returned by /api/health.
type Health struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	KernelArch      string `json:"kernelArch"`
	UptimeSec       uint64 `json:"uptimeSec"`
}
