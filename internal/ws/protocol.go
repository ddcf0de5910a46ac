package ws

// ChannelDiscovery is the only push channel the backend serves.
const ChannelDiscovery = "discovery"

type MessageType string

const (
	MsgSubscribed MessageType = "subscribed"
	MsgDiscovery  MessageType = "discovery"
	MsgError      MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq,omitempty"`
	Payload interface{} `json:"payload"`
}

type SubscribedPayload struct {
	Channel string `json:"channel"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type CountPayload struct {
	Count int `json:"count"`
}

type HealthPayload struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	KernelArch      string `json:"kernelArch"`
	UptimeSec       uint64 `json:"uptimeSec"`
}
