package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the watcher to re-render charts. An empty Chart
// means every configured chart.
type RefreshMessage struct {
	Chart     string    `json:"chart"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage creates a refresh request for one chart title, or all
// charts when title is empty.
func NewRefreshMessage(title string) *RefreshMessage {
	return &RefreshMessage{
		Chart:     title,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON creates a message from JSON bytes
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
