package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"myfinance/internal/core"
)

// ChangeMessage is the wire form of a persisted change. The worker reloads
// the affected month from storage, so only the coordinates travel.
type ChangeMessage struct {
	core.Change
	PublishedAt time.Time `json:"publishedAt"`
}

// NewChangeMessage wraps c and stamps the publish time.
func NewChangeMessage(c core.Change) *ChangeMessage {
	return &ChangeMessage{
		Change:      c,
		PublishedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones without a
// collection or operation.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" || msg.Op == "" {
		return nil, errors.New("change message without collection or op")
	}
	return &msg, nil
}
