package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fincontrol/internal/store"
)

// ChangeMessage announces that a collection changed. It carries no record
// data; consumers read the store for the current state.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	ID         int64     `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(ch store.Change) *ChangeMessage {
	ts := ch.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &ChangeMessage{
		Collection: string(ch.Collection),
		Operation:  string(ch.Operation),
		ID:         ch.ID,
		Timestamp:  ts,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones without a
// collection.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" {
		return nil, fmt.Errorf("change message without collection")
	}
	return &msg, nil
}

// Change converts the message back to a store change.
func (m *ChangeMessage) Change() store.Change {
	return store.Change{
		Collection: store.Collection(m.Collection),
		Operation:  store.Operation(m.Operation),
		ID:         m.ID,
		At:         m.Timestamp,
	}
}
