package amqp

import (
	"encoding/json"
	"time"
)

// Change actions mirror the store mutations.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeMessage is the coarse "something changed" notification published
// after every successful closing mutation. The fields are informational
// only: consumers must re-fetch rather than patch from the payload, and no
// ordering or delivery guarantee exists beyond the broker's.
type ChangeMessage struct {
	Action    string    `json:"action"`
	RecordID  string    `json:"recordId"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change notification for one mutated record.
func NewChangeMessage(action, recordID, date string) *ChangeMessage {
	return &ChangeMessage{
		Action:    action,
		RecordID:  recordID,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
