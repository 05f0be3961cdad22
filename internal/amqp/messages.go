package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReminderMessage is one reminder batch for the worker. Contacts are not
// carried; the worker resolves them from storage at delivery time.
type ReminderMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id,omitempty"`
	Cycle     int       `json:"cycle,omitempty"`
	MemberIDs []string  `json:"member_ids"`
	Channel   string    `json:"channel"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReminderMessage(groupID string, cycle int, memberIDs []string, channel, message string) *ReminderMessage {
	return &ReminderMessage{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Cycle:     cycle,
		MemberIDs: append([]string(nil), memberIDs...),
		Channel:   channel,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
