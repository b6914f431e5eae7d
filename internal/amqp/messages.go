package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change operations carried by ExpenseChangedMessage.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
	OpResync  = "resync"
)

// ExpenseChangedMessage announces that the stored expense list changed. It
// carries no expense data, consumers reload the list from the store.
type ExpenseChangedMessage struct {
	Op        string    `json:"op"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedMessage(op, expenseID string) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Op:        op,
		ExpenseID: expenseID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON decodes and validates a message body
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted, OpResync:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
