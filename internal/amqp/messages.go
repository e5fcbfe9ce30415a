package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpenseAction names the write that produced an event.
type ExpenseAction string

const (
	ActionCreated ExpenseAction = "created"
	ActionUpdated ExpenseAction = "updated"
	ActionDeleted ExpenseAction = "deleted"
)

// ExpenseEvent is a lightweight notification that an owner's expenses changed.
// It carries ids only; consumers re-read whatever state they need.
type ExpenseEvent struct {
	OwnerID   string        `json:"owner_id"`
	ExpenseID string        `json:"expense_id"`
	Action    ExpenseAction `json:"action"`
	Date      string        `json:"date,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(ownerID, expenseID string, action ExpenseAction, date string) *ExpenseEvent {
	return &ExpenseEvent{
		OwnerID:   ownerID,
		ExpenseID: expenseID,
		Action:    action,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event and checks it names an owner.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, fmt.Errorf("expense event without owner_id")
	}
	return &msg, nil
}
