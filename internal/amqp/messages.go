package amqp

import (
	"encoding/json"
	"time"
)

// EventType names what happened in the tracker.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventBudgetSet          EventType = "budget.set"
)

// Event is a lightweight notification. It carries only what a consumer needs to
// locate the affected month and category; the data itself stays in the database.
type Event struct {
	Type      EventType `json:"type"`
	Month     string    `json:"month"`
	Category  string    `json:"category"`
	TxType    string    `json:"tx_type,omitempty"`
	TxDate    string    `json:"tx_date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionCreatedEvent builds the event published after a transaction insert.
func NewTransactionCreatedEvent(txDate, txType, category string) *Event {
	month := txDate
	if len(month) >= 7 {
		month = month[:7]
	}
	return &Event{
		Type:      EventTransactionCreated,
		Month:     month,
		Category:  category,
		TxType:    txType,
		TxDate:    txDate,
		Timestamp: time.Now(),
	}
}

// NewBudgetSetEvent builds the event published after a budget upsert.
func NewBudgetSetEvent(month, category string) *Event {
	return &Event{
		Type:      EventBudgetSet,
		Month:     month,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes a message body.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
