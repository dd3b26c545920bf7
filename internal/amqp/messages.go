package amqp

import (
	"encoding/json"
	"time"
)

// EventType names a ledger change.
type EventType string

const (
	EventCreated  EventType = "transaction.created"
	EventDeleted  EventType = "transaction.deleted"
	EventImported EventType = "transaction.imported"
)

// LedgerEvent announces a change to the local ledger. It carries no record
// data; consumers re-read the ledger.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Count         int       `json:"count,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(t EventType, id string) LedgerEvent {
	return LedgerEvent{Type: t, TransactionID: id, Timestamp: time.Now()}
}

// NewImportEvent reports a bulk import of n records.
func NewImportEvent(n int) LedgerEvent {
	return LedgerEvent{Type: EventImported, Count: n, Timestamp: time.Now()}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}
