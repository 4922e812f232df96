package entity

import (
	"time"
)

// EventType classifies a marketplace event
type EventType string

const (
	EventMint     EventType = "mint"
	EventSale     EventType = "sale"
	EventTransfer EventType = "transfer"
)

// NFTEvent represents an immutable marketplace event from the event store.
// Events are append-only and keyed by transaction hash; this pipeline never
// mutates them.
type NFTEvent struct {
	TxHash          string    `json:"tx_hash"`
	EventType       EventType `json:"event_type"`
	ContractAddress string    `json:"contract_address"`
	TokenID         string    `json:"token_id"`
	Amount          float64   `json:"amount"`
	Price           float64   `json:"price"` // 0 when unknown
	FromAddress     string    `json:"from_address"`
	ToAddress       string    `json:"to_address"`
	Timestamp       time.Time `json:"timestamp"`
}

// Valid reports whether the event passes the persistence-side checks this
// pipeline relies on. Sale events must carry a positive price; a non-positive
// price is a writer bug, not a zero-volume sale.
func (e *NFTEvent) Valid() bool {
	if e.TxHash == "" || e.ToAddress == "" {
		return false
	}
	if e.EventType == EventSale && e.Price <= 0 {
		return false
	}
	return true
}

// CommitNotice is published by the event writer after its transaction
// commits. The pipeline consumes these to invalidate snapshot cache keys,
// making the write path -> cache dependency explicit.
type CommitNotice struct {
	EventType       EventType `json:"event_type"`
	ContractAddress string    `json:"contract_address"`
	TxHash          string    `json:"tx_hash"`
	CommittedAt     time.Time `json:"committed_at"`
}
