package core

import "time"

// Collection names a persisted collection.
type Collection string

const (
	CollectionBills  Collection = "bills"
	CollectionIncome Collection = "income"
)

// ChangeOp is the kind of persisted mutation.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
	OpCleared ChangeOp = "cleared"
)

// Change describes a mutation that reached durable storage.
// MonthKey is empty when the affected month is unknown (delete of an absent
// id, clear).
type Change struct {
	Collection Collection `json:"collection"`
	Op         ChangeOp   `json:"op"`
	ID         string     `json:"id,omitempty"`
	MonthKey   MonthKey   `json:"monthKey,omitempty"`
	At         time.Time  `json:"at"`
}
