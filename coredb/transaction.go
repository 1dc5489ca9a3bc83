package coredb

import "github.com/google/uuid"

// TransactionID identifies a single transaction for the lifetime of the
// process. Every thread pulling from an operator tree does so on behalf of
// exactly one TransactionID.
type TransactionID uuid.UUID

// NewTID mints a fresh transaction identifier.
func NewTID() TransactionID {
	return TransactionID(uuid.New())
}

func (t TransactionID) String() string {
	return uuid.UUID(t).String()
}
