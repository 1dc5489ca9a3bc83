package coredb

// Error taxonomy for the engine. Kinds are distinguished by errs.Class
// membership rather than string matching, so callers can branch with
// DbErrorClass.Has(err) etc.

import "github.com/zeebo/errs"

var (
	// DbErrorClass covers logical storage failures: page out of range,
	// invalid slot, descriptor mismatch, eviction impossible.
	DbErrorClass = errs.Class("db")

	// TransactionAbortedClass covers deadlock victims and caller-requested
	// aborts. Receiving this error means the transaction must stop work
	// and call BufferPool.TransactionComplete(tid, false).
	TransactionAbortedClass = errs.Class("transaction aborted")

	// IoErrorClass covers underlying file/log I/O faults.
	IoErrorClass = errs.Class("io")

	// UnsupportedOperationClass covers operations the data types involved
	// cannot support, e.g. LIKE on an int field, MIN on a string column.
	UnsupportedOperationClass = errs.Class("unsupported operation")
)
