package odm

import (
	"errors"
)

// Validation and constraint failures. Both carry detail beside the sentinel:
// a validation failure leaves the document's ErrorCollector populated, a
// duplicate key is joined with the native driver error.
var (
	ErrValidationFailed = errors.New("document validation failed")
	ErrDuplicateKey     = errors.New("unique constraint violated, document was not written")
)

// Precondition violations. These indicate that an operation was called on a
// document in the wrong lifecycle state and are always returned to the caller.
var (
	ErrMissingIdentity  = errors.New("document has no identity")
	ErrAlreadyPersisted = errors.New("document is already persisted")
	ErrNotPersisted     = errors.New("document is not persisted")
	ErrAlreadyRemoved   = errors.New("document is already removed")
)

// ErrObserverFailed is joined with the causing error when an observer hook
// aborts an operation.
var ErrObserverFailed = errors.New("observer hook failed")

// Store failures. Each is joined with the underlying driver error so that
// callers can match the sentinel with errors.Is and still inspect the cause.
var (
	ErrInsertingDocumentFailed   = errors.New("inserting document failed")
	ErrReplacingDocumentFailed   = errors.New("replacing document failed")
	ErrRemovingDocumentFailed    = errors.New("removing document failed")
	ErrQueryingDocumentsFailed   = errors.New("querying documents failed")
	ErrCountingDocumentsFailed   = errors.New("counting documents failed")
	ErrDecodingDocumentFailed    = errors.New("decoding document from raw record failed")
	ErrBuildingQueryFailed       = errors.New("building query failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
)

// ErrStaleDocument is returned when a replace or delete affected no stored
// record, typically because it was removed by someone else in the meantime.
var ErrStaleDocument = errors.New("stale document, no rows were affected")

var (
	ErrEmptyCollectionNameSupplied = errors.New("empty collection name supplied")
	ErrNilDocumentStoreSupplied    = errors.New("nil document store supplied")
	ErrNilDatabaseConnection       = errors.New("nil database connection supplied")
)
