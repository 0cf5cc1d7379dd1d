package odm

import (
	"context"
)

// DocumentStore is the driver boundary to the external document store. An
// implementation connects to one database and hands out collection bindings;
// everything above this boundary is storage agnostic.
type DocumentStore interface {
	// Collection binds the named logical collection.
	Collection(name string) Collection
}

// Collection is one logical collection of the external store. Raw documents
// cross this boundary as Fields, identical in shape to a Document's fields.
// Implementations must not retain or mutate the Fields they receive, and the
// Fields they return belong to the caller.
//
// Filters are ordered sets of path/value pairs combined with AND; a record
// matches when every filter value equals the record's value at that path.
// The reserved IdentityField key matches the record's identity instead of a
// document field.
type Collection interface {
	// InsertOne stores a new record and returns the identity it was stored
	// under. A write rejected by a unique constraint returns ErrDuplicateKey
	// joined with the native driver error.
	InsertOne(ctx context.Context, doc Fields) (ID, error)

	// ReplaceOne replaces the record with the given identity and returns the
	// number of affected records, zero when no such record exists.
	ReplaceOne(ctx context.Context, id ID, doc Fields) (int64, error)

	// DeleteOne deletes the record with the given identity and returns the
	// number of affected records, zero when no such record exists.
	DeleteOne(ctx context.Context, id ID) (int64, error)

	// Find runs the filter and returns an iterator over the matching records.
	// A nil filter matches everything.
	Find(ctx context.Context, filter Fields) (DocumentIterator, error)

	// Count returns the number of records matching the filter. A nil filter
	// counts everything.
	Count(ctx context.Context, filter Fields) (int64, error)
}

// DocumentIterator walks raw query results one record at a time. Next returns
// the zero ID with a nil error once the results are exhausted. Close releases
// the underlying resources and may be called more than once.
type DocumentIterator interface {
	Next(ctx context.Context) (ID, Fields, error)
	Close() error
}
