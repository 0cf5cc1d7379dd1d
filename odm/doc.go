// Package odm provides an object-document mapping layer that binds typed
// in-memory documents to a schemaless document store.
//
// This package defines the fundamental types used across different storage
// engine implementations: documents with ordered, dynamically typed fields,
// a declarative validation engine, lifecycle observers, and a generic
// repository mediating every persistence operation.
//
// Application document types embed Document and optionally implement
// Validatable for validation and any of the observer interfaces for
// lifecycle hooks:
//   - Document: ordered fields, identity, and lifecycle state
//   - Value: tagged variant over the types a field can hold
//   - Expectation: evaluates validation checks into an ErrorCollector
//   - ObserverRegistry: ordered lifecycle hooks around write operations
//   - Repository: insert, update, remove, find, and count for one collection
//   - DocumentStore: the driver boundary a storage engine implements
//
// Common usage pattern:
//
//	type Reader struct {
//		odm.Document
//	}
//
//	func (r *Reader) Validate(e *odm.Expectation) {
//		e.Present("name", r.Get("name"), "can't be empty")
//		e.Present("email", r.Get("email"), "can't be empty")
//	}
//
//	repo, err := odm.NewRepository[Reader](store, "readers")
//	if err != nil {
//		// handle error
//	}
//
//	reader := &Reader{}
//	reader.Set("name", odm.StringValue("Ann Reader"))
//	reader.Set("email", odm.StringValue("ann@example.com"))
//
//	if err = repo.Insert(ctx, reader); err != nil {
//		if errors.Is(err, odm.ErrValidationFailed) {
//			fmt.Println(reader.Errors().FullMessages())
//		}
//		// handle other errors
//	}
//
//	found, err := repo.FindOne(ctx, odm.Fields{odm.F("email", odm.StringValue("ann@example.com"))})
package odm
