// Package memoryengine provides an in-memory implementation of the
// odm.DocumentStore boundary.
//
// It is intended for tests, demos, and embedded use where no external
// database is wanted. The store supports everything the boundary requires,
// including unique indexes, and iterates records in insertion order.
//
// Common usage pattern:
//
//	store := memoryengine.NewStore()
//	store.EnsureUniqueIndex("readers", "email")
//
//	repo, err := odm.NewRepository[Reader](store, "readers")
package memoryengine
