package fixtures

import (
	"context"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// RecordingStore wraps a document store and records every raw store call in
// a CallLog, so tests can assert that store writes happen between the before
// and after hooks.
type RecordingStore struct {
	inner odm.DocumentStore
	log   *CallLog
}

// NewRecordingStore wraps the given store.
func NewRecordingStore(inner odm.DocumentStore, log *CallLog) *RecordingStore {
	return &RecordingStore{inner: inner, log: log}
}

func (s *RecordingStore) Collection(name string) odm.Collection {
	return recordingCollection{inner: s.inner.Collection(name), log: s.log}
}

type recordingCollection struct {
	inner odm.Collection
	log   *CallLog
}

func (c recordingCollection) InsertOne(ctx context.Context, doc odm.Fields) (odm.ID, error) {
	c.log.Append("store.insert_one")
	return c.inner.InsertOne(ctx, doc)
}

func (c recordingCollection) ReplaceOne(ctx context.Context, id odm.ID, doc odm.Fields) (int64, error) {
	c.log.Append("store.replace_one")
	return c.inner.ReplaceOne(ctx, id, doc)
}

func (c recordingCollection) DeleteOne(ctx context.Context, id odm.ID) (int64, error) {
	c.log.Append("store.delete_one")
	return c.inner.DeleteOne(ctx, id)
}

func (c recordingCollection) Find(ctx context.Context, filter odm.Fields) (odm.DocumentIterator, error) {
	c.log.Append("store.find")
	return c.inner.Find(ctx, filter)
}

func (c recordingCollection) Count(ctx context.Context, filter odm.Fields) (int64, error) {
	c.log.Append("store.count")
	return c.inner.Count(ctx, filter)
}
