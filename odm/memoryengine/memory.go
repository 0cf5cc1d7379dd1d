package memoryengine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// Store is an in-memory implementation of odm.DocumentStore. It is safe for
// concurrent use, and documents are deep-copied on the way in and out, so
// callers never share memory with the store.
//
// Records iterate in insertion order. Unique indexes registered with
// EnsureUniqueIndex reject duplicate values the same way a database unique
// constraint would.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

type bucket struct {
	order        []odm.ID
	records      map[odm.ID]odm.Fields
	uniqueFields []string
	indexes      map[string]map[string]odm.ID
}

type boundCollection struct {
	store *Store
	name  string
}

type snapshotIterator struct {
	ids     []odm.ID
	records []odm.Fields
	pos     int
}

var (
	_ odm.DocumentStore    = (*Store)(nil)
	_ odm.Collection       = boundCollection{}
	_ odm.DocumentIterator = (*snapshotIterator)(nil)
)

// NewStore creates an empty in-memory document store.
func NewStore() *Store {
	return &Store{buckets: make(map[string]*bucket)}
}

// Collection implements odm.DocumentStore. The underlying collection is
// created on first write.
func (s *Store) Collection(name string) odm.Collection {
	return boundCollection{store: s, name: name}
}

// EnsureUniqueIndex registers a unique index on one field path of the named
// collection. Writes violating the index return odm.ErrDuplicateKey. Records
// whose value at the path is null are not indexed. Call this during
// initialization, before the collection receives writes.
func (s *Store) EnsureUniqueIndex(collection string, fieldPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucketFor(collection)
	for _, existing := range b.uniqueFields {
		if existing == fieldPath {
			return
		}
	}

	b.uniqueFields = append(b.uniqueFields, fieldPath)
	b.indexes[fieldPath] = make(map[string]odm.ID)
}

// bucketFor returns the named bucket, creating it on first use.
// The caller must hold the write lock.
func (s *Store) bucketFor(name string) *bucket {
	b, ok := s.buckets[name]
	if !ok {
		b = &bucket{
			records: make(map[odm.ID]odm.Fields),
			indexes: make(map[string]map[string]odm.ID),
		}
		s.buckets[name] = b
	}

	return b
}

func (c boundCollection) InsertOne(ctx context.Context, doc odm.Fields) (odm.ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.store.bucketFor(c.name)
	id := odm.NewID()

	if err := b.claimUniqueValues(id, doc); err != nil {
		return "", err
	}

	b.records[id] = doc.Clone()
	b.order = append(b.order, id)

	return id, nil
}

func (c boundCollection) ReplaceOne(ctx context.Context, id odm.ID, doc odm.Fields) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.store.bucketFor(c.name)
	old, exists := b.records[id]
	if !exists {
		return 0, nil
	}

	b.releaseUniqueValues(id, old)
	if err := b.claimUniqueValues(id, doc); err != nil {
		b.mustClaimUniqueValues(id, old)
		return 0, err
	}

	b.records[id] = doc.Clone()

	return 1, nil
}

func (c boundCollection) DeleteOne(ctx context.Context, id odm.ID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	b := c.store.bucketFor(c.name)
	old, exists := b.records[id]
	if !exists {
		return 0, nil
	}

	b.releaseUniqueValues(id, old)
	delete(b.records, id)

	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}

	return 1, nil
}

// Find snapshots the matching records under the read lock, so the returned
// iterator is unaffected by later writes.
func (c boundCollection) Find(ctx context.Context, filter odm.Fields) (odm.DocumentIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	iter := &snapshotIterator{}

	b, ok := c.store.buckets[c.name]
	if !ok {
		return iter, nil
	}

	for _, id := range b.order {
		record := b.records[id]
		if !matches(id, record, filter) {
			continue
		}
		iter.ids = append(iter.ids, id)
		iter.records = append(iter.records, record.Clone())
	}

	return iter, nil
}

func (c boundCollection) Count(ctx context.Context, filter odm.Fields) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	b, ok := c.store.buckets[c.name]
	if !ok {
		return 0, nil
	}

	var count int64
	for _, id := range b.order {
		if matches(id, b.records[id], filter) {
			count++
		}
	}

	return count, nil
}

func (it *snapshotIterator) Next(ctx context.Context) (odm.ID, odm.Fields, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	if it.pos >= len(it.ids) {
		return "", nil, nil
	}

	id := it.ids[it.pos]
	record := it.records[it.pos]
	it.pos++

	return id, record, nil
}

func (it *snapshotIterator) Close() error {
	it.pos = len(it.ids)
	return nil
}

// matches applies the AND-combined equality filter to one record.
func matches(id odm.ID, record odm.Fields, filter odm.Fields) bool {
	for _, f := range filter {
		if f.Key == odm.IdentityField {
			if !identityMatches(id, f.Value) {
				return false
			}
			continue
		}

		if !record.At(f.Key).Equal(f.Value) {
			return false
		}
	}

	return true
}

func identityMatches(id odm.ID, value odm.Value) bool {
	switch value.Kind() {
	case odm.KindIdentity:
		return value.Identity() == id
	case odm.KindString:
		return value.String() == string(id)
	default:
		return false
	}
}

// claimUniqueValues checks the document's values against all unique indexes
// and claims them for the given identity. Nothing is claimed when any value
// is already taken.
func (b *bucket) claimUniqueValues(id odm.ID, doc odm.Fields) error {
	keys := make(map[string]string, len(b.uniqueFields))

	for _, field := range b.uniqueFields {
		key, indexable := encodeIndexKey(doc.At(field))
		if !indexable {
			continue
		}

		if owner, taken := b.indexes[field][key]; taken && owner != id {
			return errors.Join(
				odm.ErrDuplicateKey,
				fmt.Errorf("duplicate value for unique field %q", field),
			)
		}

		keys[field] = key
	}

	for field, key := range keys {
		b.indexes[field][key] = id
	}

	return nil
}

// mustClaimUniqueValues re-claims values that were already claimed before,
// for rolling back a failed replace.
func (b *bucket) mustClaimUniqueValues(id odm.ID, doc odm.Fields) {
	for _, field := range b.uniqueFields {
		key, indexable := encodeIndexKey(doc.At(field))
		if !indexable {
			continue
		}
		b.indexes[field][key] = id
	}
}

func (b *bucket) releaseUniqueValues(id odm.ID, doc odm.Fields) {
	for _, field := range b.uniqueFields {
		key, indexable := encodeIndexKey(doc.At(field))
		if !indexable {
			continue
		}
		if owner, taken := b.indexes[field][key]; taken && owner == id {
			delete(b.indexes[field], key)
		}
	}
}

// encodeIndexKey renders a value into the canonical key used for uniqueness
// comparison. The kind prefix keeps values of different kinds from
// colliding. Null values are not indexed.
func encodeIndexKey(v odm.Value) (string, bool) {
	switch v.Kind() {
	case odm.KindNull:
		return "", false
	case odm.KindString:
		return "s:" + v.String(), true
	case odm.KindNumber:
		return "n:" + v.String(), true
	case odm.KindBool:
		return "b:" + v.String(), true
	case odm.KindIdentity:
		return "i:" + v.String(), true
	default:
		encoded, err := v.MarshalJSON()
		if err != nil {
			return "", false
		}
		return "j:" + string(encoded), true
	}
}
