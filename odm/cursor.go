package odm

import (
	"context"
	"errors"
)

// Cursor lazily streams typed documents out of a find operation. The store
// query only runs when Next is called for the first time, so records written
// between building the cursor and consuming it are visible.
//
// A cursor is not restartable: once exhausted or closed it reports absent
// forever, and a fresh Find call is needed to query again. Cursors are not
// safe for concurrent use.
type Cursor[T any, PT DocumentPtr[T]] struct {
	collection Collection
	filter     Fields
	iter       DocumentIterator
	exhausted  bool
}

// Next returns the next matching document, hydrated into state Persisted.
// At exhaustion it returns nil, nil, on every call.
func (c *Cursor[T, PT]) Next(ctx context.Context) (PT, error) {
	if c.exhausted {
		return nil, nil
	}

	if c.iter == nil {
		iter, err := c.collection.Find(ctx, c.filter)
		if err != nil {
			c.exhausted = true
			return nil, errors.Join(ErrQueryingDocumentsFailed, err)
		}
		c.iter = iter
	}

	id, fields, err := c.iter.Next(ctx)
	if err != nil {
		c.finish()
		return nil, errors.Join(ErrQueryingDocumentsFailed, err)
	}

	if id == "" {
		c.finish()
		return nil, nil
	}

	var document T
	ptr := PT(&document)
	ptr.base().hydrate(id, fields)

	return ptr, nil
}

// Close releases the underlying iterator early. The cursor is exhausted
// afterwards. Closing an exhausted or unused cursor is a no-op.
func (c *Cursor[T, PT]) Close() error {
	c.exhausted = true

	if c.iter == nil {
		return nil
	}

	iter := c.iter
	c.iter = nil

	return iter.Close()
}

func (c *Cursor[T, PT]) finish() {
	if c.iter != nil {
		_ = c.iter.Close()
	}
	c.iter = nil
	c.exhausted = true
}
