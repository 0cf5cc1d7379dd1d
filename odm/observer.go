package odm

import (
	"context"
	"errors"
)

// Observer hook interfaces. An observer implements only the hooks it cares
// about; the registry dispatches each lifecycle event to every registered
// observer implementing the matching interface, in registration order. A hook
// returning an error aborts the running operation, including the store write
// for before hooks.

// BeforeInsertObserver is called before a document is inserted.
type BeforeInsertObserver interface {
	BeforeInsert(ctx context.Context, document Storable) error
}

// AfterInsertObserver is called after a document was inserted.
type AfterInsertObserver interface {
	AfterInsert(ctx context.Context, document Storable) error
}

// BeforeUpdateObserver is called before a document is updated.
type BeforeUpdateObserver interface {
	BeforeUpdate(ctx context.Context, document Storable) error
}

// AfterUpdateObserver is called after a document was updated.
type AfterUpdateObserver interface {
	AfterUpdate(ctx context.Context, document Storable) error
}

// AfterInsertOrUpdateObserver is called after a document was inserted or
// updated, following the specific after hook.
type AfterInsertOrUpdateObserver interface {
	AfterInsertOrUpdate(ctx context.Context, document Storable) error
}

// BeforeRemoveObserver is called before a document is removed.
type BeforeRemoveObserver interface {
	BeforeRemove(ctx context.Context, document Storable) error
}

// AfterRemoveObserver is called after a document was removed.
type AfterRemoveObserver interface {
	AfterRemove(ctx context.Context, document Storable) error
}

// ObserverRegistry holds the ordered observers of one repository.
// Registration order is call order. Register everything during
// initialization; the registry is not safe for mutation concurrent with
// in-flight operations.
type ObserverRegistry struct {
	observers []any
}

// NewObserverRegistry creates a registry holding the given observers, in
// order.
func NewObserverRegistry(observers ...any) *ObserverRegistry {
	registry := &ObserverRegistry{}
	for _, observer := range observers {
		registry.Register(observer)
	}

	return registry
}

// Register appends an observer to the registry.
func (r *ObserverRegistry) Register(observer any) {
	r.observers = append(r.observers, observer)
}

func (r *ObserverRegistry) dispatchBeforeInsert(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(BeforeInsertObserver); ok {
			if err := hook.BeforeInsert(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}

func (r *ObserverRegistry) dispatchAfterInsert(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(AfterInsertObserver); ok {
			if err := hook.AfterInsert(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}

func (r *ObserverRegistry) dispatchBeforeUpdate(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(BeforeUpdateObserver); ok {
			if err := hook.BeforeUpdate(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}

func (r *ObserverRegistry) dispatchAfterUpdate(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(AfterUpdateObserver); ok {
			if err := hook.AfterUpdate(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}

func (r *ObserverRegistry) dispatchAfterInsertOrUpdate(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(AfterInsertOrUpdateObserver); ok {
			if err := hook.AfterInsertOrUpdate(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}

func (r *ObserverRegistry) dispatchBeforeRemove(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(BeforeRemoveObserver); ok {
			if err := hook.BeforeRemove(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}

func (r *ObserverRegistry) dispatchAfterRemove(ctx context.Context, document Storable) error {
	if r == nil {
		return nil
	}

	for _, observer := range r.observers {
		if hook, ok := observer.(AfterRemoveObserver); ok {
			if err := hook.AfterRemove(ctx, document); err != nil {
				return errors.Join(ErrObserverFailed, err)
			}
		}
	}

	return nil
}
