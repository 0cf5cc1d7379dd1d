package fixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// CallLog records hook and store invocations in order. One log is shared
// between the observers and the recording store of a test, so the relative
// ordering of hooks and raw store calls can be asserted.
type CallLog struct {
	mu      sync.Mutex
	entries []string
}

// NewCallLog creates an empty call log.
func NewCallLog() *CallLog {
	return &CallLog{}
}

// Append records one invocation label.
func (l *CallLog) Append(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded labels in order.
func (l *CallLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)

	return out
}

// Reset clears the recorded labels.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
}

// HookRecorder implements every observer hook and records each invocation
// into its call log as "<name>.<hook>".
type HookRecorder struct {
	name string
	log  *CallLog
}

// NewHookRecorder creates a recorder writing into the given log.
func NewHookRecorder(name string, log *CallLog) *HookRecorder {
	return &HookRecorder{name: name, log: log}
}

func (h *HookRecorder) BeforeInsert(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".before_insert")
	return nil
}

func (h *HookRecorder) AfterInsert(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".after_insert")
	return nil
}

func (h *HookRecorder) BeforeUpdate(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".before_update")
	return nil
}

func (h *HookRecorder) AfterUpdate(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".after_update")
	return nil
}

func (h *HookRecorder) AfterInsertOrUpdate(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".after_insert_or_update")
	return nil
}

func (h *HookRecorder) BeforeRemove(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".before_remove")
	return nil
}

func (h *HookRecorder) AfterRemove(_ context.Context, _ odm.Storable) error {
	h.log.Append(h.name + ".after_remove")
	return nil
}

// FailingObserver implements every observer hook and fails at the configured
// one, recording nothing.
type FailingObserver struct {
	failAt string
	err    error
}

// NewFailingObserver creates an observer failing at the named hook, one of
// before_insert, after_insert, before_update, after_update,
// after_insert_or_update, before_remove, or after_remove.
func NewFailingObserver(failAt string) *FailingObserver {
	return &FailingObserver{
		failAt: failAt,
		err:    errors.New("observer rejected " + failAt),
	}
}

// Err returns the error the observer fails with.
func (o *FailingObserver) Err() error {
	return o.err
}

func (o *FailingObserver) hook(name string) error {
	if name == o.failAt {
		return o.err
	}

	return nil
}

func (o *FailingObserver) BeforeInsert(_ context.Context, _ odm.Storable) error {
	return o.hook("before_insert")
}

func (o *FailingObserver) AfterInsert(_ context.Context, _ odm.Storable) error {
	return o.hook("after_insert")
}

func (o *FailingObserver) BeforeUpdate(_ context.Context, _ odm.Storable) error {
	return o.hook("before_update")
}

func (o *FailingObserver) AfterUpdate(_ context.Context, _ odm.Storable) error {
	return o.hook("after_update")
}

func (o *FailingObserver) AfterInsertOrUpdate(_ context.Context, _ odm.Storable) error {
	return o.hook("after_insert_or_update")
}

func (o *FailingObserver) BeforeRemove(_ context.Context, _ odm.Storable) error {
	return o.hook("before_remove")
}

func (o *FailingObserver) AfterRemove(_ context.Context, _ odm.Storable) error {
	return o.hook("after_remove")
}
