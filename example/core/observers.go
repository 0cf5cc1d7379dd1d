package core

import (
	"context"
	"time"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// Field paths stamped by the TimestampsObserver.
const (
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

const (
	auditMsgTrailRecorded = "audit trail recorded"

	auditAttrAction     = "action"
	auditAttrDocumentID = "document_id"

	auditActionInsert = "insert"
	auditActionUpdate = "update"
	auditActionRemove = "remove"
)

// fieldAccessor is the slice of the embedded document API the observers use.
// Every type embedding odm.Document provides it.
type fieldAccessor interface {
	Set(path string, value odm.Value)
	Identity() odm.ID
}

// TimestampsObserver stamps created_at and updated_at on documents before
// they are written: both on insert, updated_at only on update. Timestamps
// are stored as RFC 3339 strings in UTC.
type TimestampsObserver struct {
	now func() time.Time
}

// NewTimestampsObserver creates an observer stamping wall-clock time.
func NewTimestampsObserver() *TimestampsObserver {
	return &TimestampsObserver{now: time.Now}
}

// NewTimestampsObserverWithClock creates an observer stamping the time the
// given clock returns, for deterministic tests.
func NewTimestampsObserverWithClock(now func() time.Time) *TimestampsObserver {
	return &TimestampsObserver{now: now}
}

func (o *TimestampsObserver) BeforeInsert(_ context.Context, document odm.Storable) error {
	doc, ok := document.(fieldAccessor)
	if !ok {
		return nil
	}

	stamp := o.stamp()
	doc.Set(FieldCreatedAt, stamp)
	doc.Set(FieldUpdatedAt, stamp)

	return nil
}

func (o *TimestampsObserver) BeforeUpdate(_ context.Context, document odm.Storable) error {
	doc, ok := document.(fieldAccessor)
	if !ok {
		return nil
	}

	doc.Set(FieldUpdatedAt, o.stamp())

	return nil
}

func (o *TimestampsObserver) stamp() odm.Value {
	return odm.StringValue(o.now().UTC().Format(time.RFC3339))
}

// AuditLogObserver writes one audit entry through the logger after every
// completed write operation.
type AuditLogObserver struct {
	logger odm.Logger
}

// NewAuditLogObserver creates an observer writing through the given logger.
// With a nil logger the observer stays silent.
func NewAuditLogObserver(logger odm.Logger) *AuditLogObserver {
	return &AuditLogObserver{logger: logger}
}

func (o *AuditLogObserver) AfterInsert(_ context.Context, document odm.Storable) error {
	o.record(auditActionInsert, document)
	return nil
}

func (o *AuditLogObserver) AfterUpdate(_ context.Context, document odm.Storable) error {
	o.record(auditActionUpdate, document)
	return nil
}

func (o *AuditLogObserver) AfterRemove(_ context.Context, document odm.Storable) error {
	o.record(auditActionRemove, document)
	return nil
}

func (o *AuditLogObserver) record(action string, document odm.Storable) {
	if o.logger == nil {
		return
	}

	doc, ok := document.(fieldAccessor)
	if !ok {
		return
	}

	o.logger.Info(auditMsgTrailRecorded,
		auditAttrAction, action,
		auditAttrDocumentID, string(doc.Identity()))
}
