// Package core contains the document types for the example:
// readers registered at a public library.
//
// Reader shows how an application document type embeds odm.Document, adds
// typed accessors on top of the dynamic fields, and declares its validation
// rules through the expectation engine. The observers show the lifecycle
// hooks: TimestampsObserver stamps created_at/updated_at on the way into the
// store, and AuditLogObserver writes an audit trail through the odm.Logger
// port.
package core
