package odm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	logMsgDocumentInserted   = "document inserted"
	logMsgDocumentUpdated    = "document updated"
	logMsgDocumentRemoved    = "document removed"
	logMsgDocumentFound      = "document found"
	logMsgNoDocumentFound    = "no document found"
	logMsgDocumentsCounted   = "documents counted"
	logMsgValidationFailed   = "document validation failed"
	logMsgObserverAborted    = "observer hook aborted operation"
	logMsgDuplicateKey       = "duplicate key conflict detected"
	logMsgStaleDocument      = "stale document detected, no rows were affected"
	logMsgPreconditionFailed = "operation precondition violated"
	logMsgStoreFailed        = "store operation failed"

	logAttrError         = "error"
	logAttrCollection    = "collection"
	logAttrDocumentID    = "document_id"
	logAttrDocumentCount = "document_count"
	logAttrDurationMS    = "duration_ms"
	logAttrErrorCount    = "error_count"
	logAttrOperation     = "operation"

	operationInsert  = "insert"
	operationUpdate  = "update"
	operationRemove  = "remove"
	operationFindOne = "find_one"
	operationCount   = "count"

	statusSuccess = "success"
	statusError   = "error"

	metricOperationDuration  = "odm_operation_duration_seconds"
	metricOperationErrors    = "odm_operation_errors_total"
	metricDuplicateKeys      = "odm_duplicate_key_conflicts_total"
	metricValidationFailures = "odm_validation_failures_total"
	metricDocumentsRead      = "odm_documents_read_total"

	spanNamePrefix     = "odm."
	spanAttrOperation  = "operation"
	spanAttrCollection = "collection"
	spanAttrDocumentID = "document_id"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"

	errorTypeValidation   = "validation_failed"
	errorTypePrecondition = "precondition_violation"
	errorTypeObserver     = "observer_failed"
	errorTypeDuplicateKey = "duplicate_key"
	errorTypeStale        = "stale_document"
	errorTypeStore        = "store_failure"
)

// DocumentPtr constrains a type parameter to a pointer to an application
// document type, which embeds Document and thereby implements Storable.
type DocumentPtr[T any] interface {
	*T
	Storable
}

// Repository binds one application document type to one logical collection
// and mediates every persistence operation: lifecycle preconditions,
// validation, observer dispatch, the raw store call, and the state
// transition, in that order.
//
// All failures are returned as errors matching the sentinels in common.go via
// errors.Is; underlying causes stay inspectable through errors.As. Validation
// failures additionally leave the document's ErrorCollector populated.
type Repository[T any, PT DocumentPtr[T]] struct {
	collection       Collection
	collectionName   string
	observers        *ObserverRegistry
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewRepository binds the document type to the named collection of the given
// store.
func NewRepository[T any, PT DocumentPtr[T]](store DocumentStore, collectionName string, options ...Option) (Repository[T, PT], error) {
	if store == nil {
		return Repository[T, PT]{}, ErrNilDocumentStoreSupplied
	}
	if collectionName == "" {
		return Repository[T, PT]{}, ErrEmptyCollectionNameSupplied
	}

	cfg := repositoryConfig{}
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return Repository[T, PT]{}, err
		}
	}

	return Repository[T, PT]{
		collection:       store.Collection(collectionName),
		collectionName:   collectionName,
		observers:        cfg.observers,
		logger:           cfg.logger,
		contextualLogger: cfg.contextualLogger,
		metricsCollector: cfg.metricsCollector,
		tracingCollector: cfg.tracingCollector,
	}, nil
}

// Insert stores a new document. It validates the document (unless skipped
// with SkipValidation), dispatches before-insert observers, delegates the
// write to the store, assigns the store-supplied identity, transitions the
// document to Persisted, and dispatches the after-insert observers.
//
// Returned errors match ErrAlreadyPersisted or ErrAlreadyRemoved when the
// document is not in state New, ErrValidationFailed when validation recorded
// failures, ErrObserverFailed when a hook aborted, ErrDuplicateKey when a
// unique constraint rejected the write, and ErrInsertingDocumentFailed for
// any other store failure.
func (r Repository[T, PT]) Insert(ctx context.Context, document PT, options ...OperationOption) error {
	cfg := applyOperationOptions(options)
	base := document.base()

	start := time.Now()
	ctx, span := r.startOperationSpan(ctx, operationInsert)

	if err := guardInsertable(base); err != nil {
		r.logError(ctx, logMsgPreconditionFailed, err, logAttrOperation, operationInsert, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationInsert, err, start)
	}

	if !cfg.skipValidation && !IsValid(document) {
		r.logInfo(ctx, logMsgValidationFailed,
			logAttrCollection, r.collectionName,
			logAttrErrorCount, len(base.errs.entries))

		return r.fail(ctx, span, operationInsert, ErrValidationFailed, start)
	}

	if err := r.observers.dispatchBeforeInsert(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationInsert, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationInsert, err, start)
	}

	id, insertErr := r.collection.InsertOne(ctx, base.fields)
	if insertErr != nil {
		if errors.Is(insertErr, ErrDuplicateKey) {
			r.logInfo(ctx, logMsgDuplicateKey, logAttrCollection, r.collectionName)
			return r.fail(ctx, span, operationInsert, insertErr, start)
		}

		r.logError(ctx, logMsgStoreFailed, insertErr, logAttrOperation, operationInsert, logAttrCollection, r.collectionName)

		return r.fail(ctx, span, operationInsert, errors.Join(ErrInsertingDocumentFailed, insertErr), start)
	}

	if err := base.assignIdentity(id); err != nil {
		return r.fail(ctx, span, operationInsert, errors.Join(ErrInsertingDocumentFailed, err), start)
	}
	base.markPersisted()

	if err := r.observers.dispatchAfterInsert(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationInsert, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationInsert, err, start)
	}
	if err := r.observers.dispatchAfterInsertOrUpdate(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationInsert, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationInsert, err, start)
	}

	duration := time.Since(start)
	r.logInfo(ctx, logMsgDocumentInserted,
		logAttrCollection, r.collectionName,
		logAttrDocumentID, string(base.identity),
		logAttrDurationMS, durationToMilliseconds(duration))
	r.succeed(ctx, span, operationInsert, duration, map[string]string{spanAttrDocumentID: string(base.identity)})

	return nil
}

// Update replaces the stored record backing an already persisted document.
// The flow mirrors Insert: validation (unless skipped), before-update
// observers, the store write, after-update observers.
//
// Returned errors match ErrMissingIdentity or ErrNotPersisted when the
// lifecycle preconditions fail, ErrValidationFailed, ErrObserverFailed,
// ErrDuplicateKey, ErrStaleDocument when no stored record was affected, and
// ErrReplacingDocumentFailed for any other store failure.
func (r Repository[T, PT]) Update(ctx context.Context, document PT, options ...OperationOption) error {
	cfg := applyOperationOptions(options)
	base := document.base()

	start := time.Now()
	ctx, span := r.startOperationSpan(ctx, operationUpdate)

	if err := guardUpdatable(base); err != nil {
		r.logError(ctx, logMsgPreconditionFailed, err, logAttrOperation, operationUpdate, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationUpdate, err, start)
	}

	if !cfg.skipValidation && !IsValid(document) {
		r.logInfo(ctx, logMsgValidationFailed,
			logAttrCollection, r.collectionName,
			logAttrDocumentID, string(base.identity),
			logAttrErrorCount, len(base.errs.entries))

		return r.fail(ctx, span, operationUpdate, ErrValidationFailed, start)
	}

	if err := r.observers.dispatchBeforeUpdate(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationUpdate, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationUpdate, err, start)
	}

	affected, replaceErr := r.collection.ReplaceOne(ctx, base.identity, base.fields)
	if replaceErr != nil {
		if errors.Is(replaceErr, ErrDuplicateKey) {
			r.logInfo(ctx, logMsgDuplicateKey, logAttrCollection, r.collectionName, logAttrDocumentID, string(base.identity))
			return r.fail(ctx, span, operationUpdate, replaceErr, start)
		}

		r.logError(ctx, logMsgStoreFailed, replaceErr, logAttrOperation, operationUpdate, logAttrCollection, r.collectionName)

		return r.fail(ctx, span, operationUpdate, errors.Join(ErrReplacingDocumentFailed, replaceErr), start)
	}

	if affected == 0 {
		r.logInfo(ctx, logMsgStaleDocument, logAttrCollection, r.collectionName, logAttrDocumentID, string(base.identity))
		return r.fail(ctx, span, operationUpdate, ErrStaleDocument, start)
	}

	if err := r.observers.dispatchAfterUpdate(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationUpdate, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationUpdate, err, start)
	}
	if err := r.observers.dispatchAfterInsertOrUpdate(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationUpdate, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationUpdate, err, start)
	}

	duration := time.Since(start)
	r.logInfo(ctx, logMsgDocumentUpdated,
		logAttrCollection, r.collectionName,
		logAttrDocumentID, string(base.identity),
		logAttrDurationMS, durationToMilliseconds(duration))
	r.succeed(ctx, span, operationUpdate, duration, map[string]string{spanAttrDocumentID: string(base.identity)})

	return nil
}

// Remove deletes the stored record backing a persisted document and
// transitions the document to Removed. Removal does not validate; only the
// lifecycle preconditions and the before/after remove observers apply.
//
// Returned errors match ErrNotPersisted when the document was never
// persisted, ErrAlreadyRemoved on a second removal, ErrObserverFailed,
// ErrStaleDocument when no stored record was affected, and
// ErrRemovingDocumentFailed for any other store failure.
func (r Repository[T, PT]) Remove(ctx context.Context, document PT) error {
	base := document.base()

	start := time.Now()
	ctx, span := r.startOperationSpan(ctx, operationRemove)

	if err := guardRemovable(base); err != nil {
		r.logError(ctx, logMsgPreconditionFailed, err, logAttrOperation, operationRemove, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationRemove, err, start)
	}

	if err := r.observers.dispatchBeforeRemove(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationRemove, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationRemove, err, start)
	}

	affected, deleteErr := r.collection.DeleteOne(ctx, base.identity)
	if deleteErr != nil {
		r.logError(ctx, logMsgStoreFailed, deleteErr, logAttrOperation, operationRemove, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationRemove, errors.Join(ErrRemovingDocumentFailed, deleteErr), start)
	}

	if affected == 0 {
		r.logInfo(ctx, logMsgStaleDocument, logAttrCollection, r.collectionName, logAttrDocumentID, string(base.identity))
		return r.fail(ctx, span, operationRemove, ErrStaleDocument, start)
	}

	base.markRemoved()

	if err := r.observers.dispatchAfterRemove(ctx, document); err != nil {
		r.logError(ctx, logMsgObserverAborted, err, logAttrOperation, operationRemove, logAttrCollection, r.collectionName)
		return r.fail(ctx, span, operationRemove, err, start)
	}

	duration := time.Since(start)
	r.logInfo(ctx, logMsgDocumentRemoved,
		logAttrCollection, r.collectionName,
		logAttrDocumentID, string(base.identity),
		logAttrDurationMS, durationToMilliseconds(duration))
	r.succeed(ctx, span, operationRemove, duration, map[string]string{spanAttrDocumentID: string(base.identity)})

	return nil
}

// FindOne returns the first document matching the filter, hydrated into
// state Persisted, or nil, nil when nothing matches. An absent document is
// a regular outcome, not an error.
func (r Repository[T, PT]) FindOne(ctx context.Context, filter Fields) (PT, error) {
	start := time.Now()
	ctx, span := r.startOperationSpan(ctx, operationFindOne)

	iter, findErr := r.collection.Find(ctx, filter)
	if findErr != nil {
		r.logError(ctx, logMsgStoreFailed, findErr, logAttrOperation, operationFindOne, logAttrCollection, r.collectionName)
		return nil, r.fail(ctx, span, operationFindOne, errors.Join(ErrQueryingDocumentsFailed, findErr), start)
	}
	defer r.closeIterator(ctx, iter)

	id, fields, nextErr := iter.Next(ctx)
	if nextErr != nil {
		r.logError(ctx, logMsgStoreFailed, nextErr, logAttrOperation, operationFindOne, logAttrCollection, r.collectionName)
		return nil, r.fail(ctx, span, operationFindOne, errors.Join(ErrQueryingDocumentsFailed, nextErr), start)
	}

	duration := time.Since(start)

	if id == "" {
		r.logDebug(ctx, logMsgNoDocumentFound,
			logAttrCollection, r.collectionName,
			logAttrDurationMS, durationToMilliseconds(duration))
		r.recordDocumentsRead(ctx, operationFindOne, 0)
		r.succeed(ctx, span, operationFindOne, duration, map[string]string{logAttrDocumentCount: "0"})

		return nil, nil
	}

	var document T
	ptr := PT(&document)
	ptr.base().hydrate(id, fields)

	r.logDebug(ctx, logMsgDocumentFound,
		logAttrCollection, r.collectionName,
		logAttrDocumentID, string(id),
		logAttrDurationMS, durationToMilliseconds(duration))
	r.recordDocumentsRead(ctx, operationFindOne, 1)
	r.succeed(ctx, span, operationFindOne, duration, map[string]string{spanAttrDocumentID: string(id)})

	return ptr, nil
}

// FindByID returns the document with the given identity, or nil, nil when it
// does not exist.
func (r Repository[T, PT]) FindByID(ctx context.Context, id ID) (PT, error) {
	return r.FindOne(ctx, Fields{F(IdentityField, IdentityValue(id))})
}

// Find returns a cursor over the documents matching the filter. The store
// query does not run before the cursor's first Next call. A nil filter
// matches the whole collection.
func (r Repository[T, PT]) Find(filter Fields) *Cursor[T, PT] {
	return &Cursor[T, PT]{collection: r.collection, filter: filter}
}

// Count returns the number of documents matching the filter. A nil filter
// counts the whole collection.
func (r Repository[T, PT]) Count(ctx context.Context, filter Fields) (int64, error) {
	start := time.Now()
	ctx, span := r.startOperationSpan(ctx, operationCount)

	count, countErr := r.collection.Count(ctx, filter)
	if countErr != nil {
		r.logError(ctx, logMsgStoreFailed, countErr, logAttrOperation, operationCount, logAttrCollection, r.collectionName)
		return 0, r.fail(ctx, span, operationCount, errors.Join(ErrCountingDocumentsFailed, countErr), start)
	}

	duration := time.Since(start)
	r.logDebug(ctx, logMsgDocumentsCounted,
		logAttrCollection, r.collectionName,
		logAttrDocumentCount, count,
		logAttrDurationMS, durationToMilliseconds(duration))
	r.succeed(ctx, span, operationCount, duration, map[string]string{logAttrDocumentCount: fmt.Sprintf("%d", count)})

	return count, nil
}

// IsEmpty reports whether the collection holds no documents at all.
func (r Repository[T, PT]) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.Count(ctx, nil)
	if err != nil {
		return false, err
	}

	return count == 0, nil
}

func guardInsertable(base *Document) error {
	switch base.state {
	case StatePersisted:
		return ErrAlreadyPersisted
	case StateRemoved:
		return ErrAlreadyRemoved
	default:
		return nil
	}
}

func guardUpdatable(base *Document) error {
	if base.identity == "" {
		return ErrMissingIdentity
	}
	if base.state != StatePersisted {
		return ErrNotPersisted
	}

	return nil
}

func guardRemovable(base *Document) error {
	switch base.state {
	case StateNew:
		return ErrNotPersisted
	case StateRemoved:
		return ErrAlreadyRemoved
	default:
		return nil
	}
}

func (r Repository[T, PT]) closeIterator(ctx context.Context, iter DocumentIterator) {
	if err := iter.Close(); err != nil {
		r.logWarn(ctx, logMsgStoreFailed, logAttrError, err.Error(), logAttrCollection, r.collectionName)
	}
}

// fail records error metrics and finishes the span, then hands the error
// back so call sites can return in one statement.
func (r Repository[T, PT]) fail(ctx context.Context, span SpanContext, operation string, err error, start time.Time) error {
	duration := time.Since(start)
	errorType := errorTypeOf(err)

	r.recordDuration(ctx, operation, statusError, duration)
	r.incrementCounter(ctx, metricOperationErrors, map[string]string{
		spanAttrOperation:  operation,
		spanAttrCollection: r.collectionName,
		spanAttrErrorType:  errorType,
	})

	switch errorType {
	case errorTypeDuplicateKey:
		r.incrementCounter(ctx, metricDuplicateKeys, map[string]string{
			spanAttrOperation:  operation,
			spanAttrCollection: r.collectionName,
		})
	case errorTypeValidation:
		r.incrementCounter(ctx, metricValidationFailures, map[string]string{
			spanAttrOperation:  operation,
			spanAttrCollection: r.collectionName,
		})
	}

	if span != nil {
		span.SetStatus(statusError)
		span.AddAttribute(spanAttrErrorType, errorType)
		span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", durationToMilliseconds(duration)))
		r.tracingCollector.FinishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
	}

	return err
}

func (r Repository[T, PT]) succeed(ctx context.Context, span SpanContext, operation string, duration time.Duration, attrs map[string]string) {
	r.recordDuration(ctx, operation, statusSuccess, duration)

	if span != nil {
		span.SetStatus(statusSuccess)
		span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", durationToMilliseconds(duration)))
		for key, value := range attrs {
			span.AddAttribute(key, value)
		}
		r.tracingCollector.FinishSpan(span, statusSuccess, attrs)
	}
}

func (r Repository[T, PT]) startOperationSpan(ctx context.Context, operation string) (context.Context, SpanContext) {
	if r.tracingCollector == nil {
		return ctx, nil
	}

	return r.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation:  operation,
		spanAttrCollection: r.collectionName,
	})
}

func (r Repository[T, PT]) recordDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if r.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation:  operation,
		spanAttrCollection: r.collectionName,
		"status":           status,
	}

	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		return
	}

	r.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
}

func (r Repository[T, PT]) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if r.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	r.metricsCollector.IncrementCounter(metric, labels)
}

func (r Repository[T, PT]) recordDocumentsRead(ctx context.Context, operation string, count float64) {
	if r.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation:  operation,
		spanAttrCollection: r.collectionName,
		"status":           statusSuccess,
	}

	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricDocumentsRead, count, labels)
		return
	}

	r.metricsCollector.RecordValue(metricDocumentsRead, count, labels)
}

func (r Repository[T, PT]) logDebug(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
	if r.contextualLogger != nil {
		r.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

func (r Repository[T, PT]) logInfo(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
	if r.contextualLogger != nil {
		r.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (r Repository[T, PT]) logWarn(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
	if r.contextualLogger != nil {
		r.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (r Repository[T, PT]) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if r.logger != nil {
		r.logger.Error(msg, allArgs...)
	}
	if r.contextualLogger != nil {
		r.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidationFailed):
		return errorTypeValidation
	case errors.Is(err, ErrDuplicateKey):
		return errorTypeDuplicateKey
	case errors.Is(err, ErrObserverFailed):
		return errorTypeObserver
	case errors.Is(err, ErrStaleDocument):
		return errorTypeStale
	case errors.Is(err, ErrMissingIdentity),
		errors.Is(err, ErrAlreadyPersisted),
		errors.Is(err, ErrNotPersisted),
		errors.Is(err, ErrAlreadyRemoved):
		return errorTypePrecondition
	default:
		return errorTypeStore
	}
}

func durationToMilliseconds(duration time.Duration) float64 {
	return math.Round(float64(duration.Nanoseconds())/1e6*1000) / 1000
}
