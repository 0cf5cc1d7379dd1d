package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm/postgresengine/internal/adapters"
)

const (
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgBuildUpdateQueryFailed = "failed to build update query"
	logMsgBuildDeleteQueryFailed = "failed to build delete query"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgBuildCountQueryFailed  = "failed to build count query"
	logMsgMarshalDocumentFailed  = "failed to marshal document to json"
	logMsgMarshalFilterFailed    = "failed to marshal filter to json"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgUniqueViolation        = "unique constraint violation detected"
	logMsgSchemaStmtExecuted     = "schema statement executed"
	logMsgSQLExecuted            = "executed sql for: "

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrTable      = "table"
	logAttrDurationMS = "duration_ms"

	logActionInsertOne  = "insert_one"
	logActionReplaceOne = "replace_one"
	logActionDeleteOne  = "delete_one"
	logActionFind       = "find"
	logActionCount      = "count"

	colID  = "id"
	colDoc = "doc"

	dialectPostgres       = "postgres"
	castJsonb             = "?::jsonb"
	containsJsonb         = colDoc + " @> " + castJsonb
	pgUniqueViolationCode = "23505"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// ErrSchemaSetupFailed occurs when a schema helper cannot create or drop a
// collection table or index.
var ErrSchemaSetupFailed = errors.New("schema setup failed")

// errNoCountRow occurs when a count query unexpectedly yields an empty result set.
var errNoCountRow = errors.New("count query returned no rows")

// Engine is a PostgreSQL implementation of odm.DocumentStore. Each collection
// is stored in its own table with the layout (id TEXT PRIMARY KEY, doc JSONB),
// so the document fields stay queryable with the JSONB containment operator.
// It leverages a database adapter and supports customizable logging and a
// table name prefix.
type Engine struct {
	db               adapters.DBAdapter
	tablePrefix      string
	logger           odm.Logger
	contextualLogger odm.ContextualLogger
}

// Compile-time check that the engine satisfies the store contract.
var _ odm.DocumentStore = Engine{}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, odm.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromPGXPoolWithReplica creates a new Engine using a primary pgx Pool
// for writes and a replica pgx Pool for read operations.
func NewEngineFromPGXPoolWithReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Engine, error) {
	if primary == nil || replica == nil {
		return Engine{}, odm.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, odm.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, odm.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	engine := Engine{db: db}

	for _, option := range options {
		if err := option(&engine); err != nil {
			return Engine{}, err
		}
	}

	return engine, nil
}

// Collection binds the named collection to its backing table.
func (e Engine) Collection(name string) odm.Collection {
	return boundCollection{engine: e, table: e.tablePrefix + name}
}

// CreateCollectionTable creates the backing table for a collection unless it
// already exists.
func (e Engine) CreateCollectionTable(ctx context.Context, collection string) error {
	table := e.tablePrefix + collection
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (%s TEXT PRIMARY KEY, %s JSONB NOT NULL)`, table, colID, colDoc)

	return e.executeSchemaStatement(ctx, table, ddl)
}

// CreateUniqueDocIndex creates a unique index over one document field path
// unless it already exists. The path uses dots to address nested mappings.
// Documents where the path is absent are not constrained, matching the
// PostgreSQL semantics of unique indexes over NULL values.
func (e Engine) CreateUniqueDocIndex(ctx context.Context, collection string, fieldPath string) error {
	table := e.tablePrefix + collection
	indexName := fmt.Sprintf("%s_%s_key", table, strings.ReplaceAll(fieldPath, ".", "_"))
	ddl := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %q ON %q ((%s))`, indexName, table, jsonbTextPathExpr(fieldPath))

	return e.executeSchemaStatement(ctx, table, ddl)
}

// DropCollectionTable drops the backing table for a collection if it exists.
func (e Engine) DropCollectionTable(ctx context.Context, collection string) error {
	table := e.tablePrefix + collection
	ddl := fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)

	return e.executeSchemaStatement(ctx, table, ddl)
}

func (e Engine) executeSchemaStatement(ctx context.Context, table string, ddl string) error {
	if _, execErr := e.db.Exec(ctx, ddl); execErr != nil {
		e.logError(ctx, logMsgDBExecFailed, execErr, logAttrTable, table, logAttrQuery, ddl)
		return errors.Join(ErrSchemaSetupFailed, execErr)
	}

	e.logDebug(ctx, logMsgSchemaStmtExecuted, logAttrTable, table, logAttrQuery, ddl)

	return nil
}

// jsonbTextPathExpr builds the JSONB expression extracting a dotted field path
// as text, e.g. "a.b.c" becomes doc -> 'a' -> 'b' ->> 'c'.
func jsonbTextPathExpr(fieldPath string) string {
	parts := strings.Split(fieldPath, ".")
	expr := colDoc

	for _, part := range parts[:len(parts)-1] {
		expr += fmt.Sprintf(" -> '%s'", part)
	}

	return expr + fmt.Sprintf(" ->> '%s'", parts[len(parts)-1])
}

// boundCollection executes the store operations of one collection against its
// backing table.
type boundCollection struct {
	engine Engine
	table  string
}

// InsertOne writes a new record with a fresh identity and returns that identity.
// Unique index violations are reported as odm.ErrDuplicateKey with the driver
// error joined in for inspection.
func (c boundCollection) InsertOne(ctx context.Context, doc odm.Fields) (odm.ID, error) {
	id := odm.NewID()

	docJSON, marshalErr := doc.MarshalJSON()
	if marshalErr != nil {
		c.engine.logError(ctx, logMsgMarshalDocumentFailed, marshalErr, logAttrTable, c.table)
		return "", errors.Join(odm.ErrBuildingQueryFailed, marshalErr)
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(c.table).
		Cols(colID, colDoc).
		Vals(goqu.Vals{id.String(), goqu.L(castJsonb, string(docJSON))})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		c.engine.logError(ctx, logMsgBuildInsertQueryFailed, toSQLErr, logAttrTable, c.table)
		return "", errors.Join(odm.ErrBuildingQueryFailed, toSQLErr)
	}

	if _, err := c.execute(ctx, sqlQuery, logActionInsertOne); err != nil {
		return "", err
	}

	return id, nil
}

// ReplaceOne overwrites the record with the given identity and reports how
// many records were affected; zero means the record vanished.
func (c boundCollection) ReplaceOne(ctx context.Context, id odm.ID, doc odm.Fields) (int64, error) {
	docJSON, marshalErr := doc.MarshalJSON()
	if marshalErr != nil {
		c.engine.logError(ctx, logMsgMarshalDocumentFailed, marshalErr, logAttrTable, c.table)
		return 0, errors.Join(odm.ErrBuildingQueryFailed, marshalErr)
	}

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(c.table).
		Set(goqu.Record{colDoc: goqu.L(castJsonb, string(docJSON))}).
		Where(goqu.Ex{colID: id.String()})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		c.engine.logError(ctx, logMsgBuildUpdateQueryFailed, toSQLErr, logAttrTable, c.table)
		return 0, errors.Join(odm.ErrBuildingQueryFailed, toSQLErr)
	}

	result, execErr := c.execute(ctx, sqlQuery, logActionReplaceOne)
	if execErr != nil {
		return 0, execErr
	}

	return c.rowsAffected(ctx, result)
}

// DeleteOne removes the record with the given identity and reports how many
// records were affected; zero means the record vanished.
func (c boundCollection) DeleteOne(ctx context.Context, id odm.ID) (int64, error) {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(c.table).
		Where(goqu.Ex{colID: id.String()})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		c.engine.logError(ctx, logMsgBuildDeleteQueryFailed, toSQLErr, logAttrTable, c.table)
		return 0, errors.Join(odm.ErrBuildingQueryFailed, toSQLErr)
	}

	result, execErr := c.execute(ctx, sqlQuery, logActionDeleteOne)
	if execErr != nil {
		return 0, execErr
	}

	return c.rowsAffected(ctx, result)
}

// Find streams the records matching the filter ordered by identity.
func (c boundCollection) Find(ctx context.Context, filter odm.Fields) (odm.DocumentIterator, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(c.table).
		Select(colID, colDoc).
		Order(goqu.I(colID).Asc())

	selectStmt, whereErr := c.addWhereClause(ctx, filter, selectStmt)
	if whereErr != nil {
		return nil, whereErr
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		c.engine.logError(ctx, logMsgBuildSelectQueryFailed, toSQLErr, logAttrTable, c.table)
		return nil, errors.Join(odm.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := c.executeQuery(ctx, sqlQuery, logActionFind)
	if queryErr != nil {
		return nil, queryErr
	}

	return &documentRows{rows: rows}, nil
}

// Count reports how many records match the filter.
func (c boundCollection) Count(ctx context.Context, filter odm.Fields) (int64, error) {
	countStmt := goqu.Dialect(dialectPostgres).
		From(c.table).
		Select(goqu.COUNT(goqu.Star()))

	countStmt, whereErr := c.addWhereClause(ctx, filter, countStmt)
	if whereErr != nil {
		return 0, whereErr
	}

	sqlQuery, _, toSQLErr := countStmt.ToSQL()
	if toSQLErr != nil {
		c.engine.logError(ctx, logMsgBuildCountQueryFailed, toSQLErr, logAttrTable, c.table)
		return 0, errors.Join(odm.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := c.executeQuery(ctx, sqlQuery, logActionCount)
	if queryErr != nil {
		return 0, queryErr
	}
	defer c.closeRows(ctx, rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return 0, rowsErr
		}

		return 0, errNoCountRow
	}

	var count int64
	if scanErr := rows.Scan(&count); scanErr != nil {
		return 0, errors.Join(odm.ErrDecodingDocumentFailed, scanErr)
	}

	return count, nil
}

// addWhereClause translates the filter into SQL conditions: the reserved
// identity field becomes an equality check on the id column, all remaining
// paths are combined into a single JSONB containment condition on the doc
// column, so nested paths and conjunction come from PostgreSQL itself.
func (c boundCollection) addWhereClause(ctx context.Context, filter odm.Fields, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	if len(filter) == 0 {
		return selectStmt, nil
	}

	expressions := make([]goqu.Expression, 0)
	containment := odm.Fields{}

	for _, field := range filter {
		if field.Key == odm.IdentityField {
			expressions = append(expressions, goqu.Ex{colID: identityString(field.Value)})
			continue
		}

		containment = containment.Set(field.Key, field.Value)
	}

	if len(containment) > 0 {
		filterJSON, marshalErr := containment.MarshalJSON()
		if marshalErr != nil {
			c.engine.logError(ctx, logMsgMarshalFilterFailed, marshalErr, logAttrTable, c.table)
			return nil, errors.Join(odm.ErrBuildingQueryFailed, marshalErr)
		}

		expressions = append(expressions, goqu.L(containsJsonb, string(filterJSON)))
	}

	return selectStmt.Where(goqu.And(expressions...)), nil
}

// identityString accepts both the identity kind and its plain string form,
// since decoded documents carry identities as strings.
func identityString(value odm.Value) string {
	if value.Kind() == odm.KindIdentity {
		return value.Identity().String()
	}

	return value.String()
}

// execute runs a mutating statement, classifying unique violations.
func (c boundCollection) execute(ctx context.Context, sqlQuery sqlQueryString, action string) (adapters.DBResult, error) {
	start := time.Now()
	result, execErr := c.engine.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	c.engine.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if execErr != nil {
		if isUniqueViolation(execErr) {
			c.engine.logInfo(ctx, logMsgUniqueViolation, logAttrTable, c.table)
			return nil, errors.Join(odm.ErrDuplicateKey, execErr)
		}

		c.engine.logError(ctx, logMsgDBExecFailed, execErr, logAttrTable, c.table, logAttrQuery, sqlQuery)

		return nil, execErr
	}

	return result, nil
}

// executeQuery runs a reading statement and returns rows with timing information.
func (c boundCollection) executeQuery(ctx context.Context, sqlQuery sqlQueryString, action string) (
	adapters.DBRows,
	queryDuration,
	error,
) {

	start := time.Now()
	rows, queryErr := c.engine.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	c.engine.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if queryErr != nil {
		c.engine.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrTable, c.table, logAttrQuery, sqlQuery)
		return nil, duration, queryErr
	}

	return rows, duration, nil
}

func (c boundCollection) rowsAffected(ctx context.Context, result adapters.DBResult) (rowsAffectedInt64, error) {
	affected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		c.engine.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr, logAttrTable, c.table)
		return 0, errors.Join(odm.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return affected, nil
}

// closeRows safely closes database rows and logs any errors.
func (c boundCollection) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		c.engine.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error(), logAttrTable, c.table)
	}
}

// documentRows adapts database rows to the odm.DocumentIterator contract.
type documentRows struct {
	rows adapters.DBRows
}

// Next decodes the next record. Exhaustion is reported as a zero identity
// with a nil error.
func (r *documentRows) Next(_ context.Context) (odm.ID, odm.Fields, error) {
	if !r.rows.Next() {
		if rowsErr := r.rows.Err(); rowsErr != nil {
			return "", nil, rowsErr
		}

		return "", nil, nil
	}

	var id string
	var docJSON []byte

	if scanErr := r.rows.Scan(&id, &docJSON); scanErr != nil {
		return "", nil, errors.Join(odm.ErrDecodingDocumentFailed, scanErr)
	}

	var fields odm.Fields
	if unmarshalErr := fields.UnmarshalJSON(docJSON); unmarshalErr != nil {
		return "", nil, errors.Join(odm.ErrDecodingDocumentFailed, unmarshalErr)
	}

	return odm.ID(id), fields, nil
}

// Close releases the underlying rows.
func (r *documentRows) Close() error {
	return r.rows.Close()
}

// isUniqueViolation detects PostgreSQL unique constraint violations for both
// the pgx and the lib/pq driver error types.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolationCode {
		return true
	}

	return false
}

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (e Engine) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {

	e.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, e.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
}

func (e Engine) logDebug(ctx context.Context, msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

func (e Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (e Engine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (e Engine) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if e.logger != nil {
		e.logger.Error(msg, allArgs...)
	}
	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (e Engine) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
