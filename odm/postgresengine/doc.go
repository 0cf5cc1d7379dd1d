// Package postgresengine provides a PostgreSQL implementation of the odm.DocumentStore interface.
//
// This package stores each collection in its own table with the layout
// (id TEXT PRIMARY KEY, doc JSONB NOT NULL), supporting multiple database
// adapters (pgx, sql.DB, sqlx) with JSONB containment filtering.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX), including a read replica
//   - Filter matching through the JSONB containment operator, including nested paths
//   - Unique document field indexes with duplicate key classification
//   - Configurable table name prefix and dual-logger support
//   - Schema helpers to create and drop collection tables
//
// JSONB normalizes object key order, so documents read back from this engine
// carry their fields in normalized order, not insertion order. Field paths
// and values are unaffected.
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewEngineFromPGXPool(db)
//
//	// With a table prefix and operational logging
//	store, _ := postgresengine.NewEngineFromPGXPool(
//		db,
//		postgresengine.WithTablePrefix("odm_"),
//		postgresengine.WithLogger(logger),
//	)
//
//	_ = store.CreateCollectionTable(ctx, "readers")
//	_ = store.CreateUniqueDocIndex(ctx, "readers", "email")
//
//	repo, _ := odm.NewRepository[Reader](store, "readers")
package postgresengine
