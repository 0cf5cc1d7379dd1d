// Package postgreswrapper provides test utilities for abstracting over different PostgreSQL database adapters.
//
// This package enables testing of the document store engine across multiple database drivers
// (pgx, sql.DB, sqlx.DB) using a common Wrapper interface. The specific adapter type is determined
// by the ADAPTER_TYPE environment variable, allowing the same test suite to run against different
// database implementations.
//
// Key features:
//   - Unified interface for different PostgreSQL adapters
//   - Collection setup helpers that reset tables and unique indexes between tests
//   - Environment-based adapter selection for CI/CD flexibility
//
// Usage:
//
//	// Create wrapper for testing
//	wrapper := CreateWrapperWithTestConfig(t)
//	defer wrapper.Close()
//
//	// Reset the collection between tests
//	SetUpCollection(t, wrapper.GetEngine(), "readers", "email")
//
//	// Use the engine
//	engine := wrapper.GetEngine()
package postgreswrapper
