package fixtures

import (
	"testing"

	"github.com/google/uuid"
)

// GivenUniqueEmail returns an email address unique to this test run, so
// tests against a shared database never collide on unique indexes.
func GivenUniqueEmail(t *testing.T) string {
	t.Helper()

	return uuid.NewString() + "@example.com"
}

// GivenUniqueName returns a reader name unique to this test run.
func GivenUniqueName(t *testing.T) string {
	t.Helper()

	return "Reader " + uuid.NewString()
}
