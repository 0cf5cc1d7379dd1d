package fixtures

import (
	"regexp"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

var emailPattern = regexp.MustCompile(`\A[^@\s]+@[^@\s]+\z`)

// Reader is a library reader document used across the test suites. Name and
// email are required, and a set email must look like an address.
type Reader struct {
	odm.Document
}

// NewReader builds a reader with the given fields, skipping empty ones so
// tests can leave fields unset.
func NewReader(name string, email string) *Reader {
	reader := &Reader{}
	if name != "" {
		reader.Set("name", odm.StringValue(name))
	}
	if email != "" {
		reader.Set("email", odm.StringValue(email))
	}

	return reader
}

func (r *Reader) Validate(e *odm.Expectation) {
	e.Present("name", r.Get("name"), "can't be empty")
	e.Present("email", r.Get("email"), "can't be empty")
	e.Match("email", r.Get("email"), emailPattern, "is not a valid address", odm.AllowNil())
}

func (r *Reader) Name() string {
	return r.Get("name").String()
}

func (r *Reader) Email() string {
	return r.Get("email").String()
}
