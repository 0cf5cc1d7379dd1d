package core

import (
	"regexp"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// CollectionReaders is the collection readers are stored in.
const CollectionReaders = "readers"

var emailPattern = regexp.MustCompile(`\A[^@\s]+@[^@\s]+\z`)

// Reader represents a reader registered at the library.
type Reader struct {
	odm.Document
}

// NewReader builds a new reader with the given name and email.
func NewReader(name string, email string) *Reader {
	reader := &Reader{}
	reader.Set("name", odm.StringValue(name))
	reader.Set("email", odm.StringValue(email))

	return reader
}

// Validate declares the reader's validation rules. Name and email are
// required, a membership number is optional but must be numeric when set.
func (r *Reader) Validate(e *odm.Expectation) {
	e.Present("name", r.Get("name"), "can't be empty")
	e.Length("name", r.Get("name"), "must be 100 characters or fewer", odm.WithMaximum(100), odm.AllowNil())
	e.Present("email", r.Get("email"), "can't be empty")
	e.Match("email", r.Get("email"), emailPattern, "is not a valid address", odm.AllowNil())
	e.Numeric("membership_number", r.Get("membership_number"), "must be a number", odm.AllowNil())
}

func (r *Reader) Name() string {
	return r.Get("name").String()
}

func (r *Reader) Email() string {
	return r.Get("email").String()
}

// CreatedAt returns the creation timestamp stamped by the
// TimestampsObserver on insert.
func (r *Reader) CreatedAt() string {
	return r.Get(FieldCreatedAt).String()
}

// UpdatedAt returns the last-write timestamp stamped by the
// TimestampsObserver on every insert and update.
func (r *Reader) UpdatedAt() string {
	return r.Get(FieldUpdatedAt).String()
}
