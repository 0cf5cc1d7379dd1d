package fixtures

import (
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// Note is a free-form document without validation rules, covering document
// types that do not implement Validatable.
type Note struct {
	odm.Document
}

// NewNote builds a note with the given body.
func NewNote(body string) *Note {
	note := &Note{}
	note.Set("body", odm.StringValue(body))

	return note
}
