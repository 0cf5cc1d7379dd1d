package odm

import (
	"github.com/google/uuid"
)

// ID is the identity of a persisted document.
// It is assigned by the storage engine when a document is first inserted.
type ID string

// IdentityField is the reserved filter key that matches a stored record's
// identity instead of a document field.
const IdentityField = "_id"

// NewID creates a new unique document identity.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}
