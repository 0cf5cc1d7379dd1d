package odm

// State is the lifecycle state of a Document.
type State int

const (
	// StateNew marks a document that only exists in memory.
	StateNew State = iota

	// StatePersisted marks a document that is backed by a stored record.
	StatePersisted

	// StateRemoved marks a document whose stored record was deleted.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePersisted:
		return "persisted"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Storable is implemented by every application document type that embeds
// Document, and only by those; it cannot be implemented any other way.
type Storable interface {
	base() *Document
}

// Validatable is implemented by document types that define validation rules.
// Validate may evaluate checks through the expectation engine or append to
// its collector directly; an implementation that records nothing passes.
type Validatable interface {
	Validate(e *Expectation)
}

// Document is the in-memory representation of one stored record: an ordered
// set of dynamically typed fields, an identity, a lifecycle state, and the
// error collector of the most recent validation pass.
//
// Application document types embed Document and add accessors and validation
// on top. The zero value is a usable document in state New.
type Document struct {
	fields   Fields
	identity ID
	state    State
	errs     *ErrorCollector
}

var _ Storable = (*Document)(nil)

func (d *Document) base() *Document {
	return d
}

// Set writes the field at the given path, `.`-separated for nested mappings.
// Intermediate mappings are created as needed, and setting an existing path
// replaces its value while keeping its position.
func (d *Document) Set(path string, value Value) {
	d.fields = d.fields.Set(path, value)
}

// Get reads the field at the given path. Unset paths read as null.
func (d *Document) Get(path string) Value {
	return d.fields.At(path)
}

// Fields returns the document's fields in document order. The returned slice
// is a copy and may be modified freely; the values it holds are shared.
func (d *Document) Fields() Fields {
	out := make(Fields, len(d.fields))
	copy(out, d.fields)

	return out
}

// Identity returns the document's identity. It is empty until the document
// was inserted or hydrated from a stored record.
func (d *Document) Identity() ID {
	return d.identity
}

// State returns the document's lifecycle state.
func (d *Document) State() State {
	return d.state
}

// IsNew reports whether the document only exists in memory.
func (d *Document) IsNew() bool {
	return d.state == StateNew
}

// IsPersisted reports whether the document is backed by a stored record.
func (d *Document) IsPersisted() bool {
	return d.state == StatePersisted
}

// IsRemoved reports whether the document's stored record was deleted.
func (d *Document) IsRemoved() bool {
	return d.state == StateRemoved
}

// Errors returns the collector of the most recent validation pass. It is
// replaced at the start of every pass, so after a failed insert or update it
// holds exactly that operation's failures.
func (d *Document) Errors() *ErrorCollector {
	if d.errs == nil {
		d.errs = NewErrorCollector()
	}

	return d.errs
}

// assignIdentity sets the identity exactly once.
func (d *Document) assignIdentity(id ID) error {
	if d.identity != "" {
		return ErrAlreadyPersisted
	}
	if id == "" {
		return ErrMissingIdentity
	}

	d.identity = id

	return nil
}

func (d *Document) markPersisted() {
	d.state = StatePersisted
}

func (d *Document) markRemoved() {
	d.state = StateRemoved
}

// hydrate loads a raw stored record into the document.
func (d *Document) hydrate(id ID, fields Fields) {
	d.fields = fields
	d.identity = id
	d.state = StatePersisted
	d.errs = NewErrorCollector()
}

// IsValid runs the document's validation rules against a fresh collector and
// reports whether no failures were recorded. The collector stays populated
// and readable through Errors afterwards. Document types without a Validate
// method are always valid.
func IsValid(document Storable) bool {
	base := document.base()
	base.errs = NewErrorCollector()

	if validatable, ok := document.(Validatable); ok {
		validatable.Validate(NewExpectation(base.errs))
	}

	return base.errs.IsEmpty()
}
