package odm

// ErrorEntry is one recorded validation failure, a field path plus a message.
type ErrorEntry struct {
	Field   string
	Message string
}

// ErrorCollector accumulates validation failures in the order they were
// recorded. An empty collector means validation passed. Collectors are not
// safe for concurrent use; each validation pass gets a fresh one.
type ErrorCollector struct {
	entries []ErrorEntry
}

// NewErrorCollector creates an empty collector.
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Append records one failure for the given field path.
func (c *ErrorCollector) Append(field string, message string) {
	c.entries = append(c.entries, ErrorEntry{Field: field, Message: message})
}

// IsEmpty reports whether no failures were recorded.
func (c *ErrorCollector) IsEmpty() bool {
	return len(c.entries) == 0
}

// Entries returns a copy of the recorded failures in insertion order.
func (c *ErrorCollector) Entries() []ErrorEntry {
	out := make([]ErrorEntry, len(c.entries))
	copy(out, c.entries)

	return out
}

// OnField returns the messages recorded for one field path, in insertion
// order.
func (c *ErrorCollector) OnField(field string) []string {
	var messages []string
	for _, entry := range c.entries {
		if entry.Field == field {
			messages = append(messages, entry.Message)
		}
	}

	return messages
}

// FullMessages renders every failure as "<field> <message>", in insertion
// order. Messages are rendered verbatim, so the conventional phrasing is
// lowercase fragments like "can't be empty".
func (c *ErrorCollector) FullMessages() []string {
	messages := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		messages = append(messages, entry.Field+" "+entry.Message)
	}

	return messages
}
