package types

// Attributes is the caller-visible key/value mapping held by a session.
// Values must be JSON-serializable. Keys beginning with an underscore
// are reserved for internal bookkeeping and are never returned to
// callers.
type Attributes map[string]interface{}

// Clone returns a shallow copy of the mapping. A nil receiver yields
// an empty, non-nil mapping.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge copies every key/value pair from src over the receiver.
// Existing keys absent from src are preserved.
func (a Attributes) Merge(src Attributes) {
	for k, v := range src {
		a[k] = v
	}
}
