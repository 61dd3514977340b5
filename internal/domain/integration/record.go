package integration

import "context"

// Attribute is one named value from an external record. Values arrive as
// wire-format strings; typing happens later during normalization.
type Attribute struct {
	Name  string
	Value string
}

// ExternalRecord is one loosely-typed item from the remote system. It has no
// fixed schema: attribute sets vary by integration and by record. Attribute
// order is preserved from the wire.
type ExternalRecord struct {
	attrs []Attribute
}

// NewExternalRecord builds a record from ordered attributes
func NewExternalRecord(attrs ...Attribute) ExternalRecord {
	return ExternalRecord{attrs: attrs}
}

// Set appends or replaces an attribute by name
func (r *ExternalRecord) Set(name, value string) {
	for i := range r.attrs {
		if r.attrs[i].Name == name {
			r.attrs[i].Value = value
			return
		}
	}
	r.attrs = append(r.attrs, Attribute{Name: name, Value: value})
}

// Get returns the attribute value and whether it was present
func (r ExternalRecord) Get(name string) (string, bool) {
	for _, a := range r.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attributes returns the record's attributes in wire order
func (r ExternalRecord) Attributes() []Attribute {
	return r.attrs
}

// Len returns the number of attributes
func (r ExternalRecord) Len() int {
	return len(r.attrs)
}

// RecordSource is the port for fetching records from a remote system.
// Implementations must tolerate the envelope variations of the wire format;
// a malformed but parseable response yields an empty slice, while transport
// and authentication failures are returned as errors.
type RecordSource interface {
	Fetch(ctx context.Context, integ *Integration, kind SyncKind) ([]ExternalRecord, error)
}
