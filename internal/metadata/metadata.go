package metadata

// Metadata holds the bibliographic fields a source can provide. A nil field
// means the source had nothing to say about it; merging keeps the first
// non-nil value seen for each field.
type Metadata struct {
	Title    *string
	Authors  *string
	Abstract *string
}

// Empty reports whether no field is set.
func (m Metadata) Empty() bool {
	return m.Title == nil && m.Authors == nil && m.Abstract == nil
}

// merge fills fields that are still nil from other. Fields already set are
// never overwritten.
func (m *Metadata) merge(other Metadata) {
	if m.Title == nil {
		m.Title = other.Title
	}
	if m.Authors == nil {
		m.Authors = other.Authors
	}
	if m.Abstract == nil {
		m.Abstract = other.Abstract
	}
}

func stringPtr(s string) *string {
	return &s
}
