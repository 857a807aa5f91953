package exporter

// Row is a record that can be laid out as one spreadsheet row.
type Row interface {
	Columns() []string
	Values() []any
}

// Table is a named, ordered set of rows with a header.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// NewTable lays records out in insertion order. The header comes from the
// zero value, so an empty slice still yields a header row.
func NewTable[T Row](name string, records []T) Table {
	var zero T
	t := Table{
		Name:   name,
		Header: zero.Columns(),
		Rows:   make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, r.Values())
	}
	return t
}
