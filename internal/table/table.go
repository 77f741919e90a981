// Package table defines the minimal column-addressable data container the
// linkage core operates over. Real callers wire in whatever storage they
// already have (a SQL result set, a CSV reader, an Arrow batch); the core
// only ever needs to read a column and append one, so we model that as an
// interface instead of depending on a concrete dataframe type.
package table

import "fmt"

// Table is a read-mostly, column-addressable collection of rows. Every
// column has the same length, equal to Len(). Values are untyped (any)
// because the linkage core treats raw fields generically — stringifying,
// parsing dates, casefolding — and is agnostic to the caller's original
// column types.
type Table interface {
	// Len returns the number of rows.
	Len() int
	// Columns returns the names of the columns currently present, in a
	// stable order.
	Columns() []string
	// Column returns the values of column name, and whether it exists.
	Column(name string) ([]any, bool)
	// SetColumn appends or replaces a column. len(values) must equal
	// Len(), except when the table has no columns yet and Len() == 0, in
	// which case the table adopts len(values) as its row count.
	SetColumn(name string, values []any) error
	// Clone returns a shallow copy: a new Table whose columns can be
	// replaced independently of the original, per the same semantics
	// as Frame.Clone.
	Clone() Table
}

// Frame is an in-memory reference implementation of Table, analogous to
// the "ordered sequence of records with named columns" described in the
// design notes: a thin composition wrapper rather than a type any other
// object need subclass.
type Frame struct {
	order []string
	cols  map[string][]any
	n     int
}

// NewFrame creates an empty frame with the given expected row count. A
// row count of zero is valid; the first SetColumn call fixes it.
func NewFrame(rows int) *Frame {
	return &Frame{
		cols: make(map[string][]any),
		n:    rows,
	}
}

// NewFrameFromColumns builds a Frame from a set of equal-length columns.
// The iteration order of cols is not guaranteed by Go maps, so callers
// that care about column order should follow up with SetColumn calls, or
// use NewFrame and build it up incrementally.
func NewFrameFromColumns(cols map[string][]any) (*Frame, error) {
	f := NewFrame(0)
	for name, values := range cols {
		if err := f.SetColumn(name, values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len implements Table.
func (f *Frame) Len() int { return f.n }

// Columns implements Table.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Column implements Table.
func (f *Frame) Column(name string) ([]any, bool) {
	values, ok := f.cols[name]
	return values, ok
}

// SetColumn implements Table.
func (f *Frame) SetColumn(name string, values []any) error {
	if f.n == 0 && len(f.cols) == 0 {
		f.n = len(values)
	}
	if len(values) != f.n {
		return fmt.Errorf("table: column %q has %d rows, frame has %d", name, len(values), f.n)
	}
	if _, exists := f.cols[name]; !exists {
		f.order = append(f.order, name)
	}
	f.cols[name] = values
	return nil
}

// Clone makes a shallow copy of f: a new Frame with the same column
// slices. Mutating a returned column slice in place would be visible in
// both the clone and the original; replacing a column with SetColumn is
// not. Returns Table to satisfy the Table interface; callers that need
// the concrete type can type-assert.
func (f *Frame) Clone() Table {
	clone := &Frame{
		order: append([]string(nil), f.order...),
		cols:  make(map[string][]any, len(f.cols)),
		n:     f.n,
	}
	for k, v := range f.cols {
		clone.cols[k] = v
	}
	return clone
}

// Strings returns column name stringified via fmt.Sprint, with nil
// entries mapped to the empty string. This is the normalisation every
// feature function in internal/features except the sex kind's performs
// before tokenising; sex works on the raw values.
func Strings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = ""
			continue
		}
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
