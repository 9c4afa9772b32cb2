package table

import "fmt"

// ColumnType enumerates the value kinds a Dataset column can hold.
type ColumnType int

const (
	String ColumnType = iota
	Float
	Vector
)

func (t ColumnType) String() string {
	switch t {
	case String:
		return "string"
	case Float:
		return "float"
	case Vector:
		return "vector"
	}
	return "unknown"
}

// Column describes one named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of columns in a Dataset.
type Schema []Column

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (s Schema) Has(name string) bool { return s.Index(name) >= 0 }

// SchemaError reports a reference to a column absent from a Dataset's schema.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not in schema", e.Column)
}

// Dataset is an ordered collection of rows with named, typed columns.
// Float columns use math.NaN() for missing values; vector columns use nil.
// A Dataset is never mutated after construction: the With* methods return a
// new Dataset sharing the unchanged column storage.
type Dataset struct {
	schema Schema
	n      int
	str    map[string][]string
	num    map[string][]float64
	vec    map[string][][]float64
}

// New returns an empty Dataset of n rows with no columns yet.
func New(n int) *Dataset {
	return &Dataset{
		n:   n,
		str: map[string][]string{},
		num: map[string][]float64{},
		vec: map[string][][]float64{},
	}
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return d.n }

// Schema returns the ordered column descriptions.
func (d *Dataset) Schema() Schema { return d.schema }

func (d *Dataset) clone() *Dataset {
	out := &Dataset{
		schema: append(Schema(nil), d.schema...),
		n:      d.n,
		str:    make(map[string][]string, len(d.str)),
		num:    make(map[string][]float64, len(d.num)),
		vec:    make(map[string][][]float64, len(d.vec)),
	}
	for k, v := range d.str {
		out.str[k] = v
	}
	for k, v := range d.num {
		out.num[k] = v
	}
	for k, v := range d.vec {
		out.vec[k] = v
	}
	return out
}

func (d *Dataset) addCol(name string, typ ColumnType) {
	if i := d.schema.Index(name); i >= 0 {
		// replacing an existing column of the same name
		delete(d.str, name)
		delete(d.num, name)
		delete(d.vec, name)
		d.schema[i] = Column{Name: name, Type: typ}
		return
	}
	d.schema = append(d.schema, Column{Name: name, Type: typ})
}

// WithStrings returns a new Dataset with a string column appended (or replaced).
func (d *Dataset) WithStrings(name string, vals []string) (*Dataset, error) {
	if len(vals) != d.n {
		return nil, fmt.Errorf("column %q: %d values for %d rows", name, len(vals), d.n)
	}
	out := d.clone()
	out.addCol(name, String)
	out.str[name] = vals
	return out, nil
}

// WithFloats returns a new Dataset with a float column appended (or replaced).
func (d *Dataset) WithFloats(name string, vals []float64) (*Dataset, error) {
	if len(vals) != d.n {
		return nil, fmt.Errorf("column %q: %d values for %d rows", name, len(vals), d.n)
	}
	out := d.clone()
	out.addCol(name, Float)
	out.num[name] = vals
	return out, nil
}

// WithVectors returns a new Dataset with a vector column appended (or replaced).
func (d *Dataset) WithVectors(name string, vals [][]float64) (*Dataset, error) {
	if len(vals) != d.n {
		return nil, fmt.Errorf("column %q: %d values for %d rows", name, len(vals), d.n)
	}
	out := d.clone()
	out.addCol(name, Vector)
	out.vec[name] = vals
	return out, nil
}

// Strings returns the named string column.
func (d *Dataset) Strings(name string) ([]string, error) {
	col, ok := d.str[name]
	if !ok {
		return nil, &SchemaError{Column: name}
	}
	return col, nil
}

// Floats returns the named float column.
func (d *Dataset) Floats(name string) ([]float64, error) {
	col, ok := d.num[name]
	if !ok {
		return nil, &SchemaError{Column: name}
	}
	return col, nil
}

// Vectors returns the named vector column.
func (d *Dataset) Vectors(name string) ([][]float64, error) {
	col, ok := d.vec[name]
	if !ok {
		return nil, &SchemaError{Column: name}
	}
	return col, nil
}

// Take returns a new Dataset holding the rows at idx, in idx order.
// Used for row filtering and train/validation splitting.
func (d *Dataset) Take(idx []int) *Dataset {
	out := New(len(idx))
	out.schema = append(Schema(nil), d.schema...)
	for name, col := range d.str {
		sel := make([]string, len(idx))
		for i, j := range idx {
			sel[i] = col[j]
		}
		out.str[name] = sel
	}
	for name, col := range d.num {
		sel := make([]float64, len(idx))
		for i, j := range idx {
			sel[i] = col[j]
		}
		out.num[name] = sel
	}
	for name, col := range d.vec {
		sel := make([][]float64, len(idx))
		for i, j := range idx {
			sel[i] = col[j]
		}
		out.vec[name] = sel
	}
	return out
}
