package types

// Column describes one field of a schema: its name and value type.
type Column struct {
	Name string
	Type TypeID
}

// Schema is an ordered column list, the minimum a Tuple needs to interpret
// its own raw values.
type Schema struct {
	Columns []Column
}

// NewSchema builds a Schema from a column list.
func NewSchema(columns []Column) *Schema {
	return &Schema{Columns: columns}
}

// ColumnCount returns the number of columns in the schema.
func (s *Schema) ColumnCount() int { return len(s.Columns) }

// ColumnAt returns the column at index i.
func (s *Schema) ColumnAt(i int) Column { return s.Columns[i] }

// Tuple is a fixed-arity row of values, ordered to match some Schema.
type Tuple struct {
	Values []Value
}

// NewTuple builds a Tuple from a value list.
func NewTuple(values []Value) *Tuple { return &Tuple{Values: values} }

// GetValue returns the value at the schema's column index idx.
func (t *Tuple) GetValue(schema *Schema, idx int) Value {
	_ = schema
	return t.Values[idx]
}
