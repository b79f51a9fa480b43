package driver

// Field describes one column as exposed to the generic client API,
// either from a statement's result set or from schema introspection.
type Field struct {
	// Name is the column name with any quoting stripped.
	Name string
	// Type is the inferred generic kind.
	Type Kind
	// Required reports the NOT NULL constraint (schema fields only).
	Required bool
	// Default is the column's default value, Null() when absent
	// (schema fields only).
	Default Value
	// AutoValue reports whether the engine generates the value on
	// insert. Set only for a primary-key column declared exactly
	// "integer" (schema fields only).
	AutoValue bool
}

// Record is an ordered sequence of field descriptors. Introspection
// builds a fresh Record per call; records are never cached.
type Record struct {
	fields []Field
}

// Append adds a field to the record.
func (r *Record) Append(f Field) { r.fields = append(r.fields, f) }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// IsEmpty reports whether the record has no fields.
func (r Record) IsEmpty() bool { return len(r.fields) == 0 }

// Field returns the i-th field descriptor.
func (r Record) Field(i int) Field { return r.fields[i] }

// IndexOf returns the position of the named field, or -1.
func (r Record) IndexOf(name string) int {
	for i, f := range r.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}
