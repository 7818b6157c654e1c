package catalog

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Built-in field names.
const (
	FieldStatus     = "Status"
	FieldPriority   = "Priority"
	FieldAssignedTo = "Assigned To"
	FieldCategory   = "Category"
)

// Built-in operators, shared by every built-in field.
const (
	OpEquals         = "equals"
	OpNotEquals      = "not equals"
	OpContains       = "contains"
	OpDoesNotContain = "does not contain"
)

// Field is one catalog entry.
type Field struct {
	Name      string   `json:"name" yaml:"name"`
	Operators []string `json:"operators" yaml:"operators"`
	Values    []string `json:"values" yaml:"values"`
}

// Catalog is an ordered, read-only registry of fields.
type Catalog struct {
	fields []Field
	index  map[string]int
}

// New builds a catalog from the given fields, in order.
// Names, operators and values are stored in Unicode NFC form, so
// canonically equivalent spellings match and render byte-identically.
// It fails when there are no fields, a name is empty or repeated, or a
// field has no operators or no values.
func New(fields ...Field) (*Catalog, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: at least one field is required", ErrInvalidCatalog)
	}

	c := &Catalog{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		f = Field{Name: norm.NFC.String(f.Name), Operators: nfc(f.Operators), Values: nfc(f.Values)}
		if f.Name == "" {
			return nil, fmt.Errorf("%w: fields[%d]: name is required", ErrInvalidCatalog, i)
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: fields[%d]: duplicate field %q", ErrInvalidCatalog, i, f.Name)
		}
		if len(f.Operators) == 0 {
			return nil, fmt.Errorf("%w: field %q: at least one operator is required", ErrInvalidCatalog, f.Name)
		}
		if len(f.Values) == 0 {
			return nil, fmt.Errorf("%w: field %q: at least one value is required", ErrInvalidCatalog, f.Name)
		}
		c.index[f.Name] = i
		c.fields = append(c.fields, f)
	}
	return c, nil
}

// nfc returns an NFC-normalized copy of ss.
func nfc(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = norm.NFC.String(s)
	}
	return out
}

// MustNew is like New but panics on error.
// Use only for tables known to be valid at compile time.
func MustNew(fields ...Field) *Catalog {
	c, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return c
}

var builtin = MustNew(
	Field{Name: FieldStatus, Operators: defaultOperators(), Values: []string{"Open", "In Progress", "Closed"}},
	Field{Name: FieldPriority, Operators: defaultOperators(), Values: []string{"Low", "Medium", "High"}},
	Field{Name: FieldAssignedTo, Operators: defaultOperators(), Values: []string{"User A", "User B", "User C"}},
	Field{Name: FieldCategory, Operators: defaultOperators(), Values: []string{"Bug", "Feature", "Task"}},
)

func defaultOperators() []string {
	return []string{OpEquals, OpNotEquals, OpContains, OpDoesNotContain}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return builtin
}

// Fields returns the field names in catalog order.
func (c *Catalog) Fields() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Entries returns a copy of every catalog entry in order.
func (c *Catalog) Entries() []Field {
	out := make([]Field, len(c.fields))
	for i, f := range c.fields {
		out[i] = Field{Name: f.Name, Operators: slices.Clone(f.Operators), Values: slices.Clone(f.Values)}
	}
	return out
}

// HasField reports whether name is a catalog field.
func (c *Catalog) HasField(name string) bool {
	_, ok := c.index[norm.NFC.String(name)]
	return ok
}

// OperatorsFor returns the ordered operators allowed for field.
func (c *Catalog) OperatorsFor(field string) ([]string, error) {
	f, err := c.lookup(field)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.Operators), nil
}

// ValuesFor returns the ordered values allowed for field.
func (c *Catalog) ValuesFor(field string) ([]string, error) {
	f, err := c.lookup(field)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.Values), nil
}

// AllowsOperator reports whether op is allowed for field.
// Unknown fields allow nothing.
func (c *Catalog) AllowsOperator(field, op string) bool {
	f, err := c.lookup(field)
	return err == nil && slices.Contains(f.Operators, norm.NFC.String(op))
}

// AllowsValue reports whether value is allowed for field.
func (c *Catalog) AllowsValue(field, value string) bool {
	f, err := c.lookup(field)
	return err == nil && slices.Contains(f.Values, norm.NFC.String(value))
}

// Defaults returns the first field with its first operator and first value.
func (c *Catalog) Defaults() (field, operator, value string) {
	f := c.fields[0]
	return f.Name, f.Operators[0], f.Values[0]
}

// FirstOperator returns the first operator allowed for field.
func (c *Catalog) FirstOperator(field string) (string, error) {
	f, err := c.lookup(field)
	if err != nil {
		return "", err
	}
	return f.Operators[0], nil
}

// FirstValue returns the first value allowed for field.
func (c *Catalog) FirstValue(field string) (string, error) {
	f, err := c.lookup(field)
	if err != nil {
		return "", err
	}
	return f.Values[0], nil
}

func (c *Catalog) lookup(field string) (Field, error) {
	i, ok := c.index[norm.NFC.String(field)]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return c.fields[i], nil
}
