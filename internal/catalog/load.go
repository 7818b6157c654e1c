package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// schemaSource constrains catalog files. Definitions are closed, so unknown
// keys are rejected during unification.
const schemaSource = `
#Field: {
	name:       string & !=""
	operators?: [...(string & !="")]
	values:     [string, ...string]
}

#Catalog: {
	operators?: [...(string & !="")]
	fields:     [#Field, ...#Field]
}
`

// file is the decoded layout shared by CUE and YAML catalogs.
type file struct {
	Operators []string    `yaml:"operators"`
	Fields    []fileField `yaml:"fields"`
}

type fileField struct {
	Name      string   `yaml:"name"`
	Operators []string `yaml:"operators"`
	Values    []string `yaml:"values"`
}

// Load reads a catalog file, choosing the decoder from the extension
// (.cue, .yaml or .yml).
func Load(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, &LoadError{Path: path, Message: "unsupported catalog format (want .cue, .yaml or .yml)"}
	}
}

// LoadCUE reads and decodes a CUE catalog file.
func LoadCUE(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCUE(data, path)
}

// ParseCUE decodes CUE source into a catalog. filename is used in positions.
func ParseCUE(data []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(filename, err)
	}

	var f file
	shared, err := stringList(unified.LookupPath(cue.ParsePath("operators")))
	if err != nil {
		return nil, formatCUEError(filename, err)
	}
	f.Operators = shared

	iter, err := unified.LookupPath(cue.ParsePath("fields")).List()
	if err != nil {
		return nil, formatCUEError(filename, err)
	}
	for iter.Next() {
		fv := iter.Value()

		name, err := fv.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return nil, formatCUEError(filename, err)
		}
		ops, err := stringList(fv.LookupPath(cue.ParsePath("operators")))
		if err != nil {
			return nil, formatCUEError(filename, err)
		}
		vals, err := stringList(fv.LookupPath(cue.ParsePath("values")))
		if err != nil {
			return nil, formatCUEError(filename, err)
		}
		f.Fields = append(f.Fields, fileField{Name: name, Operators: ops, Values: vals})
	}

	return f.build(filename)
}

// LoadYAML reads and decodes a YAML catalog file.
func LoadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseYAML(data, path)
}

// ParseYAML decodes YAML into a catalog. Unknown keys are rejected.
func ParseYAML(data []byte, filename string) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &LoadError{Path: filename, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}
	return f.build(filename)
}

// build applies shared operators and constructs the catalog.
func (f file) build(filename string) (*Catalog, error) {
	fields := make([]Field, 0, len(f.Fields))
	for _, ff := range f.Fields {
		ops := ff.Operators
		if len(ops) == 0 {
			ops = f.Operators
		}
		fields = append(fields, Field{Name: ff.Name, Operators: ops, Values: ff.Values})
	}

	c, err := New(fields...)
	if err != nil {
		return nil, &LoadError{Path: filename, Message: err.Error()}
	}
	return c, nil
}

// stringList decodes an optional CUE list of strings.
func stringList(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError keeps the position of the first CUE error.
func formatCUEError(filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: filename, Message: err.Error()}
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Path: filename, Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Path: filename, Message: first.Error()}
}
