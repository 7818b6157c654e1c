package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/querybuilder/internal/querytree"
	"github.com/roach88/querybuilder/internal/render"
)

// QueryOutput is the structured payload of commands that print a query.
type QueryOutput struct {
	Query       any              `json:"query" yaml:"query"`
	Fingerprint string           `json:"fingerprint" yaml:"fingerprint"`
	Stats       querytree.Stats  `json:"stats" yaml:"stats"`
	Edits       *EditSummary     `json:"edits,omitempty" yaml:"edits,omitempty"`
	Validation  *ValidateSummary `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// EditSummary counts the outcome of an edit script.
type EditSummary struct {
	Applied int `json:"applied" yaml:"applied"`
	Ignored int `json:"ignored" yaml:"ignored"`
}

// ValidateSummary is the short form of a validation result.
type ValidateSummary struct {
	Valid  bool `json:"valid" yaml:"valid"`
	Errors int  `json:"errors" yaml:"errors"`
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// loadQuery reads and parses an exported query. Read and parse failures are
// reported through f.
func loadQuery(cmd *cobra.Command, f *OutputFormatter, path string) (querytree.CleanQuery, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return querytree.CleanQuery{}, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("query file not found: %s", path))
		}
		return querytree.CleanQuery{}, f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to read query: %v", err))
	}

	clean, err := render.Parse(data)
	if err != nil {
		return querytree.CleanQuery{}, f.Fail(ExitCommandError, ErrCodeParse, err.Error())
	}
	return clean, nil
}

// writeQuery prints q: canonical text for the text format, the rendered YAML
// for yaml, and a QueryOutput envelope for json. With showIDs the editable
// tree is printed instead of its export.
func writeQuery(f *OutputFormatter, q querytree.Query, showIDs bool, edits *EditSummary) error {
	clean := querytree.Sanitize(q)

	switch {
	case f.Format == "json":
		fingerprint, err := render.Fingerprint(clean)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err.Error())
		}
		out := QueryOutput{Query: clean, Fingerprint: fingerprint, Stats: querytree.Measure(q), Edits: edits}
		if showIDs {
			out.Query = q
		}
		return f.Success(out)

	case showIDs:
		data, err := encodeTree(q, f.Format)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err.Error())
		}
		_, err = f.Writer.Write(data)
		return err

	default:
		encode := render.Indent
		if f.Format == "yaml" {
			encode = render.YAML
		}
		data, err := encode(clean)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err.Error())
		}
		_, err = f.Writer.Write(data)
		return err
	}
}

// encodeTree prints the editable tree, ids included.
func encodeTree(q querytree.Query, format string) ([]byte, error) {
	var buf bytes.Buffer
	if format == "yaml" {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(q); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(q); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
