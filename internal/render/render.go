package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/querybuilder/internal/querytree"
)

// ErrMalformed is returned by Parse for input that is not an exported query.
var ErrMalformed = errors.New("malformed query")

// Indent renders q as JSON with two-space indentation and a trailing newline.
func Indent(q querytree.CleanQuery) ([]byte, error) {
	return encode(normalize(q), "  ")
}

// Compact renders q as single-line JSON without a trailing newline.
func Compact(q querytree.CleanQuery) ([]byte, error) {
	data, err := encode(normalize(q), "")
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(data, []byte("\n")), nil
}

// YAML renders q as a YAML document with two-space indentation.
func YAML(q querytree.CleanQuery) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(q)); err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func encode(q querytree.CleanQuery, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(q); err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return unescapeLineSeparators(buf.Bytes()), nil
}

// Parse decodes an exported query from JSON. Unknown keys, trailing data and
// logic other than AND or OR are rejected. Missing lists decode as empty.
func Parse(data []byte) (querytree.CleanQuery, error) {
	var q querytree.CleanQuery
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return querytree.CleanQuery{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return querytree.CleanQuery{}, fmt.Errorf("%w: trailing data after query", ErrMalformed)
	}

	g, err := checkGroup(querytree.CleanGroup(q), "root")
	if err != nil {
		return querytree.CleanQuery{}, err
	}
	return normalize(querytree.CleanQuery(g)), nil
}

// checkGroup validates logic and fills missing lists.
func checkGroup(g querytree.CleanGroup, path string) (querytree.CleanGroup, error) {
	if !g.Logic.Valid() {
		return g, fmt.Errorf("%w: %s: logic %q must be AND or OR", ErrMalformed, path, g.Logic)
	}
	if g.Conditions == nil {
		g.Conditions = []querytree.CleanCondition{}
	}
	groups := make([]querytree.CleanGroup, len(g.Groups))
	for i, child := range g.Groups {
		checked, err := checkGroup(child, fmt.Sprintf("%s.groups[%d]", path, i))
		if err != nil {
			return g, err
		}
		groups[i] = checked
	}
	g.Groups = groups
	return g, nil
}

// normalize returns a copy of q with every string in NFC and every list
// non-nil.
func normalize(q querytree.CleanQuery) querytree.CleanQuery {
	return querytree.CleanQuery(normalizeGroup(querytree.CleanGroup(q)))
}

func normalizeGroup(g querytree.CleanGroup) querytree.CleanGroup {
	out := querytree.CleanGroup{
		Logic:      querytree.Logic(norm.NFC.String(string(g.Logic))),
		Conditions: make([]querytree.CleanCondition, len(g.Conditions)),
		Groups:     make([]querytree.CleanGroup, len(g.Groups)),
	}
	for i, c := range g.Conditions {
		out.Conditions[i] = querytree.CleanCondition{
			Field:    norm.NFC.String(c.Field),
			Operator: norm.NFC.String(c.Operator),
			Value:    norm.NFC.String(c.Value),
		}
	}
	for i, child := range g.Groups {
		out.Groups[i] = normalizeGroup(child)
	}
	return out
}

// unescapeLineSeparators writes U+2028 and U+2029 literally. encoding/json
// escapes them for JavaScript embedding; an escaped backslash followed by
// "u2028" is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && backslashes%2 == 0 && i+5 < len(data) &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if data[i] == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, data[i])
	}
	return out
}
