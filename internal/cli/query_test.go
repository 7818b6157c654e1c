package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybuilder/internal/catalog"
	"github.com/roach88/querybuilder/internal/querytree"
	"github.com/roach88/querybuilder/internal/render"
)

const defaultExport = `{
  "logic": "AND",
  "conditions": [
    {
      "field": "Status",
      "operator": "equals",
      "value": "Open"
    }
  ],
  "groups": []
}
`

// queryResponse mirrors CLIResponse with a typed QueryOutput payload.
type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Query       querytree.CleanQuery `json:"query"`
		Fingerprint string               `json:"fingerprint"`
		Stats       querytree.Stats      `json:"stats"`
		Edits       *EditSummary         `json:"edits"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func decodeQueryResponse(t *testing.T, out string) queryResponse {
	t.Helper()
	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestNew_Text(t *testing.T) {
	out, err := execute(t, "new")
	require.NoError(t, err)
	assert.Equal(t, defaultExport, out)
}

func TestNew_JSON(t *testing.T) {
	out, err := execute(t, "new", "--format", "json")
	require.NoError(t, err)

	resp := decodeQueryResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, querytree.LogicAnd, resp.Data.Query.Logic)
	require.Len(t, resp.Data.Query.Conditions, 1)
	assert.Equal(t, "Status", resp.Data.Query.Conditions[0].Field)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Equal(t, querytree.Stats{Conditions: 1}, resp.Data.Stats)
	assert.Nil(t, resp.Data.Edits)
}

func TestNew_YAML(t *testing.T) {
	out, err := execute(t, "new", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "logic: AND\n")
	assert.Contains(t, out, "field: Status")
	assert.Contains(t, out, "groups: []\n")
}

func TestNew_CustomCatalog(t *testing.T) {
	out, err := execute(t, "new", "--catalog", filepath.Join("..", "catalog", "testdata", "tickets.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, `"field": "Severity"`)
	assert.Contains(t, out, `"value": "S1"`)
}

func TestNew_MissingCatalog(t *testing.T) {
	out, err := execute(t, "new", "--catalog", filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

func TestCatalog_Text(t *testing.T) {
	out, err := execute(t, "catalog")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Status\n"), out)
	assert.Contains(t, out, "  operators: equals, not equals, contains, does not contain\n")
	assert.Contains(t, out, "  values:    Open, In Progress, Closed\n")
	assert.Contains(t, out, "Category\n")
}

func TestCatalog_JSON(t *testing.T) {
	out, err := execute(t, "catalog", "--format", "json",
		"--catalog", filepath.Join("..", "catalog", "testdata", "tickets.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CatalogOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Fields, 2)
	assert.Equal(t, catalog.Field{
		Name:      "Owner",
		Operators: []string{"equals"},
		Values:    []string{"Team Red", "Team Blue"},
	}, resp.Data.Fields[1])
}

const nestedScript = `edits:
  - op: add_group
  - op: add_condition
    ref: root/id-2
  - op: remove_group
    id: ghost
`

func TestApply_Script(t *testing.T) {
	script := writeFile(t, t.TempDir(), "edits.yaml", nestedScript)

	out, err := execute(t, "apply", script, "--ids", "sequence")
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("..", "render", "testdata", "golden", "nested_group.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestApply_JSONSummary(t *testing.T) {
	script := writeFile(t, t.TempDir(), "edits.yaml", nestedScript)

	out, err := execute(t, "apply", script, "--ids", "sequence", "--format", "json")
	require.NoError(t, err)

	resp := decodeQueryResponse(t, out)
	require.NotNil(t, resp.Data.Edits)
	assert.Equal(t, EditSummary{Applied: 2, Ignored: 1}, *resp.Data.Edits)
	assert.Equal(t, querytree.Stats{Conditions: 2, Groups: 1, Depth: 1}, resp.Data.Stats)
}

func TestApply_ShowIDs(t *testing.T) {
	script := writeFile(t, t.TempDir(), "edits.yaml", nestedScript)

	out, err := execute(t, "apply", script, "--ids", "sequence", "--show-ids")
	require.NoError(t, err)

	var q querytree.Query
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, "id-1", q.Conditions[0].ID)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, "id-2", q.Groups[0].ID)
	assert.Equal(t, "id-3", q.Groups[0].Conditions[0].ID)
}

func TestApply_From(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "saved.json",
		`{"logic":"OR","conditions":[{"field":"Priority","operator":"not equals","value":"High"}],"groups":[]}`)
	script := writeFile(t, dir, "edits.yaml", "edits:\n  - op: update_condition\n    id: id-1\n    field: Category\n")

	out, err := execute(t, "apply", script, "--from", from, "--ids", "sequence", "--format", "json")
	require.NoError(t, err)

	resp := decodeQueryResponse(t, out)
	assert.Equal(t, querytree.CleanQuery{
		Logic: querytree.LogicOr,
		Conditions: []querytree.CleanCondition{
			{Field: "Category", Operator: "not equals", Value: "Bug"},
		},
		Groups: []querytree.CleanGroup{},
	}, resp.Data.Query)
}

func TestApply_FromNumbersLoadedQueryFirst(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "saved.json",
		`{"logic":"AND","conditions":[{"field":"Status","operator":"equals","value":"Closed"}],`+
			`"groups":[{"logic":"OR","conditions":[{"field":"Priority","operator":"equals","value":"Low"}],"groups":[]}]}`)
	script := writeFile(t, dir, "edits.yaml", "edits: []\n")

	out, err := execute(t, "apply", script, "--from", from, "--ids", "sequence", "--show-ids")
	require.NoError(t, err)

	var q querytree.Query
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "id-1", q.Conditions[0].ID)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, "id-2", q.Groups[0].ID)
	assert.Equal(t, "id-3", q.Groups[0].Conditions[0].ID)
}

func TestApply_RejectedEdit(t *testing.T) {
	script := writeFile(t, t.TempDir(), "edits.yaml",
		"edits:\n  - op: update_condition\n    id: id-1\n    value: Reopened\n")

	out, err := execute(t, "apply", script, "--ids", "sequence")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: edit 0 rejected")
}

func TestApply_Errors(t *testing.T) {
	dir := t.TempDir()
	badScript := writeFile(t, dir, "bad.yaml", "edits:\n  - op: add_group\n    colour: red\n")
	badFrom := writeFile(t, dir, "bad.json", `{"logic":"XOR","conditions":[],"groups":[]}`)
	goodScript := writeFile(t, dir, "good.yaml", "edits: []\n")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing script", []string{"apply", filepath.Join(dir, "missing.yaml")}, ErrCodeNotFound},
		{"malformed script", []string{"apply", badScript}, ErrCodeParse},
		{"missing from", []string{"apply", goodScript, "--from", filepath.Join(dir, "missing.json")}, ErrCodeNotFound},
		{"malformed from", []string{"apply", goodScript, "--from", badFrom}, ErrCodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

const unorderedQuery = `{"groups":[],"conditions":[{"value":"A & <B>","operator":"contains","field":"Assigned To"}],"logic":"OR"}`

func TestRender_Canonical(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.json", unorderedQuery)

	out, err := execute(t, "render", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \"logic\": \"OR\",\n  \"conditions\": ["), out)
	assert.Contains(t, out, `"value": "A & <B>"`)
	assert.True(t, strings.HasSuffix(out, "  \"groups\": []\n}\n"), out)
}

func TestRender_Compact(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.json", unorderedQuery)

	out, err := execute(t, "render", path, "--compact")
	require.NoError(t, err)
	assert.Equal(t,
		`{"logic":"OR","conditions":[{"field":"Assigned To","operator":"contains","value":"A & <B>"}],"groups":[]}`+"\n",
		out)
}

func TestRender_Fingerprint(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.json", unorderedQuery)
	clean, err := render.Parse([]byte(unorderedQuery))
	require.NoError(t, err)

	out, err := execute(t, "render", path, "--fingerprint")
	require.NoError(t, err)
	assert.Equal(t, render.MustFingerprint(clean)+"\n", out)
}

func TestRender_Stdin(t *testing.T) {
	out, err := executeWithInput(t, strings.NewReader(unorderedQuery), "render", "-", "--format", "json")
	require.NoError(t, err)

	resp := decodeQueryResponse(t, out)
	assert.Equal(t, querytree.LogicOr, resp.Data.Query.Logic)
	assert.Equal(t, querytree.Stats{Conditions: 1}, resp.Data.Stats)
	assert.NotEmpty(t, resp.Data.Fingerprint)
}

func TestRender_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.json", `{"logic":"AND","conditions":[],"groups":[],"extra":1}`)

	out, err := execute(t, "render", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeQueryResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
}
