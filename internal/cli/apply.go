package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/querytree"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	From    string // exported query to start from
	ShowIDs bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <script>",
		Short: "Apply an edit script to a query",
		Long: `Apply a YAML edit script to the default query, or to an exported
query given with --from, and print the result.

Edits whose target container or node does not exist are skipped.
An edit naming a field, operator, value or logic the catalog does not
allow stops the script.

Sequence ids make targets predictable:

  edits:
    - op: add_group
    - op: add_condition
      ref: root/id-2

Exit codes:
  0 - All edits applied or skipped
  1 - An edit was rejected
  2 - Command error (invalid paths, malformed script, etc.)

Examples:
  qb apply edits.yaml --ids sequence
  qb apply edits.yaml --from saved.json --ids sequence --show-ids`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "exported query to start from (- for stdin)")
	cmd.Flags().BoolVar(&opts.ShowIDs, "show-ids", false, "print node ids")

	return cmd
}

func runApply(opts *ApplyOptions, scriptPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	script, err := querytree.LoadScript(scriptPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("script not found: %s", scriptPath))
		}
		return f.Fail(ExitCommandError, ErrCodeParse, err.Error())
	}

	model, err := opts.newModel()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("failed to load catalog: %v", err))
	}

	// The starting tree draws the first ids, so a loaded query is numbered
	// from the start of the sequence.
	var q querytree.Query
	if opts.From == "" {
		q = model.NewQuery()
	} else {
		clean, err := loadQuery(cmd, f, opts.From)
		if err != nil {
			return err
		}
		q = model.Hydrate(clean)
		f.VerboseLog("Loaded %s", opts.From)
	}

	summary := &EditSummary{}
	for i, e := range script.Edits {
		next, applied, err := model.Apply(q, e)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeEdit, fmt.Sprintf("edit %d rejected: %v", i, err))
		}
		if applied {
			summary.Applied++
		} else {
			summary.Ignored++
			f.VerboseLog("Skipped edit %d (%s %s): target not found", i, e.Op, e.Ref)
		}
		q = next
	}

	f.VerboseLog("Applied %d edit(s), skipped %d", summary.Applied, summary.Ignored)
	return writeQuery(f, q, opts.ShowIDs, summary)
}
