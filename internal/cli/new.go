package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	ShowIDs bool
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Print the default query",
		Long: `Print the query a builder starts from: an AND root holding one
default condition (first field, its first operator, its first value).

Examples:
  qb new
  qb new --catalog ./fields.cue --format yaml
  qb new --ids sequence --show-ids`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowIDs, "show-ids", false, "print node ids")

	return cmd
}

func runNew(opts *NewOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	model, err := opts.newModel()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("failed to load catalog: %v", err))
	}

	return writeQuery(f, model.NewQuery(), opts.ShowIDs, nil)
}
