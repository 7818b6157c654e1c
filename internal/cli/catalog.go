package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/catalog"
)

// CatalogOutput is the structured payload of the catalog command.
type CatalogOutput struct {
	Fields []catalog.Field `json:"fields" yaml:"fields"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the fields, operators and values of the catalog",
		Long: `List the configured field catalog in order. The first field, its
first operator and its first value make up the default condition.

Examples:
  qb catalog
  qb catalog --catalog ./fields.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, cmd)
		},
	}

	return cmd
}

func runCatalog(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cat, err := opts.settings().LoadCatalog()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("failed to load catalog: %v", err))
	}

	if f.Structured() {
		return f.Success(CatalogOutput{Fields: cat.Entries()})
	}

	w := f.Writer
	for _, field := range cat.Entries() {
		fmt.Fprintln(w, field.Name)
		fmt.Fprintf(w, "  operators: %s\n", strings.Join(field.Operators, ", "))
		fmt.Fprintf(w, "  values:    %s\n", strings.Join(field.Values, ", "))
	}
	return nil
}
