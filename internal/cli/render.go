package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/querytree"
	"github.com/roach88/querybuilder/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Compact     bool
	Fingerprint bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <query>",
		Short: "Print an exported query in canonical form",
		Long: `Parse an exported query and print it in canonical form: keys in
logic, conditions, groups order, NFC strings, no HTML escaping and
empty lists as [].

Unknown keys, trailing data and logic other than AND or OR are rejected.

Examples:
  qb render query.json
  cat query.json | qb render -
  qb render query.json --compact
  qb render query.json --fingerprint`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "print on one line")
	cmd.Flags().BoolVar(&opts.Fingerprint, "fingerprint", false, "print the query fingerprint instead")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	clean, err := loadQuery(cmd, f, path)
	if err != nil {
		return err
	}

	if f.Format == "json" {
		fingerprint, err := render.Fingerprint(clean)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err.Error())
		}
		return f.Success(QueryOutput{
			Query:       clean,
			Fingerprint: fingerprint,
			Stats:       querytree.Measure(querytree.Hydrate(clean, querytree.NewSequenceGenerator(""))),
		})
	}

	var data []byte
	switch {
	case opts.Fingerprint:
		fingerprint, err := render.Fingerprint(clean)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err.Error())
		}
		data = []byte(fingerprint + "\n")
	case f.Format == "yaml":
		data, err = render.YAML(clean)
	case opts.Compact:
		data, err = render.Compact(clean)
		data = append(data, '\n')
	default:
		data, err = render.Indent(clean)
	}
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("failed to render query: %v", err))
	}

	_, err = f.Writer.Write(data)
	return err
}
