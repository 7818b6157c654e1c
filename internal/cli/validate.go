package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/querytree"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query>",
		Short: "Check an exported query against the catalog",
		Long: `Check an exported query against the configured catalog.

Reports unknown fields, operators and values the field does not allow,
logic other than AND or OR, and an empty root. Empty groups are
reported as warnings and do not fail validation.

Exit codes:
  0 - Query valid
  1 - Validation errors found
  2 - Command error (file not found, malformed query, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	clean, err := loadQuery(cmd, f, path)
	if err != nil {
		return err
	}

	cat, err := opts.settings().LoadCatalog()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("failed to load catalog: %v", err))
	}

	result := querytree.ValidateClean(clean, cat)
	f.VerboseLog("Checked %s: %d issue(s)", path, len(result.Issues))

	if result.Valid {
		return outputValidateSuccess(f, result)
	}
	return outputValidationErrors(f, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(f *OutputFormatter, result querytree.ValidationResult) error {
	if f.Structured() {
		return f.Success(result)
	}

	fmt.Fprintln(f.Writer, "✓ Query valid")
	writeIssues(f, result.Issues)
	return nil
}

// outputValidationErrors outputs a failed validation.
func outputValidationErrors(f *OutputFormatter, result querytree.ValidationResult) error {
	errs := result.Errors()

	if f.Structured() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: errs[0].Message,
			},
		}
		if err := f.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	writeIssues(f, result.Issues)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func writeIssues(f *OutputFormatter, issues []querytree.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(f.Writer, "%s %s\n", issue.Severity, issue.Path)
		fmt.Fprintf(f.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}
}
