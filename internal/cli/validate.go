package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conventions/internal/compiler"
	"github.com/roach88/conventions/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Entities []string                   `json:"entities,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Check model definitions without building them",
		Long: `Check CUE model definitions without running any convention.

Reports CUE errors, unknown fields, references to undefined entities or
properties, and conflicting declarations. Cycles of required relationships
are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, problems, err := LoadSpecs(specsDir)
	if err != nil {
		return outputCommandError(formatter, loadErrorCode(err), loadErrorMessage(err))
	}
	if len(problems) > 0 {
		return outputValidationErrors(formatter, problems)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)
	for _, es := range loaded.Spec.Entities {
		formatter.VerboseLog("Validating entity: %s", es.Name)
	}

	if errs := compiler.Validate(loaded.Spec); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, loaded.Spec, compiler.AnalyzeCycles(loaded.Spec))
}

func entityNames(spec *ir.ModelSpec) []string {
	names := make([]string, len(spec.Entities))
	for i, es := range spec.Entities {
		names[i] = es.Name
	}
	slices.Sort(names)
	return names
}

func outputValidateSuccess(formatter *OutputFormatter, spec *ir.ModelSpec, warnings []compiler.CycleWarning) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Entities: entityNames(spec),
			Warnings: warnings,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ All specs valid (%d entities: %s)\n",
		len(spec.Entities), strings.Join(entityNames(spec), ", "))
	printWarnings(formatter, warnings)
	return nil
}

func printWarnings(formatter *OutputFormatter, warnings []compiler.CycleWarning) {
	for _, warn := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", warn.Message)
	}
}

// outputCommandError reports a problem with the command's inputs (exit 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors reports definition errors (exit 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return failure
}
