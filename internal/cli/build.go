package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conventions/internal/compiler"
	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/engine"
	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/rules"
	"github.com/roach88/conventions/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Database      string
	Conventions   string
	MaxIterations int
	Phases        []string
	RunID         string
	ShowTrace     bool
}

// BuildOutput is the payload of a build, successful or not.
type BuildOutput struct {
	RunID         string                  `json:"run_id"`
	ConventionSet string                  `json:"convention_set"`
	SpecHash      string                  `json:"spec_hash"`
	ModelHash     string                  `json:"model_hash,omitempty"`
	TraceHash     string                  `json:"trace_hash"`
	Model         *ir.ModelSnapshot       `json:"model,omitempty"`
	Trace         []ir.TraceEvent         `json:"trace"`
	Warnings      []compiler.CycleWarning `json:"warnings,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <specs-dir>",
		Short: "Build the model under a convention set",
		Long: `Compile the CUE model definitions in specs-dir and build the model,
running the selected convention set over every change.

Prints the finished model and a summary of the dispatch trace. With --db
the run, its trace and the model snapshot are written to a SQLite journal
that "conventions trace" reads back.

Examples:
  conventions build ./specs
  conventions build ./specs --trace --phases invoked,stopped
  conventions build ./specs --db ./conventions.db --format json
  conventions build ./specs --conventions none`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")
	cmd.Flags().StringVar(&opts.Conventions, "conventions", rules.SetDefault,
		fmt.Sprintf("convention set (%s)", strings.Join(rules.Sets(), "|")))
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", convention.DefaultMaxIterations,
		"bound on dispatch rounds per batch")
	cmd.Flags().StringSliceVar(&opts.Phases, "phases", nil,
		"trace phases to keep (recorded,fired,invoked,stopped,invalidated,bypassed)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "fixed run ID instead of a UUIDv7")
	cmd.Flags().BoolVar(&opts.ShowTrace, "trace", false, "print every trace event")

	return cmd
}

func runBuild(opts *BuildOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := rules.ByName(opts.Conventions)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadFlag, err.Error())
	}
	if opts.MaxIterations <= 0 {
		return outputCommandError(formatter, ErrCodeBadFlag,
			fmt.Sprintf("--max-iterations must be positive, got %d", opts.MaxIterations))
	}
	phases, err := parsePhases(opts.Phases)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadFlag, err.Error())
	}

	loaded, problems, err := LoadSpecs(specsDir)
	if err != nil {
		return outputCommandError(formatter, loadErrorCode(err), loadErrorMessage(err))
	}
	if len(problems) > 0 {
		return outputValidationErrors(formatter, problems)
	}
	if errs := compiler.Validate(loaded.Spec); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	formatter.VerboseLog("Loaded %d entities from %d CUE file(s) in %s",
		len(loaded.Spec.Entities), loaded.FileCount, specsDir)

	engineOpts := []engine.Option{
		engine.WithConventions(opts.Conventions, reg),
		engine.WithLogger(formatter.Logger()),
		engine.WithMaxIterations(opts.MaxIterations),
		engine.WithTracePhases(phases...),
	}
	if opts.RunID != "" {
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(engine.NewFixedGenerator(opts.RunID)))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		engineOpts = append(engineOpts, engine.WithJournal(st))
		formatter.VerboseLog("Journal: %s", opts.Database)
	}

	res, buildErr := engine.New(engineOpts...).Build(cmd.Context(), loaded.Spec)
	if res == nil {
		return WrapExitError(ExitCommandError, "build could not start", buildErr)
	}
	if engine.CodeOf(buildErr) == engine.ErrCodeJournal {
		return WrapExitError(ExitCommandError, "failed to write journal", buildErr)
	}

	out := BuildOutput{
		RunID:         res.RunID,
		ConventionSet: opts.Conventions,
		SpecHash:      res.SpecHash,
		ModelHash:     res.ModelHash,
		TraceHash:     res.TraceHash,
		Model:         res.Snapshot,
		Trace:         res.Trace,
		Warnings:      compiler.AnalyzeCycles(loaded.Spec),
	}
	if out.Trace == nil {
		out.Trace = []ir.TraceEvent{}
	}

	if buildErr != nil {
		return outputBuildFailure(formatter, out, buildErr, opts.ShowTrace)
	}
	return outputBuildSuccess(formatter, out, opts.ShowTrace)
}

// parsePhases maps --phases values to dispatcher phases. None keeps all.
func parsePhases(names []string) ([]convention.Phase, error) {
	phases := make([]convention.Phase, 0, len(names))
	for _, name := range names {
		p, ok := engine.ParsePhase(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown trace phase %q", name)
		}
		phases = append(phases, p)
	}
	return phases, nil
}

func outputBuildSuccess(formatter *OutputFormatter, out BuildOutput, showTrace bool) error {
	if formatter.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: out, RunID: out.RunID})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Built %d entities under conventions %q (run %s)\n\n",
		len(out.Model.Entities), out.ConventionSet, out.RunID)

	fmt.Fprintln(w, "Entities:")
	for _, es := range out.Model.Entities {
		key := "keyless"
		if len(es.PrimaryKey) > 0 {
			key = "key [" + strings.Join(es.PrimaryKey, ", ") + "]"
		}
		fmt.Fprintf(w, "  %s: %s, %d propert%s\n", es.Name, key, len(es.Properties), plural(len(es.Properties), "y", "ies"))
		for _, fk := range es.ForeignKeys {
			req := ""
			if fk.Required {
				req = " (required)"
			}
			fmt.Fprintf(w, "    FK [%s] -> %s%s\n", strings.Join(fk.Properties, ", "), fk.Principal, req)
		}
		for _, sn := range es.SkipNavigations {
			fmt.Fprintf(w, "    %s <-> %s via %s\n", sn.Name, sn.Target, sn.JoinType)
		}
	}
	if len(out.Model.Ignored) > 0 {
		fmt.Fprintf(w, "  ignored: %s\n", strings.Join(out.Model.Ignored, ", "))
	}
	fmt.Fprintln(w)

	printTraceSummary(formatter, out, showTrace)
	printWarnings(formatter, out.Warnings)
	return nil
}

func outputBuildFailure(formatter *OutputFormatter, out BuildOutput, buildErr error, showTrace bool) error {
	code := string(engine.CodeOf(buildErr))
	var stage engine.Stage
	cause := buildErr
	var be *engine.BuildError
	if errors.As(buildErr, &be) {
		stage = be.Stage
		cause = be.Err
	}
	failure := WrapExitError(ExitFailure, "build failed", buildErr)

	if formatter.Format == "json" {
		err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   out,
			Error: &CLIError{
				Code:    code,
				Message: buildErr.Error(),
				Details: map[string]string{"stage": string(stage)},
			},
			RunID: out.RunID,
		})
		if err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✗ Build failed [%s] during %s\n", code, stage)
	fmt.Fprintf(w, "  %v\n\n", cause)
	printTraceSummary(formatter, out, showTrace)
	return failure
}

func printTraceSummary(formatter *OutputFormatter, out BuildOutput, showTrace bool) {
	w := formatter.Writer
	fmt.Fprintf(w, "Trace: %d event%s (hash %s)\n", len(out.Trace), plural(len(out.Trace), "", "s"), shortHash(out.TraceHash))
	if showTrace {
		for _, ev := range out.Trace {
			formatTraceEvent(w, ev)
		}
	}
	if out.ModelHash != "" {
		fmt.Fprintf(w, "Model hash: %s\n", shortHash(out.ModelHash))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
