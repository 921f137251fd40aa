package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // empty selects the latest run
	Kind     string // optional - filter to one event kind
	Verify   bool
	List     bool
}

// TraceResult holds the trace of one journaled run.
type TraceResult struct {
	Run    ir.BuildRun     `json:"run"`
	Trace  []ir.TraceEvent `json:"trace"`
	Stats  TraceStats      `json:"stats"`
	Verify *VerifyOutput   `json:"verify,omitempty"`
}

// TraceStats counts the events of a trace per phase.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Phases      map[string]int `json:"phases"`
	Plugins     int            `json:"plugins"` // distinct plugins invoked
}

// VerifyOutput is the outcome of --verify.
type VerifyOutput struct {
	OK             bool   `json:"ok"`
	StoredHash     string `json:"stored_hash"`
	RecomputedHash string `json:"recomputed_hash"`
	ModelMatches   bool   `json:"model_matches"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the dispatch trace of a journaled build",
		Long: `Read a build run back from the SQLite journal written by
"conventions build --db".

Shows which events were recorded into batches, fired, and which
conventions were invoked, stopped a chain or were bypassed, in the order
they happened. --verify recomputes the trace and model hashes from the
stored rows.

Examples:
  conventions trace --db ./conventions.db
  conventions trace --db ./conventions.db --run 0192f0c4-...
  conventions trace --db ./conventions.db --kind ForeignKeyAdded
  conventions trace --db ./conventions.db --verify
  conventions trace --db ./conventions.db --list`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show (default: latest)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute and compare the stored hashes")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list journaled runs")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.List {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputRunList(formatter, runs)
	}

	var run ir.BuildRun
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		msg := "journal is empty"
		if opts.RunID != "" {
			msg = fmt.Sprintf("run not found: %s", opts.RunID)
		}
		return outputCommandError(formatter, ErrCodeNotFound, msg)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	formatter.VerboseLog("Reading run %s", run.ID)

	var trace []ir.TraceEvent
	if opts.Kind != "" {
		trace, err = st.ReadTraceKind(ctx, run.ID, opts.Kind)
	} else {
		trace, err = st.ReadTrace(ctx, run.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	result := TraceResult{
		Run:   run,
		Trace: trace,
		Stats: traceStats(trace),
	}

	if opts.Verify {
		vr, err := st.VerifyRun(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to verify run", err)
		}
		result.Verify = &VerifyOutput{
			OK:             vr.OK(),
			StoredHash:     vr.StoredHash,
			RecomputedHash: vr.RecomputedHash,
			ModelMatches:   vr.ModelMatches,
		}
	}

	if opts.Format == "json" {
		err = formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	} else {
		outputTraceText(formatter.Writer, result, opts.Verbose)
	}
	if err != nil {
		return err
	}
	if result.Verify != nil && !result.Verify.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("run %s does not match its recorded hashes", run.ID))
	}
	return nil
}

func traceStats(trace []ir.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(trace), Phases: map[string]int{}}
	plugins := map[string]bool{}
	for _, ev := range trace {
		stats.Phases[ev.Phase]++
		if ev.Phase == ir.PhaseInvoked {
			plugins[ev.Plugin] = true
		}
	}
	stats.Plugins = len(plugins)
	return stats
}

// phaseOrder lists trace phases in the order the stats section prints them.
var phaseOrder = []string{
	ir.PhaseRecorded,
	ir.PhaseFired,
	ir.PhaseInvoked,
	ir.PhaseStopped,
	ir.PhaseInvalidated,
	ir.PhaseBypassed,
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	run := result.Run
	fmt.Fprintf(w, "Trace for Run: %s\n", run.ID)
	fmt.Fprintf(w, "Status: %s (conventions %q)\n", runStatus(run), run.ConventionSet)
	if verbose {
		fmt.Fprintf(w, "Spec hash:  %s\n", run.SpecHash)
		fmt.Fprintf(w, "Trace hash: %s\n", run.TraceHash)
		if run.ModelHash != "" {
			fmt.Fprintf(w, "Model hash: %s\n", run.ModelHash)
		}
		fmt.Fprintf(w, "Engine %s, IR %s\n", run.EngineVersion, run.IRVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Trace) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Trace {
		formatTraceEvent(w, ev)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	for _, phase := range phaseOrder {
		if n := result.Stats.Phases[phase]; n > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", strings.ToUpper(phase[:1])+phase[1:]+":", n)
		}
	}
	fmt.Fprintf(w, "  Plugins:      %d\n", result.Stats.Plugins)

	if v := result.Verify; v != nil {
		fmt.Fprintln(w)
		if v.OK {
			fmt.Fprintln(w, "✓ Trace and model hashes verified")
		} else {
			fmt.Fprintln(w, "✗ Hash mismatch")
			fmt.Fprintf(w, "  trace: stored %s, recomputed %s\n", shortHash(v.StoredHash), shortHash(v.RecomputedHash))
			if !v.ModelMatches {
				fmt.Fprintln(w, "  model: snapshot does not hash to the recorded model hash")
			}
		}
	}
}

// formatTraceEvent writes one event, indented by its batch depth.
func formatTraceEvent(w io.Writer, ev ir.TraceEvent) {
	indent := strings.Repeat("  ", ev.Depth)
	line := fmt.Sprintf("  [%d] %s%-11s %s %s", ev.Seq, indent, ev.Phase, ev.Kind, ev.Subject)
	if ev.Plugin != "" {
		line += " -> " + ev.Plugin
	}
	fmt.Fprintln(w, line)
}

func runStatus(run ir.BuildRun) string {
	if run.Status == ir.StatusOK {
		return "ok"
	}
	return fmt.Sprintf("failed [%s] %s", run.ErrorCode, run.Error)
}

func outputRunList(formatter *OutputFormatter, runs []ir.BuildRun) error {
	if formatter.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: runs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs journaled.")
		return nil
	}
	for _, run := range runs {
		status := run.Status
		if run.ErrorCode != "" {
			status += " " + run.ErrorCode
		}
		fmt.Fprintf(w, "%s  %-26s %-8s %4d events\n", run.ID, status, run.ConventionSet, run.Events)
	}
	return nil
}
