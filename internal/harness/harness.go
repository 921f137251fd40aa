package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/conventions/internal/compiler"
	"github.com/roach88/conventions/internal/engine"
	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/rules"
)

// Option configures a scenario run.
type Option func(*config)

type config struct {
	journal engine.Journal
	logger  *slog.Logger
}

// WithJournal records every scenario build in j.
func WithJournal(j engine.Journal) Option {
	return func(c *config) {
		c.journal = j
	}
}

// WithLogger sets the logger of the engine. Scenario builds log nothing by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the model definition
//  2. Check it statically; problems are returned as an error
//  3. Build the model with a fixed run ID
//  4. Evaluate assertions against the trace, the snapshot and the build error
//
// A build that fails is a result, not an error: scenarios may assert the
// failure. The error return is for scenarios that cannot be executed.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	spec, err := LoadSpec(scenario)
	if err != nil {
		return nil, err
	}
	if problems := compiler.Validate(spec); len(problems) > 0 {
		return nil, compiler.ValidationErrors(problems)
	}

	setName := scenario.Conventions
	if setName == "" {
		setName = rules.SetDefault
	}
	reg, err := rules.ByName(setName)
	if err != nil {
		return nil, err
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	engineOpts := []engine.Option{
		engine.WithConventions(setName, reg),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
		engine.WithLogger(cfg.logger),
	}
	if scenario.MaxIterations > 0 {
		engineOpts = append(engineOpts, engine.WithMaxIterations(scenario.MaxIterations))
	}
	if cfg.journal != nil {
		engineOpts = append(engineOpts, engine.WithJournal(cfg.journal))
	}

	res, buildErr := engine.New(engineOpts...).Build(ctx, spec)
	if res == nil {
		return nil, buildErr
	}
	if engine.CodeOf(buildErr) == engine.ErrCodeJournal {
		return nil, buildErr
	}

	result := NewResult()
	result.RunID = res.RunID
	result.Trace = res.Trace
	result.Snapshot = res.Snapshot
	result.ModelHash = res.ModelHash
	result.TraceHash = res.TraceHash
	if buildErr != nil {
		result.ErrorCode = string(engine.CodeOf(buildErr))
		result.BuildError = buildErr.Error()
		if !scenario.expectsError() {
			result.AddError(fmt.Sprintf("build failed: %s", result.BuildError))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	cfg.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"run_id", result.RunID,
		"pass", result.Pass,
		"events", len(result.Trace),
	)
	return result, nil
}

// LoadSpec compiles the model definition of scenario: its inline model, a
// single specs directory, or a list of CUE files of one package.
func LoadSpec(scenario *Scenario) (*ir.ModelSpec, error) {
	if scenario.Model != "" {
		spec, err := compiler.CompileString(scenario.Model, scenario.Name+".cue")
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		return spec, nil
	}
	if len(scenario.Specs) == 0 {
		return nil, fmt.Errorf("scenario %s: no model definition", scenario.Name)
	}

	if len(scenario.Specs) == 1 {
		info, err := os.Stat(scenario.Specs[0])
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		if info.IsDir() {
			spec, err := compiler.LoadDir(scenario.Specs[0])
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
			}
			return spec, nil
		}
	}

	for _, p := range scenario.Specs {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return nil, fmt.Errorf("scenario %s: %s is a directory; list either one directory or CUE files", scenario.Name, p)
		}
	}
	spec, err := compiler.LoadFiles(scenario.Specs...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return spec, nil
}
