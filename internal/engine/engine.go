package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/metadata"
	"github.com/roach88/conventions/internal/rules"
)

// Journal persists finished runs. Implemented by store.Store.
// snap is nil for failed runs.
type Journal interface {
	WriteRun(ctx context.Context, run ir.BuildRun, trace []ir.TraceEvent, snap *ir.ModelSnapshot) error
}

// Engine builds models from definitions, running the convention set over
// every mutation and recording what the dispatcher did.
//
// Each Build gets its own dispatcher, model and clock. An Engine may be
// shared by goroutines as long as its run ID generator and journal are.
type Engine struct {
	registry      *convention.Registry
	setName       string
	runIDs        RunIDGenerator
	journal       Journal
	logger        *slog.Logger
	maxIterations int
	phases        []convention.Phase
}

// Option configures an Engine.
type Option func(*Engine)

// WithConventions selects the registry and the name recorded for it.
func WithConventions(name string, reg *convention.Registry) Option {
	return func(e *Engine) {
		e.setName = name
		e.registry = reg
	}
}

// WithRunIDGenerator replaces the UUIDv7 run IDs, typically with a
// FixedGenerator in tests.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithJournal writes every run, failed or not, to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithLogger sets the logger handed to the dispatcher as well.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxIterations bounds the trampoline of each outermost batch.
//
// Default: convention.DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIterations = n
	}
}

// WithTracePhases keeps only the listed phases in the trace. The default
// keeps all of them.
func WithTracePhases(phases ...convention.Phase) Option {
	return func(e *Engine) {
		e.phases = phases
	}
}

// New creates an Engine using the default conventions.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:      rules.Default(),
		setName:       rules.SetDefault,
		runIDs:        UUIDv7Generator{},
		logger:        slog.Default(),
		maxIterations: convention.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one build. On failure Snapshot is nil and
// ModelHash empty, but the trace up to the failure is kept.
type Result struct {
	RunID     string
	Model     *metadata.Model
	Snapshot  *ir.ModelSnapshot
	Trace     []ir.TraceEvent
	SpecHash  string
	ModelHash string
	TraceHash string
}

// Build initializes a model, applies spec to it and finalizes it.
//
// The returned Result is non-nil whenever spec could be hashed, including
// when err is a *BuildError from a later stage.
func (e *Engine) Build(ctx context.Context, spec *ir.ModelSpec) (*Result, error) {
	runID := e.runIDs.Generate()
	log := e.logger.With("run_id", runID)

	if spec == nil {
		return nil, newBuildError(runID, StageHash, metadata.ErrInvalid)
	}
	specHash, err := ir.SpecHash(spec)
	if err != nil {
		return nil, &BuildError{Code: ErrCodeInvalidSpec, Stage: StageHash, RunID: runID, Err: err}
	}

	rec := NewRecorder(NewClock(), e.phases...)
	d := convention.New(e.registry,
		convention.WithMaxIterations(e.maxIterations),
		convention.WithLogger(log),
		convention.WithObserver(rec),
	)
	m := metadata.NewModel(d)
	res := &Result{RunID: runID, Model: m, SpecHash: specHash}

	log.Info("build starting",
		"conventions", e.setName,
		"entities", len(spec.Entities),
		"spec_hash", specHash)

	stage, err := e.run(ctx, m, spec)
	if err == nil {
		stage = StageSnapshot
		res.Snapshot = metadata.Snapshot(m)
		res.ModelHash, err = ir.ModelHash(res.Snapshot)
	}
	res.Trace = rec.Events()
	if traceHash, herr := ir.TraceHash(res.Trace); herr == nil {
		res.TraceHash = traceHash
	} else if err == nil {
		err = herr
	}

	var buildErr *BuildError
	if err != nil {
		buildErr = newBuildError(runID, stage, err)
		res.Snapshot = nil
		res.ModelHash = ""
		log.Error("build failed",
			"stage", stage,
			"code", buildErr.Code,
			"events", len(res.Trace),
			"error", err)
	} else {
		log.Info("build complete",
			"events", len(res.Trace),
			"model_hash", res.ModelHash)
	}

	if e.journal != nil {
		if jerr := e.journal.WriteRun(ctx, e.runRecord(res, buildErr), res.Trace, res.Snapshot); jerr != nil {
			log.Error("journal write failed", "error", jerr)
			if buildErr == nil {
				buildErr = &BuildError{Code: ErrCodeJournal, Stage: StageJournal, RunID: runID, Err: jerr}
			}
		}
	}

	if buildErr != nil {
		return res, buildErr
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, m *metadata.Model, spec *ir.ModelSpec) (Stage, error) {
	steps := []struct {
		stage Stage
		fn    func() error
	}{
		{StageInitialize, m.Initialize},
		{StageApply, func() error { return metadata.Apply(m, spec) }},
		{StageFinalize, m.Finalize},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return step.stage, err
		}
		if err := step.fn(); err != nil {
			return step.stage, err
		}
	}
	return StageFinalize, nil
}

func (e *Engine) runRecord(res *Result, buildErr *BuildError) ir.BuildRun {
	run := ir.BuildRun{
		ID:            res.RunID,
		Status:        ir.StatusOK,
		ConventionSet: e.setName,
		SpecHash:      res.SpecHash,
		ModelHash:     res.ModelHash,
		TraceHash:     res.TraceHash,
		Events:        len(res.Trace),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	if buildErr != nil {
		run.Status = ir.StatusFailed
		run.ErrorCode = string(buildErr.Code)
		run.Error = buildErr.Err.Error()
	}
	return run
}
