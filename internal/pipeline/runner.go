package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/curalink/triage-gateway/internal/coerce"
)

// Status marks the outcome of one stage invocation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// StageResult is one entry of a pipeline run: stage name, outcome, coerced
// output, wall-clock timing, and an estimated prompt token count.
type StageResult struct {
	Name         string
	Status       Status
	Output       *Output // nil only when Status is StatusError
	Elapsed      time.Duration
	PromptTokens int
}

// Result is the ordered record of a pipeline run. Its length always equals
// the number of configured stages, including stages skipped after a failure.
type Result struct {
	Stages []StageResult
	// Final is the terminal stage's output; nil when the run errored.
	Final *Output
}

// StageError reports a fatal generation failure at a named stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: generation call failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// TokenEstimator estimates how many tokens a prompt will consume.
type TokenEstimator interface {
	Estimate(text string) int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger used for per-stage diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithTokenEstimator enables prompt token accounting on stage results.
func WithTokenEstimator(est TokenEstimator) Option {
	return func(r *Runner) { r.estimator = est }
}

// Runner executes a fixed list of stages strictly in sequence. Runners are
// stateless across runs and safe for concurrent use; all per-run state lives
// in the Context created for that run.
type Runner struct {
	gen       Generator
	stages    []Definition
	logger    *slog.Logger
	estimator TokenEstimator
}

// NewRunner creates a runner over the given generator and stage list.
func NewRunner(gen Generator, stages []Definition, opts ...Option) *Runner {
	r := &Runner{
		gen:    gen,
		stages: stages,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StageNames returns the configured stage names in execution order.
func (r *Runner) StageNames() []string {
	names := make([]string, len(r.stages))
	for i, def := range r.stages {
		names[i] = def.Name
	}
	return names
}

// Run executes every stage in order, threading the accumulated context into
// each stage's prompt builder. On a generation failure it returns the partial
// Result alongside a *StageError; completed stages keep their results and the
// failed stage plus all remaining stages are marked StatusError.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	pc := &Context{Input: in}
	res := &Result{Stages: make([]StageResult, 0, len(r.stages))}

	for i, def := range r.stages {
		sr, err := r.runStage(ctx, def, pc)
		if err != nil {
			res.Stages = append(res.Stages, StageResult{Name: def.Name, Status: StatusError, Elapsed: sr.Elapsed})
			for _, rest := range r.stages[i+1:] {
				res.Stages = append(res.Stages, StageResult{Name: rest.Name, Status: StatusError})
			}
			return res, &StageError{Stage: def.Name, Err: err}
		}
		res.Stages = append(res.Stages, sr)
		pc.Completed = append(pc.Completed, sr)
	}

	res.Final = res.Stages[len(res.Stages)-1].Output
	return res, nil
}

// RunSingle executes one named stage in isolation, with an empty upstream
// context. Returns an error satisfying IsUnknownStage for unknown names.
func (r *Runner) RunSingle(ctx context.Context, name string, in Input) (*StageResult, error) {
	for _, def := range r.stages {
		if def.Name != name {
			continue
		}
		sr, err := r.runStage(ctx, def, &Context{Input: in})
		if err != nil {
			return nil, &StageError{Stage: def.Name, Err: err}
		}
		return &sr, nil
	}
	return nil, &UnknownStageError{Stage: name}
}

func (r *Runner) runStage(ctx context.Context, def Definition, pc *Context) (StageResult, error) {
	prompt := def.BuildPrompt(pc)

	promptTokens := 0
	if r.estimator != nil {
		promptTokens = r.estimator.Estimate(def.System + prompt)
	}

	start := time.Now()
	raw, err := r.gen.Generate(ctx, def.System, prompt, def.Params)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("stage generation failed",
			slog.String("stage", def.Name),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return StageResult{Elapsed: elapsed}, err
	}

	out := &Output{
		Stage:     def.Name,
		Timestamp: time.Now().UTC(),
		Coerced:   coerce.Coerce(raw, def.Schema, def.Heuristics, def.Defaults()),
	}

	r.logger.Info("stage completed",
		slog.String("stage", def.Name),
		slog.Duration("elapsed", elapsed),
		slog.Int("prompt_tokens", promptTokens),
		slog.Bool("fallback", out.Coerced.Source == coerce.SourceFallback),
	)

	return StageResult{
		Name:         def.Name,
		Status:       StatusCompleted,
		Output:       out,
		Elapsed:      elapsed,
		PromptTokens: promptTokens,
	}, nil
}

// UnknownStageError is returned by RunSingle for a stage name that is not
// part of the configured pipeline.
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage: %s", e.Stage)
}

// IsUnknownStage reports whether the error is an unknown-stage error.
func IsUnknownStage(err error) bool {
	_, ok := err.(*UnknownStageError)
	return ok
}
