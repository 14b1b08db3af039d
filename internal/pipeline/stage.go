package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/curalink/triage-gateway/internal/coerce"
)

// GenerationParams are the fixed per-stage parameters passed to the
// generation endpoint.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// Generator is the opaque text-generation function the pipeline calls:
// (system prompt, user prompt, params) -> text.
type Generator interface {
	Generate(ctx context.Context, system, user string, params GenerationParams) (string, error)
}

// Definition declares one pipeline stage: its identity, prompts, generation
// parameters, and the coercion rules applied to its output.
type Definition struct {
	// Name identifies the stage and is stamped into its output as "agent".
	Name string

	// System is the static role instruction for the stage.
	System string

	// BuildPrompt renders the user message from the accumulated context.
	// Each stage decides which upstream data it needs and how to phrase it.
	BuildPrompt func(pc *Context) string

	Params GenerationParams

	// Schema lists the required output fields; Heuristics and Defaults
	// supply them when the model's response does not parse.
	Schema     coerce.Schema
	Heuristics []coerce.Heuristic
	Defaults   func() map[string]any
}

// Output is the coerced result of one stage invocation. It is created once,
// never mutated, and handed to the runner, which threads it into the next
// stage's context.
type Output struct {
	Stage     string
	Timestamp time.Time
	Coerced   coerce.Result
}

// MarshalJSON flattens the coerced fields and adds the two pipeline-stamped
// fields, "agent" and "timestamp". On the fallback path the original model
// text rides along as "rawResponse" for diagnostic display.
func (o *Output) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Coerced.Fields)+3)
	for k, v := range o.Coerced.Fields {
		m[k] = v
	}
	m["agent"] = o.Stage
	m["timestamp"] = o.Timestamp.UTC().Format(time.RFC3339)
	if o.Coerced.Source == coerce.SourceFallback {
		m["rawResponse"] = o.Coerced.Raw
	}
	return json.Marshal(m)
}
