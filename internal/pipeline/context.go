package pipeline

// Input is the user-submitted text plus optional contextual fields. It is
// immutable for the duration of a run.
type Input struct {
	Symptoms string `json:"symptoms"`
	Age      string `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Location string `json:"location,omitempty"`
	History  string `json:"history,omitempty"`
}

// Context carries the original input and the coerced outputs of every stage
// completed so far. Prompt builders read from it; only the runner appends.
type Context struct {
	Input     Input
	Completed []StageResult
}

// Output returns the coerced output of a completed stage by name.
func (c *Context) Output(stage string) (*Output, bool) {
	for _, sr := range c.Completed {
		if sr.Name == stage && sr.Output != nil {
			return sr.Output, true
		}
	}
	return nil, false
}
