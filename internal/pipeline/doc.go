// Package pipeline executes an ordered sequence of prompt stages against a
// text-generation endpoint.
//
// Each stage issues one generation call built from a static system
// instruction and a prompt rendered from the accumulated pipeline context:
// the original input plus the coerced outputs of every stage that ran before
// it. Execution is strictly sequential because of that data dependency.
//
// # Failure semantics
//
// A network failure or non-2xx status from the generation endpoint is fatal
// for the whole pipeline: the runner aborts, keeps the results of stages
// that already completed, and marks the failed stage and everything after it
// with an error status. There are no retries.
//
// Malformed generation output is NOT a failure. It is recovered locally by
// the coercer (see package coerce), which substitutes best-effort extractions
// and stage defaults so no stage ever emits a null output.
package pipeline
