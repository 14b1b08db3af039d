// Package coerce turns raw model output into well-formed stage objects.
//
// Generation endpoints routinely wrap JSON in prose or markdown code fences,
// or ignore the requested format entirely. The coercer handles both paths:
// a strict JSON parse when the output is well-formed, and a keyword-driven
// line scan plus stage defaults when it is not. A formatting failure upstream
// never surfaces as a missing field downstream.
package coerce

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// FieldType describes the expected shape of a declared output field.
type FieldType string

const (
	String      FieldType = "string"
	Number      FieldType = "number"
	StringArray FieldType = "array-of-string"
	ObjectArray FieldType = "array-of-object"
)

// Schema maps required field names to their expected types.
// It is never enforced beyond filling gaps after a failed parse.
type Schema map[string]FieldType

// Heuristic inspects one non-blank line of raw output and may populate
// fields in the partial result. Heuristics run in order on every line.
type Heuristic func(line string, fields map[string]any)

// Source records which path produced a Result.
type Source string

const (
	// SourceParsed means the output was valid JSON and is carried verbatim.
	SourceParsed Source = "parsed"
	// SourceFallback means heuristics and defaults built the output.
	SourceFallback Source = "fallback"
)

// Result is the coerced output of one stage invocation. Callers must branch
// on Source rather than trusting Fields blindly: fallback fields are
// best-effort extractions and placeholders, not model output.
type Result struct {
	Source Source
	Fields map[string]any
	// Raw is the original response text, set only on the fallback path.
	Raw string
}

// Coerce applies the dual-path algorithm: fence strip, strict parse, and on
// parse failure a line scan with heuristics followed by default fill. The
// returned Fields always contain every field named in schema.
func Coerce(raw string, schema Schema, heuristics []Heuristic, defaults map[string]any) Result {
	text := StripFences(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err == nil && fields != nil {
		return Result{Source: SourceParsed, Fields: fields}
	}

	fields = make(map[string]any)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, h := range heuristics {
			h(line, fields)
		}
	}

	for name, typ := range schema {
		if _, ok := fields[name]; ok {
			continue
		}
		if v, ok := defaults[name]; ok {
			fields[name] = v
			continue
		}
		fields[name] = emptyValue(typ)
	}

	return Result{Source: SourceFallback, Fields: fields, Raw: raw}
}

// StripFences removes a leading markdown code-fence line (with or without a
// language tag) and a trailing fence marker. It is a no-op on text that
// carries no fences, so applying it twice is safe.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// emptyValue is the last-resort fill when a stage's default provider does not
// cover a schema field. Stage defaults should make this unreachable.
func emptyValue(t FieldType) any {
	switch t {
	case Number:
		return float64(0)
	case StringArray, ObjectArray:
		return []any{}
	default:
		return "not available"
	}
}

var percentPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)

// Percent extracts the first percentage figure from a line.
func Percent(line string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ContainsAny reports whether the line contains any of the given keywords,
// case-insensitively.
func ContainsAny(line string, keywords ...string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CleanBullet strips list markers and surrounding punctuation from a line so
// it can be used as a standalone value.
func CleanBullet(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*•0123456789. )")
	return strings.TrimSpace(line)
}
