package stages

import (
	"regexp"
	"strings"

	"github.com/curalink/triage-gateway/internal/coerce"
)

// Line-scan heuristics used when a stage's output fails to parse as JSON.
// These are a safety net against total failure, not a parser: they key on a
// handful of domain words and accept that the occasional unrelated line
// slips through.

var (
	durationPattern   = regexp.MustCompile(`(?i)\b(\d+\s*(?:hour|day|week|month|year)s?)\b`)
	conditionPattern  = regexp.MustCompile(`(?i)\b(?:has|have|having|be|suggests?|indicates?)\s+(?:the\s+|a\s+|an\s+)?([a-z][a-z' -]{1,40}?)\s*[(:,]?\s*\d{1,3}(?:\.\d+)?\s*%`)
	specialistPattern = regexp.MustCompile(`(?i)\b([a-z]+ologist|general practitioner|psychiatrist|physiotherapist|pediatrician|orthopedist)\b`)
)

func appendString(fields map[string]any, key, value string) {
	list, _ := fields[key].([]string)
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			return
		}
	}
	fields[key] = append(list, value)
}

func appendObject(fields map[string]any, key string, value map[string]any) {
	list, _ := fields[key].([]map[string]any)
	fields[key] = append(list, value)
}

func setIfEmpty(fields map[string]any, key string, value any) {
	if _, ok := fields[key]; !ok {
		fields[key] = value
	}
}

// symptomHeuristics populate structuredSymptoms, duration, and severity from
// free-form prose.
func symptomHeuristics() []coerce.Heuristic {
	return []coerce.Heuristic{
		func(line string, fields map[string]any) {
			if m := durationPattern.FindStringSubmatch(line); m != nil {
				setIfEmpty(fields, "duration", strings.ToLower(m[1]))
			}
		},
		func(line string, fields map[string]any) {
			for _, level := range []string{"severe", "moderate", "mild"} {
				if coerce.ContainsAny(line, level) {
					setIfEmpty(fields, "severity", level)
					return
				}
			}
		},
		func(line string, fields map[string]any) {
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || coerce.ContainsAny(line, "symptom") {
				if s := coerce.CleanBullet(line); s != "" {
					appendString(fields, "structuredSymptoms", s)
				}
			}
		},
	}
}

// conditionHeuristics extract candidate conditions with probabilities and
// recommendation strings. A line carrying a percent sign next to a
// likelihood word becomes a named entity; a line with an advice word becomes
// a recommendation.
func conditionHeuristics() []coerce.Heuristic {
	return []coerce.Heuristic{
		func(line string, fields map[string]any) {
			if !coerce.ContainsAny(line, "likely", "possible", "probab", "suspect") {
				return
			}
			p, ok := coerce.Percent(line)
			if !ok {
				return
			}
			name := "possible condition"
			if m := conditionPattern.FindStringSubmatch(line); m != nil {
				name = strings.TrimSpace(strings.ToLower(m[1]))
			}
			appendObject(fields, "conditions", map[string]any{
				"condition":   name,
				"probability": p,
			})
		},
		func(line string, fields map[string]any) {
			if coerce.ContainsAny(line, "recommend", "should", "urgent", "advis") {
				appendString(fields, "recommendations", coerce.CleanBullet(line))
			}
		},
	}
}

// severityHeuristics map alarm words onto the urgency enum and collect red
// flag lines.
func severityHeuristics() []coerce.Heuristic {
	return []coerce.Heuristic{
		func(line string, fields map[string]any) {
			switch {
			case coerce.ContainsAny(line, "emergency", "call 911", "immediately", "life-threatening"):
				fields["urgency"] = "emergency"
			case coerce.ContainsAny(line, "urgent", "high risk"):
				setIfEmpty(fields, "urgency", "high")
			case coerce.ContainsAny(line, "routine", "mild", "low risk"):
				setIfEmpty(fields, "urgency", "low")
			}
		},
		func(line string, fields map[string]any) {
			if coerce.ContainsAny(line, "red flag", "warning sign", "seek care", "worsen") {
				appendString(fields, "redFlags", coerce.CleanBullet(line))
			}
		},
	}
}

// specialistHeuristics pick out specialist titles by name.
func specialistHeuristics() []coerce.Heuristic {
	return []coerce.Heuristic{
		func(line string, fields map[string]any) {
			for _, m := range specialistPattern.FindAllStringSubmatch(line, -1) {
				appendString(fields, "specialists", strings.ToLower(m[1]))
			}
		},
	}
}

// careHeuristics split advice lines into recommendations and precautions.
func careHeuristics() []coerce.Heuristic {
	return []coerce.Heuristic{
		func(line string, fields map[string]any) {
			if coerce.ContainsAny(line, "avoid", "do not", "don't", "refrain") {
				appendString(fields, "precautions", coerce.CleanBullet(line))
				return
			}
			if coerce.ContainsAny(line, "recommend", "should", "advis", "drink", "rest") {
				appendString(fields, "recommendations", coerce.CleanBullet(line))
			}
		},
	}
}

// aggregatorHeuristics assign the top classification from a percent figure
// near "primary"/"most", demote other scored lines to differentials, and map
// urgency words. Anything unmatched falls through to the fixed defaults.
func aggregatorHeuristics() []coerce.Heuristic {
	return []coerce.Heuristic{
		func(line string, fields map[string]any) {
			p, ok := coerce.Percent(line)
			if !ok {
				return
			}
			name := "undetermined condition"
			if m := conditionPattern.FindStringSubmatch(line); m != nil {
				name = strings.TrimSpace(strings.ToLower(m[1]))
			}
			if coerce.ContainsAny(line, "primary", "most") {
				if _, exists := fields["primaryDiagnosis"]; !exists {
					fields["primaryDiagnosis"] = name
					fields["confidence"] = p
					return
				}
			}
			appendObject(fields, "differentials", map[string]any{
				"condition":  name,
				"confidence": p,
			})
		},
		func(line string, fields map[string]any) {
			switch {
			case coerce.ContainsAny(line, "emergency", "immediately"):
				fields["urgency"] = "emergency"
			case coerce.ContainsAny(line, "urgent"):
				setIfEmpty(fields, "urgency", "high")
			}
		},
		func(line string, fields map[string]any) {
			if coerce.ContainsAny(line, "recommend", "should", "next step") {
				appendString(fields, "nextSteps", coerce.CleanBullet(line))
			}
		},
	}
}
