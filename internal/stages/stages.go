// Package stages defines the six prompt stages of the triage pipeline: what
// each one asks the model, the output shape it declares, and the heuristics
// and defaults that stand in when the model ignores that shape.
package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/curalink/triage-gateway/internal/coerce"
	"github.com/curalink/triage-gateway/internal/pipeline"
)

// Stage names, in execution order.
const (
	StageSymptomAnalyzer       = "symptom-analyzer"
	StageConditionPredictor    = "condition-predictor"
	StageSeverityAssessor      = "severity-assessor"
	StageSpecialistRecommender = "specialist-recommender"
	StageCareAdvisor           = "care-advisor"
	StageTriageAggregator      = "triage-aggregator"
)

// All returns the full pipeline in execution order.
func All() []pipeline.Definition {
	return []pipeline.Definition{
		SymptomAnalyzer(),
		ConditionPredictor(),
		SeverityAssessor(),
		SpecialistRecommender(),
		CareAdvisor(),
		TriageAggregator(),
	}
}

// renderInput formats the patient-submitted fields for prompt interpolation.
func renderInput(in pipeline.Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symptoms: %s\n", in.Symptoms)
	if in.Age != "" {
		fmt.Fprintf(&b, "Age: %s\n", in.Age)
	}
	if in.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", in.Gender)
	}
	if in.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", in.Location)
	}
	if in.History != "" {
		fmt.Fprintf(&b, "Medical history: %s\n", in.History)
	}
	return b.String()
}

// renderUpstream serializes every completed upstream output into the prompt.
// Later stages depend on the full accumulated context, not just the
// immediately preceding stage.
func renderUpstream(pc *pipeline.Context) string {
	if len(pc.Completed) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nFindings from earlier analysis steps:\n")
	for _, sr := range pc.Completed {
		if sr.Output == nil {
			continue
		}
		data, err := json.Marshal(sr.Output)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", sr.Name, data)
	}
	return b.String()
}

// SymptomAnalyzer turns free-text symptoms into a structured symptom list.
func SymptomAnalyzer() pipeline.Definition {
	return pipeline.Definition{
		Name: StageSymptomAnalyzer,
		System: "You are a clinical intake assistant. Extract structured data from " +
			"a patient's symptom description. Respond ONLY with a JSON object of the form " +
			`{"structuredSymptoms": ["..."], "duration": "...", "severity": "mild|moderate|severe"}. ` +
			"Do not add prose around the JSON.",
		BuildPrompt: func(pc *pipeline.Context) string {
			return "Extract the symptoms from this patient report:\n" + renderInput(pc.Input)
		},
		Params:     pipeline.GenerationParams{Temperature: 0.1, MaxTokens: 500},
		Schema:     coerce.Schema{"structuredSymptoms": coerce.StringArray, "duration": coerce.String, "severity": coerce.String},
		Heuristics: symptomHeuristics(),
		Defaults:   func() map[string]any { return ForStage(StageSymptomAnalyzer) },
	}
}

// ConditionPredictor proposes candidate conditions with probabilities.
func ConditionPredictor() pipeline.Definition {
	return pipeline.Definition{
		Name: StageConditionPredictor,
		System: "You are a medical reasoning assistant. Given structured symptoms, list the " +
			"most plausible conditions with rough probabilities. This is informational, not a " +
			"diagnosis. Respond ONLY with a JSON object of the form " +
			`{"conditions": [{"condition": "...", "probability": 0-100}], ` +
			`"recommendations": ["..."], "reasoning": "..."}.`,
		BuildPrompt: func(pc *pipeline.Context) string {
			return "Assess the likely conditions for this patient:\n" +
				renderInput(pc.Input) + renderUpstream(pc)
		},
		Params: pipeline.GenerationParams{Temperature: 0.2, MaxTokens: 700},
		Schema: coerce.Schema{
			"conditions":      coerce.ObjectArray,
			"recommendations": coerce.StringArray,
			"reasoning":       coerce.String,
		},
		Heuristics: conditionHeuristics(),
		Defaults:   func() map[string]any { return ForStage(StageConditionPredictor) },
	}
}

// SeverityAssessor grades urgency and flags warning signs.
func SeverityAssessor() pipeline.Definition {
	return pipeline.Definition{
		Name: StageSeverityAssessor,
		System: "You are a triage severity assessor. Grade how urgently this patient should " +
			"seek care and list any red flags. Respond ONLY with a JSON object of the form " +
			`{"urgency": "low|moderate|high|emergency", "redFlags": ["..."]}.`,
		BuildPrompt: func(pc *pipeline.Context) string {
			return "Grade the urgency for this patient:\n" + renderInput(pc.Input) + renderUpstream(pc)
		},
		Params:     pipeline.GenerationParams{Temperature: 0.1, MaxTokens: 400},
		Schema:     coerce.Schema{"urgency": coerce.String, "redFlags": coerce.StringArray},
		Heuristics: severityHeuristics(),
		Defaults:   func() map[string]any { return ForStage(StageSeverityAssessor) },
	}
}

// SpecialistRecommender suggests which specialists to consult.
func SpecialistRecommender() pipeline.Definition {
	return pipeline.Definition{
		Name: StageSpecialistRecommender,
		System: "You are a care-navigation assistant. Suggest the medical specialists best " +
			"suited to the patient's likely conditions. Respond ONLY with a JSON object of the " +
			`form {"specialists": ["..."], "rationale": "..."}.`,
		BuildPrompt: func(pc *pipeline.Context) string {
			return "Which specialists should this patient consult?\n" +
				renderInput(pc.Input) + renderUpstream(pc)
		},
		Params:     pipeline.GenerationParams{Temperature: 0.2, MaxTokens: 400},
		Schema:     coerce.Schema{"specialists": coerce.StringArray, "rationale": coerce.String},
		Heuristics: specialistHeuristics(),
		Defaults:   func() map[string]any { return ForStage(StageSpecialistRecommender) },
	}
}

// CareAdvisor produces self-care recommendations and precautions.
func CareAdvisor() pipeline.Definition {
	return pipeline.Definition{
		Name: StageCareAdvisor,
		System: "You are a patient-education assistant. Give practical self-care advice and " +
			"precautions appropriate to the findings so far. Respond ONLY with a JSON object of " +
			`the form {"recommendations": ["..."], "precautions": ["..."]}.`,
		BuildPrompt: func(pc *pipeline.Context) string {
			return "Advise this patient on self-care:\n" + renderInput(pc.Input) + renderUpstream(pc)
		},
		Params:     pipeline.GenerationParams{Temperature: 0.3, MaxTokens: 500},
		Schema:     coerce.Schema{"recommendations": coerce.StringArray, "precautions": coerce.StringArray},
		Heuristics: careHeuristics(),
		Defaults:   func() map[string]any { return ForStage(StageCareAdvisor) },
	}
}

// TriageAggregator is the terminal stage. It receives every prior stage's
// output and produces the single decision object shown to the user.
func TriageAggregator() pipeline.Definition {
	return pipeline.Definition{
		Name: StageTriageAggregator,
		System: "You are the final triage decision maker. Combine all earlier findings into one " +
			"decision. Respond ONLY with a JSON object of the form " +
			`{"primaryDiagnosis": "...", "confidence": 0-100, ` +
			`"differentials": [{"condition": "...", "confidence": 0-100}], ` +
			`"urgency": "low|moderate|high|emergency", "nextSteps": ["..."]}.`,
		BuildPrompt: func(pc *pipeline.Context) string {
			return "Produce the final triage decision for this patient:\n" +
				renderInput(pc.Input) + renderUpstream(pc)
		},
		Params: pipeline.GenerationParams{Temperature: 0.1, MaxTokens: 800},
		Schema: coerce.Schema{
			"primaryDiagnosis": coerce.String,
			"confidence":       coerce.Number,
			"differentials":    coerce.ObjectArray,
			"urgency":          coerce.String,
			"nextSteps":        coerce.StringArray,
		},
		Heuristics: aggregatorHeuristics(),
		Defaults:   func() map[string]any { return ForStage(StageTriageAggregator) },
	}
}
