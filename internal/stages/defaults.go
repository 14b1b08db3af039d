package stages

// ForStage returns the hardcoded fallback values for a stage's required
// fields. It is a pure function of the stage name: no I/O, no shared state,
// so deployments can swap the placeholder content without touching the
// coercion machinery. The aggregator's defaults are deliberately
// domain-flavored; every other stage falls back to neutral markers.
func ForStage(stage string) map[string]any {
	switch stage {
	case StageSymptomAnalyzer:
		return map[string]any{
			"structuredSymptoms": []string{"general malaise"},
			"duration":           "unspecified",
			"severity":           "moderate",
		}
	case StageConditionPredictor:
		return map[string]any{
			"conditions": []map[string]any{
				{"condition": "undetermined condition", "probability": 50.0},
			},
			"recommendations": []string{
				"Consult a healthcare professional for a proper evaluation",
			},
			"reasoning": "not determined",
		}
	case StageSeverityAssessor:
		return map[string]any{
			"urgency":  "moderate",
			"redFlags": []string{"none identified"},
		}
	case StageSpecialistRecommender:
		return map[string]any{
			"specialists": []string{"general practitioner"},
			"rationale":   "not determined",
		}
	case StageCareAdvisor:
		return map[string]any{
			"recommendations": []string{"Rest and monitor symptoms"},
			"precautions":     []string{"Seek medical attention if symptoms worsen"},
		}
	case StageTriageAggregator:
		return map[string]any{
			"primaryDiagnosis": "Viral upper respiratory infection",
			"confidence":       55.0,
			"differentials": []map[string]any{
				{"condition": "Seasonal influenza", "confidence": 25.0},
				{"condition": "Allergic rhinitis", "confidence": 20.0},
			},
			"urgency": "moderate",
			"nextSteps": []string{
				"Schedule a consultation with a general practitioner",
				"Monitor symptoms for the next 24 to 48 hours",
				"Stay hydrated and rest",
			},
		}
	default:
		return map[string]any{}
	}
}
