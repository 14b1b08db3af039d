package tokens

import "testing"

func TestEstimate(t *testing.T) {
	e := NewEstimator()

	if got := e.Estimate(""); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}

	got := e.Estimate("Patient reports fever and headache for three days.")
	if got <= 0 {
		t.Errorf("Estimate() = %d, want positive count", got)
	}
	if got > 50 {
		t.Errorf("Estimate() = %d, implausibly high for a short sentence", got)
	}
}

func TestEstimate_CharacterFallback(t *testing.T) {
	// An estimator without a codec falls back to the chars/4 heuristic.
	e := &Estimator{}

	if got := e.Estimate("12345678"); got != 2 {
		t.Errorf("Estimate() = %d, want 2", got)
	}
	if got := e.Estimate("abc"); got != 1 {
		t.Errorf("Estimate() = %d, want 1", got)
	}
}
