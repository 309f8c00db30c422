package engine

import (
	"testing"

	"skillscan/internal/model"
)

func TestRiskScore_Bands(t *testing.T) {
	tests := []struct {
		sev      model.Severity
		lo, hi   int
	}{
		{model.SeverityCritical, 95, 100},
		{model.SeverityHigh, 75, 85},
		{model.SeverityMedium, 55, 65},
		{model.SeverityLow, 35, 45},
		{model.SeverityInfo, 10, 25},
	}
	signals := []float64{0.01, 0.25, 0.5, 0.75, 1.0}
	for _, tc := range tests {
		for _, sig := range signals {
			got := RiskScore(tc.sev, sig)
			if got < tc.lo || got > tc.hi {
				t.Errorf("RiskScore(%s, %.2f) = %d, want within [%d,%d]", tc.sev, sig, got, tc.lo, tc.hi)
			}
		}
	}
}

func TestRiskScore_BandEndpoints(t *testing.T) {
	if got := RiskScore(model.SeverityHigh, 1.0); got != 85 {
		t.Errorf("full signal should hit band top, got %d", got)
	}
	if got := RiskScore(model.SeverityCritical, 1.0); got != 100 {
		t.Errorf("critical at full signal should be 100, got %d", got)
	}
}

func TestRiskScore_DefaultSignal(t *testing.T) {
	// Zero or negative signals fall back to the neutral default instead of
	// collapsing to the band floor.
	want := RiskScore(model.SeverityMedium, defaultSignal)
	if got := RiskScore(model.SeverityMedium, 0); got != want {
		t.Errorf("zero signal: got %d, want %d", got, want)
	}
	if got := RiskScore(model.SeverityMedium, -3); got != want {
		t.Errorf("negative signal: got %d, want %d", got, want)
	}
}

func TestRiskScore_SignalOverflowClamped(t *testing.T) {
	if got := RiskScore(model.SeverityLow, 5.0); got != 45 {
		t.Errorf("oversized signal should clamp to band top, got %d", got)
	}
}

func TestRiskScore_MonotonicInSeverity(t *testing.T) {
	order := []model.Severity{
		model.SeverityInfo, model.SeverityLow, model.SeverityMedium,
		model.SeverityHigh, model.SeverityCritical,
	}
	for _, sig := range []float64{0.1, 0.5, 1.0} {
		prev := -1
		for _, sev := range order {
			got := RiskScore(sev, sig)
			if got <= prev {
				t.Errorf("score not monotonic at signal %.1f: %s=%d, previous=%d", sig, sev, got, prev)
			}
			prev = got
		}
	}
}

func TestRiskScore_UnknownSeverityUsesInfoBand(t *testing.T) {
	got := RiskScore(model.Severity("bogus"), 0.5)
	if got < 10 || got > 25 {
		t.Errorf("unknown severity should score in info band, got %d", got)
	}
}

func TestCorrelationScore(t *testing.T) {
	tests := []struct {
		strength float64
		want     int
	}{
		{0, 0},
		{0.5, 50},
		{0.847, 85},
		{1, 100},
		{1.7, 100},
		{-0.2, 0},
	}
	for _, tc := range tests {
		if got := CorrelationScore(tc.strength); got != tc.want {
			t.Errorf("CorrelationScore(%.3f) = %d, want %d", tc.strength, got, tc.want)
		}
	}
}
