package engine

import (
	"math"

	"skillscan/internal/model"
)

// Severity score bands. A stronger signal moves the score toward the top
// of its band but never across band boundaries, so the scorer stays
// monotonic in severity.
var scoreBands = map[model.Severity][2]int{
	model.SeverityCritical: {95, 100},
	model.SeverityHigh:     {75, 85},
	model.SeverityMedium:   {55, 65},
	model.SeverityLow:      {35, 45},
	model.SeverityInfo:     {10, 25},
}

const defaultSignal = 0.7

// RiskScore converts a severity plus a [0,1] strength/confidence signal
// into an integer in [0,100]. A non-positive signal falls back to a
// neutral default rather than zeroing the score.
func RiskScore(sev model.Severity, signal float64) int {
	band, ok := scoreBands[sev]
	if !ok {
		band = scoreBands[model.SeverityInfo]
	}
	if signal <= 0 {
		signal = defaultSignal
	}
	if signal > 1 {
		signal = 1
	}
	lo, hi := band[0], band[1]
	return clampScore(lo + int(math.Round(signal*float64(hi-lo))))
}

// CorrelationScore maps a correlation strength directly onto [0,100].
func CorrelationScore(strength float64) int {
	return clampScore(int(math.Round(strength * 100)))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
