// Package badge renders a repository risk grade as a shields.io endpoint
// or a standalone SVG. Only the grade and color leave the scan; no
// finding details are embedded in the badge.
package badge

import (
	"encoding/json"
	"fmt"

	"skillscan/internal/model"
)

// Grade maps a scan report to a letter grade and badge color. Correlated
// findings weigh like their anchor severity; any cross-file chain caps
// the grade at C because a coordinated pattern is worse than the same
// matches in isolation.
func Grade(report model.ScanReport) (grade string, color string) {
	critical := report.CountsBySeverity[string(model.SeverityCritical)]
	high := report.CountsBySeverity[string(model.SeverityHigh)]
	total := report.TotalFindings()
	chained := len(report.CorrelationFindings) > 0

	switch {
	case total == 0:
		return "A+", "brightgreen"
	case critical == 0 && high == 0 && !chained:
		return "A", "green"
	case critical == 0 && high <= 3 && !chained:
		return "B", "yellowgreen"
	case critical == 0:
		return "C", "yellow"
	case critical <= 3:
		return "D", "orange"
	default:
		return "F", "red"
	}
}

type shieldsEndpoint struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
}

// ShieldsJSON returns a shields.io endpoint JSON document.
func ShieldsJSON(label, grade, color string) []byte {
	b, _ := json.MarshalIndent(shieldsEndpoint{
		SchemaVersion: 1,
		Label:         label,
		Message:       grade,
		Color:         color,
	}, "", "  ")
	return append(b, '\n')
}

var hexForColor = map[string]string{
	"brightgreen": "#4c1",
	"green":       "#97ca00",
	"yellowgreen": "#a4a61d",
	"yellow":      "#dfb317",
	"orange":      "#fe7d37",
	"red":         "#e05d44",
}

// RenderSVG generates a self-contained flat-style SVG badge.
func RenderSVG(label, grade, color string) []byte {
	hex, ok := hexForColor[color]
	if !ok {
		hex = "#9f9f9f"
	}

	labelWidth := float64(len(label))*6.5 + 10
	gradeWidth := float64(len(grade))*7.5 + 10
	totalWidth := labelWidth + gradeWidth

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="20">
  <linearGradient id="b" x2="0" y2="100%%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="a">
    <rect width="%.0f" height="20" rx="3" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#a)">
    <path fill="#555" d="M0 0h%.0fv20H0z"/>
    <path fill="%s" d="M%.0f 0h%.0fv20H%.0fz"/>
    <path fill="url(#b)" d="M0 0h%.0fv20H0z"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="DejaVu Sans,Verdana,Geneva,sans-serif" font-size="11">
    <text x="%.1f" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%.1f" y="14">%s</text>
    <text x="%.1f" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%.1f" y="14">%s</text>
  </g>
</svg>
`,
		totalWidth,
		totalWidth,
		labelWidth,
		hex,
		labelWidth, gradeWidth, labelWidth,
		totalWidth,
		labelWidth/2, label,
		labelWidth/2, label,
		labelWidth+gradeWidth/2, grade,
		labelWidth+gradeWidth/2, grade,
	)
	return []byte(svg)
}
