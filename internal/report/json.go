package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"skillscan/internal/model"
	"skillscan/internal/safefile"
)

// WriteJSONTo streams the report as indented JSON.
func WriteJSONTo(w io.Writer, report model.ScanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteJSON writes the full report as indented JSON via an atomic rename.
func WriteJSON(path string, report model.ScanReport) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := safefile.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteMarkdown writes the markdown rendering via an atomic rename.
func WriteMarkdown(path string, report model.ScanReport) error {
	if err := safefile.WriteFileAtomic(path, []byte(RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}
