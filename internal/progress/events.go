package progress

import "time"

type EventType string

const (
	EventScanStarted  EventType = "scan_started"
	EventScanWarning  EventType = "scan_warning"
	EventScanFinished EventType = "scan_finished"
	EventRuleStarted  EventType = "rule_started"
	EventRuleFinished EventType = "rule_finished"
	EventCorrelation  EventType = "correlation_pass"
)

type Event struct {
	Type         EventType `json:"type"`
	At           time.Time `json:"at"`
	RunID        string    `json:"run_id,omitempty"`
	RuleID       string    `json:"rule_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
	FindingCount int       `json:"finding_count,omitempty"`
	FilesScanned int       `json:"files_scanned,omitempty"`
	DurationMS   int64     `json:"duration_ms,omitempty"`
}
