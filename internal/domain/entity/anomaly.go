package entity

import (
	"time"
)

// AnomalyStatus is the processing lifecycle of a detection record
type AnomalyStatus string

const (
	AnomalyPending    AnomalyStatus = "pending"
	AnomalyProcessing AnomalyStatus = "processing" // claimed by a notification run
	AnomalyProcessed  AnomalyStatus = "processed"
	AnomalyFailed     AnomalyStatus = "failed"
)

// Severity levels, ordered low to critical
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityOrder = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtOrAbove reports whether s is at least min. Unknown severities rank
// below everything so they only match endpoints configured for "low".
func (s Severity) AtOrAbove(min Severity) bool {
	sv, ok := severityOrder[s]
	if !ok {
		sv = -1
	}
	mv, ok := severityOrder[min]
	if !ok {
		mv = severityOrder[SeverityCritical]
	}
	return sv >= mv
}

// AnomalyDetection represents one detected anomaly. Records are immutable
// once processed except for the status transition.
type AnomalyDetection struct {
	ID              string                 `json:"id"`
	AnomalyType     string                 `json:"anomaly_type"`
	Severity        Severity               `json:"severity"`
	ConfidenceScore float64                `json:"confidence_score"`
	Status          AnomalyStatus          `json:"status"`
	Data            map[string]interface{} `json:"data"`
	TxHash          string                 `json:"tx_hash,omitempty"`
	DetectedAt      time.Time              `json:"detected_at"`
}
