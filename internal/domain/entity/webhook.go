package entity

import (
	"time"
)

// WebhookEndpoint represents a registered alert destination
type WebhookEndpoint struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	SecretKey    string    `json:"secret_key,omitempty"`
	MinSeverity  Severity  `json:"min_severity"`
	AnomalyTypes []string  `json:"anomaly_types,omitempty"` // empty = all types
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Matches reports whether the endpoint should receive the given anomaly.
func (w *WebhookEndpoint) Matches(a *AnomalyDetection) bool {
	if !w.IsActive {
		return false
	}
	if !a.Severity.AtOrAbove(w.MinSeverity) {
		return false
	}
	if len(w.AnomalyTypes) == 0 {
		return true
	}
	for _, t := range w.AnomalyTypes {
		if t == a.AnomalyType {
			return true
		}
	}
	return false
}

// DeliveryOutcome classifies one webhook delivery attempt. Timeouts are
// logged distinctly from failures because both are retryable but signal
// different endpoint problems.
type DeliveryOutcome string

const (
	DeliverySuccess DeliveryOutcome = "success"
	DeliveryFailure DeliveryOutcome = "failure"
	DeliveryTimeout DeliveryOutcome = "timeout"
)

const maxLoggedResponseBody = 1000

// WebhookDeliveryLog records one delivery attempt for one
// (anomaly, endpoint) pair. Logs are retained for a bounded window
// and purged by the cleanup sweep.
type WebhookDeliveryLog struct {
	ID           string          `json:"id"`
	EndpointID   string          `json:"endpoint_id"`
	AnomalyID    string          `json:"anomaly_id"`
	Outcome      DeliveryOutcome `json:"outcome"`
	StatusCode   int             `json:"status_code"`
	ResponseBody string          `json:"response_body"`
	Attempt      int             `json:"attempt"`
	SentAt       time.Time       `json:"sent_at"`
}

// TruncateBody bounds the stored response body.
func (l *WebhookDeliveryLog) TruncateBody() {
	if len(l.ResponseBody) > maxLoggedResponseBody {
		l.ResponseBody = l.ResponseBody[:maxLoggedResponseBody]
	}
}

// AlertPayload is the wire format posted to webhook endpoints
type AlertPayload struct {
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Anomaly   AlertAnomaly           `json:"anomaly"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// AlertAnomaly is the anomaly section of an alert payload
type AlertAnomaly struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Severity        Severity `json:"severity"`
	ConfidenceScore float64  `json:"confidence_score"`
	TxHash          string   `json:"tx_hash,omitempty"`
	DetectedAt      string   `json:"detected_at"`
}

// NewAlertPayload builds the outbound payload for an anomaly.
func NewAlertPayload(a *AnomalyDetection) *AlertPayload {
	return &AlertPayload{
		Event:     "anomaly_detected",
		Timestamp: a.DetectedAt.UTC().Format(time.RFC3339),
		Anomaly: AlertAnomaly{
			ID:              a.ID,
			Type:            a.AnomalyType,
			Severity:        a.Severity,
			ConfidenceScore: a.ConfidenceScore,
			TxHash:          a.TxHash,
			DetectedAt:      a.DetectedAt.UTC().Format(time.RFC3339),
		},
		Data: a.Data,
	}
}
