package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_AtOrAbove(t *testing.T) {
	assert.True(t, SeverityCritical.AtOrAbove(SeverityLow))
	assert.True(t, SeverityHigh.AtOrAbove(SeverityHigh))
	assert.False(t, SeverityMedium.AtOrAbove(SeverityHigh))
	assert.False(t, SeverityLow.AtOrAbove(SeverityMedium))

	// Unknown severities rank below everything.
	assert.False(t, Severity("bogus").AtOrAbove(SeverityLow))
	// Unknown minimum is treated as the strictest filter.
	assert.False(t, SeverityHigh.AtOrAbove(Severity("bogus")))
	assert.True(t, SeverityCritical.AtOrAbove(Severity("bogus")))
}

func TestWebhookEndpoint_Matches(t *testing.T) {
	anomaly := &AnomalyDetection{
		ID:          "a1",
		AnomalyType: "wash_trading",
		Severity:    SeverityHigh,
	}

	tests := []struct {
		name     string
		endpoint WebhookEndpoint
		want     bool
	}{
		{
			name:     "active, severity passes, no type filter",
			endpoint: WebhookEndpoint{IsActive: true, MinSeverity: SeverityMedium},
			want:     true,
		},
		{
			name:     "inactive endpoint never matches",
			endpoint: WebhookEndpoint{IsActive: false, MinSeverity: SeverityLow},
			want:     false,
		},
		{
			name:     "severity below minimum",
			endpoint: WebhookEndpoint{IsActive: true, MinSeverity: SeverityCritical},
			want:     false,
		},
		{
			name: "type allowlist hit",
			endpoint: WebhookEndpoint{
				IsActive:     true,
				MinSeverity:  SeverityLow,
				AnomalyTypes: []string{"volume_spike", "wash_trading"},
			},
			want: true,
		},
		{
			name: "type allowlist miss",
			endpoint: WebhookEndpoint{
				IsActive:     true,
				MinSeverity:  SeverityLow,
				AnomalyTypes: []string{"volume_spike"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.endpoint.Matches(anomaly))
		})
	}
}

func TestWebhookDeliveryLog_TruncateBody(t *testing.T) {
	log := &WebhookDeliveryLog{ResponseBody: strings.Repeat("x", 1500)}
	log.TruncateBody()
	assert.Len(t, log.ResponseBody, 1000)

	short := &WebhookDeliveryLog{ResponseBody: "ok"}
	short.TruncateBody()
	assert.Equal(t, "ok", short.ResponseBody)
}

func TestNewAlertPayload(t *testing.T) {
	detected := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	anomaly := &AnomalyDetection{
		ID:              "a1",
		AnomalyType:     "volume_spike",
		Severity:        SeverityMedium,
		ConfidenceScore: 0.7,
		TxHash:          "0xdead",
		DetectedAt:      detected,
		Data:            map[string]interface{}{"total_volume": 500.0},
	}

	payload := NewAlertPayload(anomaly)
	assert.Equal(t, "anomaly_detected", payload.Event)
	assert.Equal(t, "2026-08-20T14:30:00Z", payload.Timestamp)
	assert.Equal(t, "a1", payload.Anomaly.ID)
	assert.Equal(t, "volume_spike", payload.Anomaly.Type)
	assert.Equal(t, SeverityMedium, payload.Anomaly.Severity)
	assert.Equal(t, "0xdead", payload.Anomaly.TxHash)
	assert.Equal(t, anomaly.Data, payload.Data)
}
