package delivery

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger("error")
	require.NoError(t, err)
	return l
}

func testPayload() *entity.AlertPayload {
	return entity.NewAlertPayload(&entity.AnomalyDetection{
		ID:          "a1",
		AnomalyType: "volume_spike",
		Severity:    entity.SeverityHigh,
		DetectedAt:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	})
}

func TestSend_SuccessWithSignature(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature-SHA256")
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"received":true}`))
	}))
	defer srv.Close()

	sender := NewHTTPWebhookSender(5*time.Second, testLogger(t))
	endpoint := &entity.WebhookEndpoint{ID: "e1", URL: srv.URL, SecretKey: "topsecret", IsActive: true}

	attempt, err := sender.Send(context.Background(), endpoint, testPayload())
	require.NoError(t, err)

	assert.Equal(t, entity.DeliverySuccess, attempt.Outcome)
	assert.Equal(t, http.StatusOK, attempt.StatusCode)
	assert.Equal(t, `{"received":true}`, attempt.ResponseBody)

	// The receiver can verify the body against the shared secret.
	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestSend_NoSignatureWithoutSecret(t *testing.T) {
	var hasHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasHeader = r.Header["X-Signature-Sha256"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPWebhookSender(5*time.Second, testLogger(t))
	endpoint := &entity.WebhookEndpoint{ID: "e1", URL: srv.URL, IsActive: true}

	attempt, err := sender.Send(context.Background(), endpoint, testPayload())
	require.NoError(t, err)
	assert.Equal(t, entity.DeliverySuccess, attempt.Outcome)
	assert.False(t, hasHeader)
}

func TestSend_NonSuccessStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broken"))
	}))
	defer srv.Close()

	sender := NewHTTPWebhookSender(5*time.Second, testLogger(t))
	endpoint := &entity.WebhookEndpoint{ID: "e1", URL: srv.URL, IsActive: true}

	attempt, err := sender.Send(context.Background(), endpoint, testPayload())
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryFailure, attempt.Outcome)
	assert.Equal(t, http.StatusBadGateway, attempt.StatusCode)
	assert.Equal(t, "upstream broken", attempt.ResponseBody)
}

func TestSend_TimeoutOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	sender := NewHTTPWebhookSender(20*time.Millisecond, testLogger(t))
	endpoint := &entity.WebhookEndpoint{ID: "e1", URL: srv.URL, IsActive: true}

	attempt, err := sender.Send(context.Background(), endpoint, testPayload())
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryTimeout, attempt.Outcome)
	assert.Zero(t, attempt.StatusCode)
}

func TestSend_BadURLIsError(t *testing.T) {
	sender := NewHTTPWebhookSender(time.Second, testLogger(t))
	endpoint := &entity.WebhookEndpoint{ID: "e1", URL: "://not-a-url", IsActive: true}

	_, err := sender.Send(context.Background(), endpoint, testPayload())
	assert.Error(t, err)
}
