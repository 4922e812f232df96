package repository

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
)

// AnomalyRepository defines the interface for anomaly detection records
type AnomalyRepository interface {
	// Insert persists a newly detected anomaly with status pending.
	Insert(ctx context.Context, anomaly *entity.AnomalyDetection) error

	// ListPendingSince returns pending anomalies detected at or after the
	// given time, oldest first.
	ListPendingSince(ctx context.Context, since time.Time) ([]*entity.AnomalyDetection, error)

	// UpdateStatus transitions an anomaly's status.
	UpdateStatus(ctx context.Context, id string, status entity.AnomalyStatus) error

	// PurgeBefore deletes anomalies detected before the cutoff regardless
	// of status, returning the number removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ClaimStore grants exclusive processing rights over an anomaly. A claim
// is a conditional insert that fails if the anomaly is already claimed,
// guaranteeing at most one delivery attempt sequence per anomaly even when
// two pipeline runs select the same pending set.
type ClaimStore interface {
	// Claim attempts to claim the anomaly; false means another run holds it.
	Claim(ctx context.Context, anomalyID string) (bool, error)

	// Release drops the claim early. Claims also expire on their own so a
	// crashed worker cannot pin an anomaly forever.
	Release(ctx context.Context, anomalyID string) error
}
