package repository

import (
	"context"

	"nft-analytics-pipeline/internal/domain/entity"
)

// ProfileRepository defines the interface for behavior profile storage.
// Upsert is the unit of atomicity per address: no partial profile is ever
// visible, which makes last-writer-wins safe for concurrent recomputation.
type ProfileRepository interface {
	// Upsert creates or fully replaces the profile for its address.
	Upsert(ctx context.Context, profile *entity.BehaviorProfile) error

	// Get retrieves a profile by wallet address, ErrNotFound when absent.
	Get(ctx context.Context, address string) (*entity.BehaviorProfile, error)
}
