package service

import (
	"context"
	"errors"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ProfileApplicationService recomputes behavior profiles for recently
// active addresses. Each profile is derived wholesale from the address's
// lifetime transactions, so reruns converge regardless of prior state.
type ProfileApplicationService struct {
	events   repository.EventRepository
	profiles repository.ProfileRepository
	riskCfg  entity.RiskConfig
	window   time.Duration
	logger   *logger.Logger
}

// NewProfileApplicationService creates a new profile application service
func NewProfileApplicationService(
	events repository.EventRepository,
	profiles repository.ProfileRepository,
	riskCfg entity.RiskConfig,
	window time.Duration,
	logger *logger.Logger,
) *ProfileApplicationService {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &ProfileApplicationService{
		events:   events,
		profiles: profiles,
		riskCfg:  riskCfg,
		window:   window,
		logger:   logger.WithComponent("profile-service"),
	}
}

// RecomputeProfiles rebuilds the profile of every address active inside
// the window. Failures are isolated per address: one bad address never
// aborts the batch.
func (s *ProfileApplicationService) RecomputeProfiles(ctx context.Context) (updated, failed int, err error) {
	now := time.Now().UTC()
	addresses, err := s.events.ActiveAddresses(ctx, now.Add(-s.window))
	if err != nil {
		return 0, 0, err
	}

	for _, address := range addresses {
		if err := s.recomputeOne(ctx, address, now); err != nil {
			failed++
			s.logger.Error("Profile recompute failed",
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		updated++
	}

	s.logger.Info("Profile pass complete",
		zap.Int("updated", updated),
		zap.Int("failed", failed))
	return updated, failed, nil
}

func (s *ProfileApplicationService) recomputeOne(ctx context.Context, address string, now time.Time) error {
	txs, err := s.events.TransactionsForAddress(ctx, address)
	if err != nil {
		return err
	}

	profile := entity.ComputeProfile(address, txs, s.riskCfg, now)

	// first_seen is set when the profile record is created and never moves.
	existing, err := s.profiles.Get(ctx, address)
	switch {
	case err == nil:
		profile.FirstSeen = existing.FirstSeen
	case errors.Is(err, repository.ErrNotFound):
		if len(txs) > 0 {
			profile.FirstSeen = txs[0].Timestamp
		}
	default:
		return err
	}

	return s.profiles.Upsert(ctx, profile)
}
