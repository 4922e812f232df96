package database

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

// ClickHouseProfileRepository implements ProfileRepository. The table is a
// ReplacingMergeTree keyed by wallet address, so Upsert is a plain insert
// with last-writer-wins semantics — exactly what idempotent recomputation
// needs, and no partial writes are ever visible.
type ClickHouseProfileRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseProfileRepository creates a new profile repository
func NewClickHouseProfileRepository(client *ClickHouseClient, logger *logger.Logger) repository.ProfileRepository {
	return &ClickHouseProfileRepository{
		client: client,
		logger: logger.WithComponent("profile-repo"),
	}
}

// Upsert creates or fully replaces the profile for its address.
func (r *ClickHouseProfileRepository) Upsert(ctx context.Context, p *entity.BehaviorProfile) error {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO behavior_profiles (
			wallet_address, avg_transaction_value, transaction_frequency,
			total_transactions, total_volume, preferred_collections,
			risk_score, first_seen, last_activity, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.client.Conn().Exec(ctx, query,
		p.WalletAddress, p.AvgTransactionValue, p.TransactionFrequency,
		p.TotalTransactions, p.TotalVolume, p.PreferredCollections,
		p.RiskScore, p.FirstSeen, p.LastActivity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert profile for %s: %w", p.WalletAddress, err)
	}
	return nil
}

// Get retrieves a profile by wallet address.
func (r *ClickHouseProfileRepository) Get(ctx context.Context, address string) (*entity.BehaviorProfile, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT wallet_address, avg_transaction_value, transaction_frequency,
		       total_transactions, total_volume, preferred_collections,
		       risk_score, first_seen, last_activity
		FROM behavior_profiles FINAL
		WHERE wallet_address = ?
	`
	p := &entity.BehaviorProfile{}
	err := r.client.Conn().QueryRow(ctx, query, address).Scan(
		&p.WalletAddress, &p.AvgTransactionValue, &p.TransactionFrequency,
		&p.TotalTransactions, &p.TotalVolume, &p.PreferredCollections,
		&p.RiskScore, &p.FirstSeen, &p.LastActivity)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile for %s: %w", address, err)
	}
	return p, nil
}
