package database

import (
	"context"
	"fmt"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ClickHouseEventRepository implements EventRepository over the writer-owned
// nft_events table. Strictly read-only.
type ClickHouseEventRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseEventRepository creates a new event repository
func NewClickHouseEventRepository(client *ClickHouseClient, logger *logger.Logger) repository.EventRepository {
	return &ClickHouseEventRepository{
		client: client,
		logger: logger.WithComponent("event-repo"),
	}
}

// ActiveAddresses returns distinct buyer/seller addresses active since the
// given time.
func (r *ClickHouseEventRepository) ActiveAddresses(ctx context.Context, since time.Time) ([]string, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT address FROM (
			SELECT from_address AS address FROM nft_events
			WHERE timestamp >= ? AND from_address != ''
			UNION ALL
			SELECT to_address AS address FROM nft_events
			WHERE timestamp >= ? AND to_address != ''
		)
	`
	rows, err := r.client.Conn().Query(ctx, query, since, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// TransactionsForAddress returns the address's lifetime transactions,
// oldest first. Rows failing validation are logged and skipped, never
// silently coerced.
func (r *ClickHouseEventRepository) TransactionsForAddress(ctx context.Context, address string) ([]*entity.NFTEvent, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT tx_hash, event_type, contract_address, token_id,
		       amount, price, from_address, to_address, timestamp
		FROM nft_events
		WHERE from_address = ? OR to_address = ?
		ORDER BY timestamp ASC
	`
	rows, err := r.client.Conn().Query(ctx, query, address, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", address, err)
	}
	defer rows.Close()

	var events []*entity.NFTEvent
	for rows.Next() {
		ev := &entity.NFTEvent{}
		var eventType string
		if err := rows.Scan(&ev.TxHash, &eventType, &ev.ContractAddress, &ev.TokenID,
			&ev.Amount, &ev.Price, &ev.FromAddress, &ev.ToAddress, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.EventType = entity.EventType(eventType)

		if !ev.Valid() {
			r.logger.Warn("Skipping invalid event row",
				zap.String("tx_hash", ev.TxHash),
				zap.String("event_type", eventType))
			continue
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecentContentIDs returns distinct token content ids minted since the
// given time. Tokens without a metadata URI are skipped.
func (r *ClickHouseEventRepository) RecentContentIDs(ctx context.Context, since time.Time) ([]string, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT token_uri
		FROM nft_events
		WHERE event_type = 'mint' AND timestamp >= ? AND token_uri != ''
	`
	rows, err := r.client.Conn().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent content ids: %w", err)
	}
	defer rows.Close()

	var cids []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, fmt.Errorf("failed to scan content id: %w", err)
		}
		cids = append(cids, cid)
	}
	return cids, rows.Err()
}

// ClickHouseActivityRepository implements UserActivityRepository over
// nft_events for retention cohorts.
type ClickHouseActivityRepository struct {
	client *ClickHouseClient
	logger *logger.Logger
}

// NewClickHouseActivityRepository creates a new activity repository
func NewClickHouseActivityRepository(client *ClickHouseClient, logger *logger.Logger) repository.UserActivityRepository {
	return &ClickHouseActivityRepository{
		client: client,
		logger: logger.WithComponent("activity-repo"),
	}
}

// CohortUsers returns the addresses whose first activity falls in [from, to).
func (r *ClickHouseActivityRepository) CohortUsers(ctx context.Context, from, to time.Time) ([]string, error) {
	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT user FROM (
			SELECT to_address AS user, min(timestamp) AS first_activity
			FROM nft_events
			WHERE to_address != ''
			GROUP BY user
		)
		WHERE first_activity >= ? AND first_activity < ?
	`
	rows, err := r.client.Conn().Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query cohort users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan cohort user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountActive returns how many of the given users were active in [from, to).
func (r *ClickHouseActivityRepository) CountActive(ctx context.Context, users []string, from, to time.Time) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	ctx, cancel := r.client.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT uniqExact(to_address)
		FROM nft_events
		WHERE to_address IN (?) AND timestamp >= ? AND timestamp < ?
	`
	var count uint64
	if err := r.client.Conn().QueryRow(ctx, query, users, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return int(count), nil
}
