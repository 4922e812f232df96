package repository

import (
	"context"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
)

// EventRepository defines read access to the append-only event store.
// The pipeline never writes through this interface; the fixed query methods
// are the whole contract, so the core carries no query-building dependency.
type EventRepository interface {
	// ActiveAddresses returns the distinct addresses appearing as buyer or
	// seller in transactions since the given time.
	ActiveAddresses(ctx context.Context, since time.Time) ([]string, error)

	// TransactionsForAddress returns the address's lifetime transactions
	// (buyer or seller side), ordered by timestamp ascending. Rows failing
	// validation are skipped, not surfaced.
	TransactionsForAddress(ctx context.Context, address string) ([]*entity.NFTEvent, error)

	// RecentContentIDs returns the distinct metadata content ids of tokens
	// minted since the given time.
	RecentContentIDs(ctx context.Context, since time.Time) ([]string, error)
}

// UserActivityRepository defines the activity queries behind retention
// cohorts.
type UserActivityRepository interface {
	// CohortUsers returns the users whose first activity falls in
	// [from, to).
	CohortUsers(ctx context.Context, from, to time.Time) ([]string, error)

	// CountActive returns how many of the given users were active in
	// [from, to), counting each user once.
	CountActive(ctx context.Context, users []string, from, to time.Time) (int, error)
}
