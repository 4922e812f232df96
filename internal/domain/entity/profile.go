package entity

import (
	"sort"
	"time"
)

// RiskConfig holds the tunable thresholds for the risk score heuristics.
// The defaults mirror the values the detection team has been running with;
// they are configuration, not constants, because the intent behind them is
// "flag suspicious concentration" rather than any derived bound.
type RiskConfig struct {
	HighFrequencyPerDay      float64 `json:"high_frequency_per_day"`
	HighFrequencyWeight      float64 `json:"high_frequency_weight"`
	HighVolumeThreshold      float64 `json:"high_volume_threshold"`
	HighVolumeWeight         float64 `json:"high_volume_weight"`
	WashTradeMaxCollections  int     `json:"wash_trade_max_collections"`
	WashTradeMinTransactions int     `json:"wash_trade_min_transactions"`
	WashTradeWeight          float64 `json:"wash_trade_weight"`
}

// DefaultRiskConfig returns the production thresholds.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		HighFrequencyPerDay:      10,
		HighFrequencyWeight:      0.3,
		HighVolumeThreshold:      100,
		HighVolumeWeight:         0.2,
		WashTradeMaxCollections:  2,
		WashTradeMinTransactions: 10,
		WashTradeWeight:          0.3,
	}
}

// BehaviorProfile represents the derived per-address activity summary.
// It is a cache over the address's lifetime transaction history, recomputed
// wholesale on every pass and safe to overwrite last-writer-wins.
type BehaviorProfile struct {
	WalletAddress        string    `json:"wallet_address"`
	AvgTransactionValue  float64   `json:"avg_transaction_value"`
	TransactionFrequency float64   `json:"transaction_frequency"` // tx per day
	TotalTransactions    int64     `json:"total_transactions"`
	TotalVolume          float64   `json:"total_volume"`
	PreferredCollections []string  `json:"preferred_collections"` // top 5 by tx count
	RiskScore            float64   `json:"risk_score"`            // in [0, 1]
	FirstSeen            time.Time `json:"first_seen"`
	LastActivity         time.Time `json:"last_activity"`
}

const maxPreferredCollections = 5

// ComputeProfile derives a behavior profile from the address's lifetime
// transaction slice. It is a pure function: identical input yields an
// identical profile, which is what makes last-writer-wins upserts safe
// under concurrent recomputation.
//
// Transactions must be ordered by timestamp ascending; ties between
// collections with equal counts resolve to first-encountered order.
func ComputeProfile(address string, txs []*NFTEvent, cfg RiskConfig, now time.Time) *BehaviorProfile {
	p := &BehaviorProfile{
		WalletAddress: address,
		FirstSeen:     now,
		LastActivity:  now,
	}
	if len(txs) == 0 {
		return p
	}

	var totalVolume float64
	counts := make(map[string]int)
	firstIndex := make(map[string]int)
	for i, tx := range txs {
		totalVolume += tx.Price
		if _, ok := counts[tx.ContractAddress]; !ok {
			firstIndex[tx.ContractAddress] = i
		}
		counts[tx.ContractAddress]++
	}

	total := int64(len(txs))
	first := txs[0].Timestamp
	last := txs[len(txs)-1].Timestamp

	daysActive := int64(last.Sub(first).Hours()/24) + 1
	if daysActive < 1 {
		daysActive = 1
	}

	p.TotalVolume = totalVolume
	p.TotalTransactions = total
	p.AvgTransactionValue = totalVolume / float64(total)
	p.TransactionFrequency = float64(total) / float64(daysActive)
	p.PreferredCollections = rankCollections(counts, firstIndex)
	p.LastActivity = last
	p.RiskScore = computeRiskScore(p, cfg)

	return p
}

// rankCollections returns the top collections by transaction count,
// first-encountered order breaking ties.
func rankCollections(counts map[string]int, firstIndex map[string]int) []string {
	ranked := make([]string, 0, len(counts))
	for addr := range counts {
		ranked = append(ranked, addr)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstIndex[ranked[i]] < firstIndex[ranked[j]]
	})
	if len(ranked) > maxPreferredCollections {
		ranked = ranked[:maxPreferredCollections]
	}
	return ranked
}

// computeRiskScore sums the independent risk contributions and clamps to 1.0.
// Each contribution applies at most once.
func computeRiskScore(p *BehaviorProfile, cfg RiskConfig) float64 {
	score := 0.0

	if p.TransactionFrequency > cfg.HighFrequencyPerDay {
		score += cfg.HighFrequencyWeight
	}
	if p.TotalVolume > cfg.HighVolumeThreshold {
		score += cfg.HighVolumeWeight
	}
	// Heavy activity concentrated in very few collections suggests wash trading.
	if len(p.PreferredCollections) <= cfg.WashTradeMaxCollections &&
		p.TotalTransactions > int64(cfg.WashTradeMinTransactions) {
		score += cfg.WashTradeWeight
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
