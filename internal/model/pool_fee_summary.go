package model

import "time"

// PoolFeeSummary stores fee totals accumulated over a replay run. Amounts are
// decimal strings indexed by currency position in the pool key.
type PoolFeeSummary struct {
	PoolID       string    `json:"pool_id"`
	FirstBlock   uint64    `json:"first_block"`
	LastBlock    uint64    `json:"last_block"`
	SwapCount    uint64    `json:"swap_count"`
	FailedCount  uint64    `json:"failed_count"`
	Volume0      string    `json:"volume0"`
	Volume1      string    `json:"volume1"`
	TotalFee0    string    `json:"total_fee0"`
	TotalFee1    string    `json:"total_fee1"`
	RetainedFee0 string    `json:"retained_fee0"`
	RetainedFee1 string    `json:"retained_fee1"`
	DonatedFee0  string    `json:"donated_fee0"`
	DonatedFee1  string    `json:"donated_fee1"`
	ComputedAt   time.Time `json:"computed_at"`
}
