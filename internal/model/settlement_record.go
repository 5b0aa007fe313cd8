package model

import (
	"encoding/json"
)

// SettlementRecord is the persisted outcome of one swap routed through the hook.
// Amounts are decimal strings so they survive JSON without precision loss.
type SettlementRecord struct {
	PoolID          string `json:"pool_id"`
	BlockNumber     uint64 `json:"block_number"`
	Seq             uint64 `json:"seq"`
	Sender          string `json:"sender"`
	ZeroForOne      bool   `json:"zero_for_one"`
	ExactInput      bool   `json:"exact_input"`
	AmountSpecified string `json:"amount_specified"`
	Amount0         string `json:"amount0"`
	Amount1         string `json:"amount1"`
	Strategy        string `json:"strategy"`
	ExternalPool    string `json:"external_pool,omitempty"`
	Reserve0        string `json:"reserve0,omitempty"`
	Reserve1        string `json:"reserve1,omitempty"`
	FeeAsset        string `json:"fee_asset,omitempty"`
	TotalFee        string `json:"total_fee"`
	RetainedFee     string `json:"retained_fee"`
	DonatedFee      string `json:"donated_fee"`
	Error           string `json:"error,omitempty"`
	RecordedAt      string `json:"recorded_at"`
}

// Failed reports whether the swap was reverted.
func (r SettlementRecord) Failed() bool {
	return r.Error != ""
}

// MarshalJSON ensures SettlementRecord is encoded with stable field names.
func (r SettlementRecord) MarshalJSON() ([]byte, error) {
	type Alias SettlementRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a SettlementRecord from JSON.
func (r *SettlementRecord) UnmarshalJSON(data []byte) error {
	type Alias SettlementRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = SettlementRecord(a)
	return nil
}
