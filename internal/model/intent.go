package model

// Intent kinds understood by the replay runner.
const (
	IntentSwap            = "swap"
	IntentAddLiquidity    = "add_liquidity"
	IntentRemoveLiquidity = "remove_liquidity"
	IntentSetFeeBips      = "set_fee_bips"
)

// Intent is one line of a replay input file.
type Intent struct {
	BlockNumber uint64 `json:"block_number"`
	Kind        string `json:"kind"`
	Sender      string `json:"sender"`

	// swap
	ZeroForOne bool   `json:"zero_for_one,omitempty"`
	Amount     string `json:"amount,omitempty"`
	ExactInput bool   `json:"exact_input,omitempty"`

	// liquidity
	TickLower int32  `json:"tick_lower,omitempty"`
	TickUpper int32  `json:"tick_upper,omitempty"`
	Liquidity string `json:"liquidity,omitempty"`

	// admin
	FeeBips uint32 `json:"fee_bips,omitempty"`
}
