package model

// PoolRow is the storage form of a hooked pool and its hook state.
type PoolRow struct {
	PoolID              string `json:"pool_id"`
	Currency0           string `json:"currency0"`
	Currency1           string `json:"currency1"`
	Fee                 uint32 `json:"fee"`
	TickSpacing         int32  `json:"tick_spacing"`
	ExternalPool        string `json:"external_pool"`
	LiquidityToken      string `json:"liquidity_token"`
	RetainedFeeBips     uint32 `json:"retained_fee_bips"`
	LastZeroForOneBlock uint64 `json:"last_zero_for_one_block"`
	LastOneForZeroBlock uint64 `json:"last_one_for_zero_block"`
}
