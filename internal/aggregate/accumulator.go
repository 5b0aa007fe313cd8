package aggregate

import (
	"fmt"
	"math/big"
	"time"

	"routedHook/internal/model"
)

// Accumulator holds fee totals for one pool. Index 0 and 1 follow the pool
// key's currency order.
type Accumulator struct {
	PoolID      string
	FirstBlock  uint64
	LastBlock   uint64
	SwapCount   uint64
	FailedCount uint64
	Volume      [2]*big.Int
	TotalFee    [2]*big.Int
	RetainedFee [2]*big.Int
	DonatedFee  [2]*big.Int
}

func NewAccumulator(poolID string) *Accumulator {
	return &Accumulator{
		PoolID:      poolID,
		Volume:      [2]*big.Int{new(big.Int), new(big.Int)},
		TotalFee:    [2]*big.Int{new(big.Int), new(big.Int)},
		RetainedFee: [2]*big.Int{new(big.Int), new(big.Int)},
		DonatedFee:  [2]*big.Int{new(big.Int), new(big.Int)},
	}
}

// Add folds one settlement into the totals. Failed swaps count towards
// FailedCount and nothing else.
func (a *Accumulator) Add(rec model.SettlementRecord) error {
	if a.FirstBlock == 0 || rec.BlockNumber < a.FirstBlock {
		a.FirstBlock = rec.BlockNumber
	}
	if rec.BlockNumber > a.LastBlock {
		a.LastBlock = rec.BlockNumber
	}
	if rec.Failed() {
		a.FailedCount++
		return nil
	}

	amount0, err := parseBigInt(rec.Amount0)
	if err != nil {
		return fmt.Errorf("amount0: %w", err)
	}
	amount1, err := parseBigInt(rec.Amount1)
	if err != nil {
		return fmt.Errorf("amount1: %w", err)
	}
	total, err := parseBigInt(rec.TotalFee)
	if err != nil {
		return fmt.Errorf("total fee: %w", err)
	}
	retained, err := parseBigInt(rec.RetainedFee)
	if err != nil {
		return fmt.Errorf("retained fee: %w", err)
	}
	donated, err := parseBigInt(rec.DonatedFee)
	if err != nil {
		return fmt.Errorf("donated fee: %w", err)
	}

	absAdd(a.Volume[0], amount0)
	absAdd(a.Volume[1], amount1)

	// the fee is charged on the unspecified currency
	i := 1
	if rec.ExactInput != rec.ZeroForOne {
		i = 0
	}
	a.TotalFee[i].Add(a.TotalFee[i], total)
	a.RetainedFee[i].Add(a.RetainedFee[i], retained)
	a.DonatedFee[i].Add(a.DonatedFee[i], donated)
	a.SwapCount++
	return nil
}

// Summary renders the totals in storage form.
func (a *Accumulator) Summary(now time.Time) model.PoolFeeSummary {
	return model.PoolFeeSummary{
		PoolID:       a.PoolID,
		FirstBlock:   a.FirstBlock,
		LastBlock:    a.LastBlock,
		SwapCount:    a.SwapCount,
		FailedCount:  a.FailedCount,
		Volume0:      a.Volume[0].String(),
		Volume1:      a.Volume[1].String(),
		TotalFee0:    a.TotalFee[0].String(),
		TotalFee1:    a.TotalFee[1].String(),
		RetainedFee0: a.RetainedFee[0].String(),
		RetainedFee1: a.RetainedFee[1].String(),
		DonatedFee0:  a.DonatedFee[0].String(),
		DonatedFee1:  a.DonatedFee[1].String(),
		ComputedAt:   now.UTC(),
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func absAdd(target *big.Int, value *big.Int) {
	if value == nil || target == nil {
		return
	}
	target.Add(target, new(big.Int).Abs(value))
}
