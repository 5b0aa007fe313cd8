package fees

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/ledger"
	"routedHook/internal/model"
	"routedHook/internal/settlement"
)

// Distributor moves a computed fee: the donation goes to the pool's liquidity,
// the retained share into the hook's custody.
type Distributor struct {
	self   common.Address
	ledger ledger.Ledger
	settle *settlement.Adapter
}

func NewDistributor(self common.Address, l ledger.Ledger, settle *settlement.Adapter) *Distributor {
	return &Distributor{self: self, ledger: l, settle: settle}
}

// Distribute returns the amount to charge the swapper on the fee currency.
func (d *Distributor) Distribute(key model.PoolKey, step model.FeeStep) (*big.Int, error) {
	if step.TotalFee.IsZero() {
		return new(big.Int), nil
	}
	donated := step.DonatedFee().ToBig()
	if donated.Sign() > 0 {
		amount0, amount1 := new(big.Int), new(big.Int)
		if step.FeeAsset == key.Currency0 {
			amount0 = donated
		} else {
			amount1 = donated
		}
		if err := d.ledger.Donate(d.self, key, amount0, amount1); err != nil {
			return nil, fmt.Errorf("%w: donate %s %s: %w", settlement.ErrSettlementFailed, donated, step.FeeAsset, err)
		}
	}
	if !step.RetainedFee.IsZero() {
		if err := d.settle.Take(step.FeeAsset, step.RetainedFee.ToBig(), common.Address{}); err != nil {
			return nil, err
		}
	}
	return step.TotalFee.ToBig(), nil
}
