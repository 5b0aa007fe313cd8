package hook

import (
	"errors"

	"routedHook/internal/fees"
	"routedHook/internal/model"
	"routedHook/internal/pricing"
	"routedHook/internal/settlement"
)

var (
	ErrThrottled       = errors.New("direction already swapped this block")
	ErrPolicyViolation = errors.New("policy violation")
	ErrUnauthorized    = errors.New("caller is not the fee administrator")

	ErrInsufficientLiquidity = pricing.ErrInsufficientLiquidity
	ErrSettlementFailed      = settlement.ErrSettlementFailed
	ErrInvalidFeeBips        = fees.ErrInvalidFeeBips
	ErrDeltaOverflow         = model.ErrDeltaOverflow
)

// outcome labels an error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, ErrSettlementFailed):
		return "settlement_failed"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	default:
		return "error"
	}
}
