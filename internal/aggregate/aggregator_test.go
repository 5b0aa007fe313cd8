package aggregate

import (
	"context"
	"strings"
	"testing"
	"time"

	"routedHook/internal/model"
)

type captureSink struct {
	got []model.PoolFeeSummary
}

func (c *captureSink) PutSummaries(_ context.Context, s []model.PoolFeeSummary) error {
	c.got = append(c.got, s...)
	return nil
}

func TestAccumulatorFeeCurrency(t *testing.T) {
	acc := NewAccumulator("0xpool")

	// exact input 0 -> 1: fee on currency1
	if err := acc.Add(model.SettlementRecord{
		BlockNumber: 5, ZeroForOne: true, ExactInput: true,
		Amount0: "-100", Amount1: "66", TotalFee: "17", RetainedFee: "1", DonatedFee: "16",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	// exact output 0 -> 1: fee on currency0
	if err := acc.Add(model.SettlementRecord{
		BlockNumber: 3, ZeroForOne: true, ExactInput: false,
		Amount0: "-117", Amount1: "83", TotalFee: "17", RetainedFee: "0", DonatedFee: "17",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := acc.Add(model.SettlementRecord{BlockNumber: 9, Error: "throttled"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	s := acc.Summary(time.Unix(0, 0))
	if s.SwapCount != 2 || s.FailedCount != 1 {
		t.Fatalf("counts %d %d", s.SwapCount, s.FailedCount)
	}
	if s.FirstBlock != 3 || s.LastBlock != 9 {
		t.Fatalf("block range %d..%d", s.FirstBlock, s.LastBlock)
	}
	if s.Volume0 != "217" || s.Volume1 != "149" {
		t.Fatalf("volumes %s %s", s.Volume0, s.Volume1)
	}
	if s.TotalFee0 != "17" || s.TotalFee1 != "17" {
		t.Fatalf("fees %s %s", s.TotalFee0, s.TotalFee1)
	}
	if s.RetainedFee1 != "1" || s.DonatedFee1 != "16" || s.DonatedFee0 != "17" {
		t.Fatalf("split %+v", s)
	}
}

func TestAccumulatorRejectsBadAmounts(t *testing.T) {
	acc := NewAccumulator("0xpool")
	if err := acc.Add(model.SettlementRecord{Amount0: "abc"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAggregatorRunFromJSONL(t *testing.T) {
	input := strings.Join([]string{
		`{"pool_id":"0xb","block_number":2,"zero_for_one":false,"exact_input":true,"amount0":"40","amount1":"-50","total_fee":"3","retained_fee":"0","donated_fee":"3"}`,
		``,
		`not json`,
		`{"pool_id":"0xa","block_number":1,"zero_for_one":true,"exact_input":true,"amount0":"-10","amount1":"8","total_fee":"1","retained_fee":"0","donated_fee":"1"}`,
	}, "\n")

	sink := &captureSink{}
	summaries, err := NewAggregator(nil).Run(context.Background(), strings.NewReader(input), sink)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summaries) != 2 || len(sink.got) != 2 {
		t.Fatalf("expected 2 summaries, got %d / %d", len(summaries), len(sink.got))
	}
	if summaries[0].PoolID != "0xa" || summaries[1].PoolID != "0xb" {
		t.Fatalf("summaries not ordered: %s %s", summaries[0].PoolID, summaries[1].PoolID)
	}
	// one-for-zero exact input charges currency0
	if summaries[1].TotalFee0 != "3" || summaries[1].TotalFee1 != "0" {
		t.Fatalf("unexpected fee split %+v", summaries[1])
	}
}
