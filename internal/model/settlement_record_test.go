package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSettlementRecordJSONRoundTrip(t *testing.T) {
	original := SettlementRecord{
		PoolID:          "0xabc123",
		BlockNumber:     36000000,
		Seq:             2,
		Sender:          "0x1111111111111111111111111111111111111111",
		ZeroForOne:      true,
		ExactInput:      true,
		AmountSpecified: "-100",
		Amount0:         "-100",
		Amount1:         "83",
		Strategy:        "external_pool",
		ExternalPool:    "0x2222222222222222222222222222222222222222",
		Reserve0:        "1000",
		Reserve1:        "1000",
		FeeAsset:        "0x3333333333333333333333333333333333333333",
		TotalFee:        "0",
		RetainedFee:     "0",
		DonatedFee:      "0",
		RecordedAt:      "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded SettlementRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
	if decoded.Failed() {
		t.Fatalf("record without error reported as failed")
	}
}

func TestSettlementRecordAmountsAreStrings(t *testing.T) {
	data, err := json.Marshal(SettlementRecord{Amount0: "-340282366920938463463374607431768211455", Amount1: "1"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["amount0"].(string); !ok {
		t.Fatalf("amount0 should be string")
	}
	if _, ok := decoded["external_pool"]; ok {
		t.Fatalf("empty external_pool should be omitted")
	}
}
