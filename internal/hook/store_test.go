package hook

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

func TestCheckAndMark(t *testing.T) {
	rec := &PoolRecord{}

	if err := rec.CheckAndMark(true, 10); err != nil {
		t.Fatalf("first swap: %v", err)
	}
	if err := rec.CheckAndMark(true, 10); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected throttle, got %v", err)
	}
	if err := rec.CheckAndMark(false, 10); err != nil {
		t.Fatalf("opposite direction: %v", err)
	}
	if err := rec.CheckAndMark(true, 11); err != nil {
		t.Fatalf("next block: %v", err)
	}
	if rec.LastZeroForOneBlock != 11 || rec.LastOneForZeroBlock != 10 {
		t.Fatalf("markers %+v", rec)
	}
}

func TestCheckAndMarkHeightsStartAtOne(t *testing.T) {
	rec := &PoolRecord{}

	if err := rec.CheckAndMark(true, 1); err != nil {
		t.Fatalf("first block: %v", err)
	}
	// an unset marker reads as height 0
	if err := (&PoolRecord{}).CheckAndMark(false, 0); !errors.Is(err, ErrThrottled) {
		t.Fatalf("height 0 should collide with the unset marker, got %v", err)
	}
}

func TestPoolStoreLazyRecords(t *testing.T) {
	s := NewPoolStore()
	id := model.PoolID(common.HexToHash("0x01"))

	if _, ok := s.Lookup(id); ok {
		t.Fatalf("record exists before access")
	}
	rec := s.Get(id)
	if *rec != (PoolRecord{}) {
		t.Fatalf("record not default valued: %+v", rec)
	}
	rec.RetainedFeeBips = 2000
	if got, ok := s.Lookup(id); !ok || got.RetainedFeeBips != 2000 {
		t.Fatalf("lookup %+v %v", got, ok)
	}
}

func TestPoolStoreRestoreKeepsPointers(t *testing.T) {
	s := NewPoolStore()
	id := model.PoolID(common.HexToHash("0x01"))
	rec := s.Get(id)
	rec.LastZeroForOneBlock = 5

	snap := s.snapshot()
	rec.LastZeroForOneBlock = 6
	other := model.PoolID(common.HexToHash("0x02"))
	s.Get(other)

	s.restore(snap)
	if rec.LastZeroForOneBlock != 5 {
		t.Fatalf("held pointer not restored: %d", rec.LastZeroForOneBlock)
	}
	if _, ok := s.Lookup(other); ok {
		t.Fatalf("record created after snapshot survived restore")
	}
}

func TestUsableTicks(t *testing.T) {
	cases := []struct {
		spacing   int32
		wantLower int32
		wantUpper int32
	}{
		{spacing: 1, wantLower: -887272, wantUpper: 887272},
		{spacing: 10, wantLower: -887270, wantUpper: 887270},
		{spacing: 60, wantLower: -887220, wantUpper: 887220},
		{spacing: 200, wantLower: -887200, wantUpper: 887200},
	}
	for _, tc := range cases {
		if got := MinUsableTick(tc.spacing); got != tc.wantLower {
			t.Fatalf("spacing %d lower %d want %d", tc.spacing, got, tc.wantLower)
		}
		if got := MaxUsableTick(tc.spacing); got != tc.wantUpper {
			t.Fatalf("spacing %d upper %d want %d", tc.spacing, got, tc.wantUpper)
		}
		if !IsFullRange(tc.spacing, tc.wantLower, tc.wantUpper) {
			t.Fatalf("spacing %d full range not recognised", tc.spacing)
		}
	}
	if IsFullRange(60, -600, 600) {
		t.Fatalf("narrow range treated as full range")
	}
}
