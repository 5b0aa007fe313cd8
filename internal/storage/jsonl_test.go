package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"routedHook/internal/model"
)

func readRecords(t *testing.T, path string) []model.SettlementRecord {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var out []model.SettlementRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.SettlementRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settlements.jsonl")
	sink := NewJsonlStorage(path)
	ctx := context.Background()

	if err := sink.PutSettlements(ctx, []model.SettlementRecord{{PoolID: "0x01", Seq: 1, TotalFee: "17"}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutSettlements(ctx, []model.SettlementRecord{{PoolID: "0x01", Seq: 2, Error: "throttled"}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := sink.PutSettlements(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	got := readRecords(t, path)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].TotalFee != "17" || !got[1].Failed() {
		t.Fatalf("unexpected records %+v", got)
	}
}

type failingSink struct{ calls int }

func (f *failingSink) PutSettlements(context.Context, []model.SettlementRecord) error {
	f.calls++
	return errors.New("db down")
}

func TestFanoutWritesEverySink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	failing := &failingSink{}
	fan := Fanout{failing, NewJsonlStorage(path), nil}

	err := fan.PutSettlements(context.Background(), []model.SettlementRecord{{PoolID: "0x02"}})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if failing.calls != 1 {
		t.Fatalf("failing sink called %d times", failing.calls)
	}
	if got := readRecords(t, path); len(got) != 1 {
		t.Fatalf("jsonl sink skipped after failure: %d records", len(got))
	}
}
