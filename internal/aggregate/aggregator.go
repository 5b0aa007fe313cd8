package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"routedHook/internal/model"
	"routedHook/internal/storage"
)

// Aggregator folds settlement records into per-pool fee summaries.
type Aggregator struct {
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Add routes a record to its pool's accumulator.
func (a *Aggregator) Add(rec model.SettlementRecord) error {
	acc := a.accumulators[rec.PoolID]
	if acc == nil {
		acc = NewAccumulator(rec.PoolID)
		a.accumulators[rec.PoolID] = acc
	}
	return acc.Add(rec)
}

// PutSettlements lets the aggregator sit behind a storage.Fanout. Records
// that cannot be parsed are logged and skipped.
func (a *Aggregator) PutSettlements(_ context.Context, records []model.SettlementRecord) error {
	for _, rec := range records {
		if err := a.Add(rec); err != nil {
			a.logger.Warn("aggregate settlement", zap.Error(err), zap.String("pool", rec.PoolID), zap.Uint64("seq", rec.Seq))
		}
	}
	return nil
}

// Summaries returns one summary per pool, ordered by pool id.
func (a *Aggregator) Summaries(now time.Time) []model.PoolFeeSummary {
	ids := make([]string, 0, len(a.accumulators))
	for id := range a.accumulators {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.PoolFeeSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.accumulators[id].Summary(now))
	}
	return out
}

// Run reads settlement records as JSON lines and writes the resulting
// summaries to sink.
func (a *Aggregator) Run(ctx context.Context, in io.Reader, sink storage.SummarySink) ([]model.PoolFeeSummary, error) {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, failed int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var rec model.SettlementRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			failed++
			a.logger.Warn("decode settlement", zap.Error(err))
			continue
		}
		if err := a.Add(rec); err != nil {
			failed++
			a.logger.Warn("aggregate settlement", zap.Error(err), zap.String("pool", rec.PoolID))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	summaries := a.Summaries(time.Now())
	if sink != nil {
		if err := sink.PutSummaries(ctx, summaries); err != nil {
			return nil, fmt.Errorf("store summaries: %w", err)
		}
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("failed", failed),
		zap.Int("pools", len(summaries)),
	)
	return summaries, nil
}
