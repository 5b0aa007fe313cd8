package storage

import (
	"context"
	"errors"

	"routedHook/internal/model"
)

// Sink receives settlement records produced by a replay.
type Sink interface {
	PutSettlements(ctx context.Context, records []model.SettlementRecord) error
}

// SummarySink receives per-pool fee summaries.
type SummarySink interface {
	PutSummaries(ctx context.Context, summaries []model.PoolFeeSummary) error
}

// Fanout writes every batch to each sink in order and joins their errors.
type Fanout []Sink

func (f Fanout) PutSettlements(ctx context.Context, records []model.SettlementRecord) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.PutSettlements(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
