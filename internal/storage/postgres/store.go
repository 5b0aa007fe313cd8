package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routedHook/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for hook state and replay output.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the store writes to. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates hooked pools and their hook records.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRow) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO hooked_pools (
				pool_id, currency0, currency1, fee, tick_spacing, external_pool, liquidity_token,
				retained_fee_bips, last_zero_for_one_block, last_one_for_zero_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				external_pool = EXCLUDED.external_pool,
				liquidity_token = EXCLUDED.liquidity_token,
				retained_fee_bips = EXCLUDED.retained_fee_bips,
				last_zero_for_one_block = GREATEST(hooked_pools.last_zero_for_one_block, EXCLUDED.last_zero_for_one_block),
				last_one_for_zero_block = GREATEST(hooked_pools.last_one_for_zero_block, EXCLUDED.last_one_for_zero_block),
				updated_at = now()
		`,
			p.PoolID,
			p.Currency0,
			p.Currency1,
			int64(p.Fee),
			p.TickSpacing,
			p.ExternalPool,
			p.LiquidityToken,
			int64(p.RetainedFeeBips),
			int64(p.LastZeroForOneBlock),
			int64(p.LastOneForZeroBlock),
		)
	}
	return s.sendBatch(ctx, batch)
}

// InsertSettlements stores settlement records. Records already present for
// the same pool, block and sequence number are left untouched, so replays
// can be resumed without duplicates.
func (s *Store) InsertSettlements(ctx context.Context, records []model.SettlementRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		recordedAt, err := time.Parse(time.RFC3339Nano, r.RecordedAt)
		if err != nil {
			recordedAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO settlements (
				pool_id, block_number, seq, sender, zero_for_one, exact_input, amount_specified,
				amount0, amount1, strategy, external_pool, reserve0, reserve1, fee_asset,
				total_fee, retained_fee, donated_fee, error, recorded_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			ON CONFLICT (pool_id, block_number, seq) DO NOTHING
		`,
			r.PoolID,
			int64(r.BlockNumber),
			int64(r.Seq),
			r.Sender,
			r.ZeroForOne,
			r.ExactInput,
			numeric(r.AmountSpecified),
			numeric(r.Amount0),
			numeric(r.Amount1),
			r.Strategy,
			r.ExternalPool,
			nullableNumeric(r.Reserve0),
			nullableNumeric(r.Reserve1),
			r.FeeAsset,
			numeric(r.TotalFee),
			numeric(r.RetainedFee),
			numeric(r.DonatedFee),
			r.Error,
			recordedAt,
		)
	}
	return s.sendBatch(ctx, batch)
}

// PutSettlements lets the store act as a replay sink.
func (s *Store) PutSettlements(ctx context.Context, records []model.SettlementRecord) error {
	return s.InsertSettlements(ctx, records)
}

// UpsertFeeSummaries inserts or replaces per-pool fee summaries.
func (s *Store) UpsertFeeSummaries(ctx context.Context, summaries []model.PoolFeeSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range summaries {
		batch.Queue(`
			INSERT INTO pool_fee_summaries (
				pool_id, first_block, last_block, swap_count, failed_count, volume0, volume1,
				total_fee0, total_fee1, retained_fee0, retained_fee1, donated_fee0, donated_fee1,
				computed_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				first_block = EXCLUDED.first_block,
				last_block = EXCLUDED.last_block,
				swap_count = EXCLUDED.swap_count,
				failed_count = EXCLUDED.failed_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				total_fee0 = EXCLUDED.total_fee0,
				total_fee1 = EXCLUDED.total_fee1,
				retained_fee0 = EXCLUDED.retained_fee0,
				retained_fee1 = EXCLUDED.retained_fee1,
				donated_fee0 = EXCLUDED.donated_fee0,
				donated_fee1 = EXCLUDED.donated_fee1,
				computed_at = EXCLUDED.computed_at,
				updated_at = now()
		`,
			m.PoolID,
			int64(m.FirstBlock),
			int64(m.LastBlock),
			int64(m.SwapCount),
			int64(m.FailedCount),
			numeric(m.Volume0),
			numeric(m.Volume1),
			numeric(m.TotalFee0),
			numeric(m.TotalFee1),
			numeric(m.RetainedFee0),
			numeric(m.RetainedFee1),
			numeric(m.DonatedFee0),
			numeric(m.DonatedFee1),
			m.ComputedAt,
		)
	}
	return s.sendBatch(ctx, batch)
}

// PutSummaries lets the store act as a summary sink.
func (s *Store) PutSummaries(ctx context.Context, summaries []model.PoolFeeSummary) error {
	return s.UpsertFeeSummaries(ctx, summaries)
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func numeric(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func nullableNumeric(v string) any {
	if v == "" {
		return nil
	}
	return v
}
