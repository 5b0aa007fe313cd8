package hook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

// PoolRecord is the hook's per-pool state.
type PoolRecord struct {
	LastZeroForOneBlock uint64
	LastOneForZeroBlock uint64
	LiquidityToken      common.Address
	RetainedFeeBips     uint32
}

// Registered reports whether the pool went through AfterInitialize.
func (r *PoolRecord) Registered() bool {
	return r.LiquidityToken != (common.Address{})
}

// CheckAndMark fails if the direction already swapped at block, otherwise
// records block for that direction. Heights start at 1: a zero marker means
// the direction never swapped, so a ledger reporting height 0 is throttled
// on its first swap.
func (r *PoolRecord) CheckAndMark(zeroForOne bool, block uint64) error {
	last := &r.LastOneForZeroBlock
	if zeroForOne {
		last = &r.LastZeroForOneBlock
	}
	if *last == block {
		return fmt.Errorf("%w: zeroForOne=%t block %d", ErrThrottled, zeroForOne, block)
	}
	*last = block
	return nil
}

// PoolStore keys records by pool id. Records are created on first access and
// never removed.
type PoolStore struct {
	records map[model.PoolID]*PoolRecord
}

func NewPoolStore() *PoolStore {
	return &PoolStore{records: make(map[model.PoolID]*PoolRecord)}
}

func (s *PoolStore) Get(id model.PoolID) *PoolRecord {
	rec, ok := s.records[id]
	if !ok {
		rec = &PoolRecord{}
		s.records[id] = rec
	}
	return rec
}

// Lookup returns a copy of the record without creating one.
func (s *PoolStore) Lookup(id model.PoolID) (PoolRecord, bool) {
	rec, ok := s.records[id]
	if !ok {
		return PoolRecord{}, false
	}
	return *rec, true
}

// Rows exports every record for persistence.
func (s *PoolStore) Rows() map[model.PoolID]PoolRecord {
	out := make(map[model.PoolID]PoolRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = *rec
	}
	return out
}

// Load replaces a record, used when resuming from persisted state.
func (s *PoolStore) Load(id model.PoolID, rec PoolRecord) {
	cp := rec
	s.records[id] = &cp
}

func (s *PoolStore) snapshot() map[model.PoolID]PoolRecord {
	return s.Rows()
}

// restore writes values back into existing records so pointers held by an
// in-flight caller stay live.
func (s *PoolStore) restore(snap map[model.PoolID]PoolRecord) {
	for id, rec := range s.records {
		old, ok := snap[id]
		if !ok {
			delete(s.records, id)
			continue
		}
		*rec = old
	}
	for id, old := range snap {
		if _, ok := s.records[id]; !ok {
			cp := old
			s.records[id] = &cp
		}
	}
}
