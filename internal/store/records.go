// Package store keeps the record history and the user profile on top of a
// domain.KeyValueStore.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

// RecordsKey is the storage key of the whole daily record history.
const RecordsKey = "AllRecords"

// RecordStore is the append-only history of daily totals. Every append
// rewrites the whole history under RecordsKey.
type RecordStore struct {
	kv domain.KeyValueStore

	mu      sync.RWMutex
	records []domain.DailyRecord
	dirty   bool
}

// NewRecordStore creates an empty store. Call Load to read persisted history.
func NewRecordStore(kv domain.KeyValueStore) *RecordStore {
	return &RecordStore{kv: kv}
}

// Load replaces the in-memory history with the persisted one. A missing key
// is an empty history.
func (s *RecordStore) Load(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, RecordsKey)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	var records []domain.DailyRecord
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decode records: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.dirty = false
	return nil
}

// Append adds rec to the history and persists the full sequence. If the write
// fails the record is kept in memory, the store is marked dirty and a
// *domain.StorageError is returned. A record with a non-finite total is
// rejected and never enters the history.
func (s *RecordStore) Append(ctx context.Context, rec domain.DailyRecord) error {
	if !rec.Valid() {
		return domain.Rejectf("daily total %v cannot be recorded", rec.TotalCfpKg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return s.persistLocked(ctx)
}

// Flush retries persisting a history left dirty by a failed write.
func (s *RecordStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *RecordStore) persistLocked(ctx context.Context) error {
	records := s.records
	if records == nil {
		records = []domain.DailyRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.dirty = true
		return &domain.StorageError{Key: RecordsKey, Err: fmt.Errorf("encode records: %w", err)}
	}
	if err := s.kv.Set(ctx, RecordsKey, data); err != nil {
		s.dirty = true
		return &domain.StorageError{Key: RecordsKey, Err: err}
	}
	s.dirty = false
	return nil
}

// All returns a copy of the history in append order.
func (s *RecordStore) All() []domain.DailyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DailyRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// CumulativeCfpKg sums every recorded daily total.
func (s *RecordStore) CumulativeCfpKg() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, r := range s.records {
		total += r.TotalCfpKg
	}
	return total
}

// TreesEquivalent is CumulativeCfpKg divided by the yearly absorption of one tree.
func (s *RecordStore) TreesEquivalent() float64 {
	return domain.TreesEquivalent(s.CumulativeCfpKg())
}

// Dirty reports whether the in-memory history has unpersisted records.
func (s *RecordStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}
