package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/safebuy/recallguard/internal/models"
)

// MemoryStore is an in-memory Store used in tests and for ephemeral setups
// without a database path. Query semantics match the SQLite implementation:
// case-insensitive substring containment, rows ordered by publication date
// descending then recall serial.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.RecallRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.RecallRecord)}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *MemoryStore) find(match func(*models.RecallRecord) bool) []*models.RecallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.RecallRecord
	for _, rec := range s.records {
		if match(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublicationDate != out[j].PublicationDate {
			return out[i].PublicationDate > out[j].PublicationDate
		}
		return out[i].RecallSN < out[j].RecallSN
	})
	return out
}

func (s *MemoryStore) FindByProductContains(ctx context.Context, product string) ([]*models.RecallRecord, error) {
	return s.find(func(r *models.RecallRecord) bool {
		return containsFold(r.ProductName, product)
	}), ctx.Err()
}

func (s *MemoryStore) FindByManufacturerContains(ctx context.Context, manufacturer string) ([]*models.RecallRecord, error) {
	return s.find(func(r *models.RecallRecord) bool {
		return containsFold(r.Manufacturer, manufacturer)
	}), ctx.Err()
}

func (s *MemoryStore) FindByModelContains(ctx context.Context, model string) ([]*models.RecallRecord, error) {
	return s.find(func(r *models.RecallRecord) bool {
		return containsFold(r.ModelName, model)
	}), ctx.Err()
}

func (s *MemoryStore) FindByProductAndManufacturerContains(ctx context.Context, product, manufacturer string) ([]*models.RecallRecord, error) {
	return s.find(func(r *models.RecallRecord) bool {
		return containsFold(r.ProductName, product) && containsFold(r.Manufacturer, manufacturer)
	}), ctx.Err()
}

func (s *MemoryStore) FindByProductAndManufacturerAndModelContains(ctx context.Context, product, manufacturer, model string) ([]*models.RecallRecord, error) {
	return s.find(func(r *models.RecallRecord) bool {
		return containsFold(r.ProductName, product) &&
			containsFold(r.Manufacturer, manufacturer) &&
			containsFold(r.ModelName, model)
	}), ctx.Err()
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]*models.RecallRecord, error) {
	return s.find(func(*models.RecallRecord) bool { return true }), ctx.Err()
}

func (s *MemoryStore) UpsertRecords(ctx context.Context, records []*models.RecallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, rec := range records {
		cp := *rec
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		cp.UpdatedAt = now
		s.records[cp.RecallSN] = &cp
	}
	return ctx.Err()
}

func (s *MemoryStore) CountRecords(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
