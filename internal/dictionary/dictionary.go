// Package dictionary maintains an immutable snapshot of every normalized
// manufacturer, product, and model name known to the record store. The
// snapshot vets externally proposed query variants: a variant that matches
// nothing in the dictionary is almost certainly hallucinated and gets dropped
// before it can pollute the search.
package dictionary

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/normalize"
	"github.com/safebuy/recallguard/internal/storage"
)

// Snapshot holds the three normalized term sets. Snapshots are never mutated
// after construction; readers always operate on one self-consistent snapshot
// for the duration of a call.
type Snapshot struct {
	manufacturers map[string]struct{}
	products      map[string]struct{}
	models        map[string]struct{}
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		manufacturers: map[string]struct{}{},
		products:      map[string]struct{}{},
		models:        map[string]struct{}{},
	}
}

func (s *Snapshot) set(field normalize.Field) map[string]struct{} {
	switch field {
	case normalize.FieldManufacturer:
		return s.manufacturers
	case normalize.FieldModel:
		return s.models
	default:
		return s.products
	}
}

// Sizes returns the number of entries per set (manufacturers, products, models).
func (s *Snapshot) Sizes() (int, int, int) {
	return len(s.manufacturers), len(s.products), len(s.models)
}

// Cache exposes the current dictionary snapshot. Reads never block and never
// observe a half-built dictionary: Refresh builds a complete new snapshot off
// to the side and swaps the pointer atomically.
type Cache struct {
	store  storage.Store
	logger *zap.Logger
	snap   atomic.Pointer[Snapshot]
}

// NewCache creates a dictionary cache starting from an empty snapshot.
// Call Refresh after the store is populated.
func NewCache(store storage.Store, logger *zap.Logger) *Cache {
	c := &Cache{store: store, logger: logger}
	c.snap.Store(emptySnapshot())
	return c
}

// Refresh rebuilds the dictionary from a full store scan and atomically
// replaces the live snapshot. Rebuilds are always full, never incremental.
func (c *Cache) Refresh(ctx context.Context) error {
	start := time.Now()

	records, err := c.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("dictionary refresh: %w", err)
	}

	next := emptySnapshot()
	for _, rec := range records {
		if t := normalize.Strong(normalize.FieldManufacturer, rec.Manufacturer); t.Valid {
			next.manufacturers[t.Value] = struct{}{}
		}
		if t := normalize.Strong(normalize.FieldProduct, rec.ProductName); t.Valid {
			next.products[t.Value] = struct{}{}
		}
		if t := normalize.Strong(normalize.FieldModel, rec.ModelName); t.Valid {
			next.models[t.Value] = struct{}{}
		}
	}

	c.snap.Store(next)

	manu, prod, model := next.Sizes()
	c.logger.Info("dictionary refreshed",
		zap.Int("records", len(records)),
		zap.Int("manufacturers", manu),
		zap.Int("products", prod),
		zap.Int("models", model),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Snapshot returns the current snapshot. The caller may use it for any number
// of lookups; it will stay internally consistent even if a refresh happens
// concurrently.
func (c *Cache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// FilterCandidates normalizes and dedupes the candidates for the given field,
// drops weak ones, and keeps only those plausible per the dictionary. Exact
// set membership is tried first; only when no candidate matches exactly does
// the fuzzy tier (dictionary entry containing the candidate as a substring)
// run. Input order is preserved and the result is capped at limit. An empty
// result means no candidate is trusted for this field.
func (c *Cache) FilterCandidates(candidates []string, field normalize.Field, limit int) []string {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}

	normalized := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		t := normalize.Strong(field, cand)
		if !t.Valid {
			continue
		}
		if _, dup := seen[t.Value]; dup {
			continue
		}
		seen[t.Value] = struct{}{}
		normalized = append(normalized, t.Value)
	}
	if len(normalized) == 0 {
		return nil
	}

	snap := c.Snapshot()

	exact := make([]string, 0, len(normalized))
	for _, v := range normalized {
		if snap.containsExact(field, v) {
			exact = append(exact, v)
			if len(exact) == limit {
				break
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}

	fuzzy := make([]string, 0, len(normalized))
	for _, v := range normalized {
		if snap.containsFuzzy(field, v) {
			fuzzy = append(fuzzy, v)
			if len(fuzzy) == limit {
				break
			}
		}
	}
	return fuzzy
}

// MightExist reports whether a single term is plausible for the field, using
// the same exact-then-fuzzy decision as FilterCandidates.
func (c *Cache) MightExist(term string, field normalize.Field) bool {
	t := normalize.Strong(field, term)
	if !t.Valid {
		return false
	}
	snap := c.Snapshot()
	return snap.containsExact(field, t.Value) || snap.containsFuzzy(field, t.Value)
}

func (s *Snapshot) containsExact(field normalize.Field, v string) bool {
	_, ok := s.set(field)[v]
	return ok
}

func (s *Snapshot) containsFuzzy(field normalize.Field, v string) bool {
	for entry := range s.set(field) {
		if strings.Contains(entry, v) {
			return true
		}
	}
	return false
}
