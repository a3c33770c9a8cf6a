package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/normalize"
	"github.com/safebuy/recallguard/internal/storage"
)

// FallbackScanner is the last resort when the staged ladder finds nothing for
// any candidate: one linear pass over the whole store, matching on normalized
// product-name or manufacturer containment. Model numbers are deliberately
// not matched here: a lone model substring over the full store produces too
// many false hits.
type FallbackScanner struct {
	store storage.Store
}

func NewFallbackScanner(store storage.Store) *FallbackScanner {
	return &FallbackScanner{store: store}
}

// Scan returns the first record whose normalized manufacturer contains the
// query manufacturer or whose normalized product name contains the query
// product name. Absent query terms constrain nothing on their axis.
func (f *FallbackScanner) Scan(ctx context.Context, product, manufacturer normalize.Term) (*models.RecallRecord, error) {
	if !present(product) && !present(manufacturer) {
		return nil, nil
	}

	records, err := f.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback scan: %w", err)
	}

	for _, rec := range records {
		if present(manufacturer) {
			if t := normalize.Manufacturer(rec.Manufacturer); t.Valid && strings.Contains(t.Value, manufacturer.Value) {
				return rec, nil
			}
		}
		if present(product) {
			if t := normalize.Text(rec.ProductName); t.Valid && strings.Contains(t.Value, product.Value) {
				return rec, nil
			}
		}
	}
	return nil, nil
}
