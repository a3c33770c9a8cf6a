package search

import (
	"context"
	"fmt"

	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/normalize"
	"github.com/safebuy/recallguard/internal/storage"
)

// StagedMatcher runs the fixed query ladder for one candidate. Stages are
// gated by field presence, from most general to most specific while the
// product name is known, then the lone-field stages when it is not:
//
//  1. product only
//  2. product + manufacturer
//  3. product + manufacturer + model
//  4. manufacturer only (product absent)
//  5. model only (product and manufacturer absent)
//
// The first stage with at least one row wins; its first row is the hit.
// Store errors propagate; a store outage must never read as "no match".
type StagedMatcher struct {
	store storage.Store
}

func NewStagedMatcher(store storage.Store) *StagedMatcher {
	return &StagedMatcher{store: store}
}

func present(t normalize.Term) bool {
	return t.Valid && !normalize.IsWeakTerm(t)
}

// Match returns the first record the ladder finds for the candidate, or nil
// when every applicable stage comes back empty.
func (m *StagedMatcher) Match(ctx context.Context, cand Candidate) (*models.RecallRecord, error) {
	hasProduct := present(cand.Product)
	hasManufacturer := present(cand.Manufacturer)
	hasModel := present(cand.Model)

	if hasProduct {
		if rec, err := m.first(m.store.FindByProductContains(ctx, cand.Product.Value)); err != nil {
			return nil, fmt.Errorf("stage product: %w", err)
		} else if rec != nil {
			return rec, nil
		}

		if hasManufacturer {
			if rec, err := m.first(m.store.FindByProductAndManufacturerContains(ctx, cand.Product.Value, cand.Manufacturer.Value)); err != nil {
				return nil, fmt.Errorf("stage product+manufacturer: %w", err)
			} else if rec != nil {
				return rec, nil
			}

			if hasModel {
				if rec, err := m.first(m.store.FindByProductAndManufacturerAndModelContains(ctx, cand.Product.Value, cand.Manufacturer.Value, cand.Model.Value)); err != nil {
					return nil, fmt.Errorf("stage product+manufacturer+model: %w", err)
				} else if rec != nil {
					return rec, nil
				}
			}
		}
		return nil, nil
	}

	if hasManufacturer {
		if rec, err := m.first(m.store.FindByManufacturerContains(ctx, cand.Manufacturer.Value)); err != nil {
			return nil, fmt.Errorf("stage manufacturer: %w", err)
		} else if rec != nil {
			return rec, nil
		}
		return nil, nil
	}

	if hasModel {
		if rec, err := m.first(m.store.FindByModelContains(ctx, cand.Model.Value)); err != nil {
			return nil, fmt.Errorf("stage model: %w", err)
		} else if rec != nil {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *StagedMatcher) first(recs []*models.RecallRecord, err error) (*models.RecallRecord, error) {
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}
