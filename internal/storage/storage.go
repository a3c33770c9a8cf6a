// Package storage defines the persistence interface for recall records.
//
// The store offers only case-insensitive substring-containment queries per
// field and a full enumeration. There is deliberately no full-text or fuzzy
// index; the search engine is built to get acceptable recall out of exactly
// this surface.
package storage

import (
	"context"

	"github.com/safebuy/recallguard/internal/models"
)

// Store defines recall record persistence operations. All FindBy* queries
// match case-insensitively on substring containment and return rows in the
// store's stable order (most recent publication first).
type Store interface {
	FindByProductContains(ctx context.Context, product string) ([]*models.RecallRecord, error)
	FindByManufacturerContains(ctx context.Context, manufacturer string) ([]*models.RecallRecord, error)
	FindByModelContains(ctx context.Context, model string) ([]*models.RecallRecord, error)
	FindByProductAndManufacturerContains(ctx context.Context, product, manufacturer string) ([]*models.RecallRecord, error)
	FindByProductAndManufacturerAndModelContains(ctx context.Context, product, manufacturer, model string) ([]*models.RecallRecord, error)

	// FindAll returns a consistent point-in-time view of every record,
	// sufficient for dictionary rebuilding and full-scan fallback.
	FindAll(ctx context.Context) ([]*models.RecallRecord, error)

	// UpsertRecords inserts or replaces records in one transaction.
	UpsertRecords(ctx context.Context, records []*models.RecallRecord) error

	CountRecords(ctx context.Context) (int64, error)

	Close() error
}
