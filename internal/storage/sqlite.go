// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/safebuy/recallguard/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recall_records (
		recall_sn TEXT PRIMARY KEY,
		product_name TEXT,
		business_name TEXT,
		manufacturer TEXT,
		model_name TEXT,
		defect_description TEXT,
		publication_date TEXT,
		category TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recall_records_publication_date ON recall_records(publication_date);
	`
	_, err := db.Exec(schema)
	return err
}

const recordColumns = `recall_sn, product_name, business_name, manufacturer, model_name,
	 defect_description, publication_date, category, created_at, updated_at`

// Rows come back most recent publication first so that "first hit" is stable
// across queries.
const recordOrder = ` ORDER BY publication_date DESC, recall_sn`

func (s *SQLiteStore) queryRecords(ctx context.Context, where string, args ...interface{}) ([]*models.RecallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM recall_records WHERE `+where+recordOrder, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.RecallRecord
	for rows.Next() {
		var rec models.RecallRecord
		if err := rows.Scan(&rec.RecallSN, &rec.ProductName, &rec.BusinessName, &rec.Manufacturer,
			&rec.ModelName, &rec.DefectDescription, &rec.PublicationDate, &rec.Category,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// FindByProductContains returns records whose product name contains product,
// case-insensitively.
func (s *SQLiteStore) FindByProductContains(ctx context.Context, product string) ([]*models.RecallRecord, error) {
	return s.queryRecords(ctx, `instr(lower(product_name), lower(?)) > 0`, product)
}

// FindByManufacturerContains returns records whose manufacturer contains
// manufacturer, case-insensitively.
func (s *SQLiteStore) FindByManufacturerContains(ctx context.Context, manufacturer string) ([]*models.RecallRecord, error) {
	return s.queryRecords(ctx, `instr(lower(manufacturer), lower(?)) > 0`, manufacturer)
}

// FindByModelContains returns records whose model name contains model,
// case-insensitively.
func (s *SQLiteStore) FindByModelContains(ctx context.Context, model string) ([]*models.RecallRecord, error) {
	return s.queryRecords(ctx, `instr(lower(model_name), lower(?)) > 0`, model)
}

// FindByProductAndManufacturerContains returns records matching both fields.
func (s *SQLiteStore) FindByProductAndManufacturerContains(ctx context.Context, product, manufacturer string) ([]*models.RecallRecord, error) {
	return s.queryRecords(ctx,
		`instr(lower(product_name), lower(?)) > 0 AND instr(lower(manufacturer), lower(?)) > 0`,
		product, manufacturer)
}

// FindByProductAndManufacturerAndModelContains returns records matching all
// three fields.
func (s *SQLiteStore) FindByProductAndManufacturerAndModelContains(ctx context.Context, product, manufacturer, model string) ([]*models.RecallRecord, error) {
	return s.queryRecords(ctx,
		`instr(lower(product_name), lower(?)) > 0 AND instr(lower(manufacturer), lower(?)) > 0 AND instr(lower(model_name), lower(?)) > 0`,
		product, manufacturer, model)
}

// FindAll returns every record.
func (s *SQLiteStore) FindAll(ctx context.Context) ([]*models.RecallRecord, error) {
	return s.queryRecords(ctx, `1=1`)
}

// UpsertRecords inserts or replaces records in one transaction.
func (s *SQLiteStore) UpsertRecords(ctx context.Context, records []*models.RecallRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recall_records (recall_sn, product_name, business_name, manufacturer, model_name,
		  defect_description, publication_date, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(recall_sn) DO UPDATE SET
		  product_name = excluded.product_name,
		  business_name = excluded.business_name,
		  manufacturer = excluded.manufacturer,
		  model_name = excluded.model_name,
		  defect_description = excluded.defect_description,
		  publication_date = excluded.publication_date,
		  category = excluded.category,
		  updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, rec := range records {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx, rec.RecallSN, rec.ProductName, rec.BusinessName,
			rec.Manufacturer, rec.ModelName, rec.DefectDescription, rec.PublicationDate,
			rec.Category, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountRecords returns the total number of records.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recall_records`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
