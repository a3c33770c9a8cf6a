package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/category"
	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/storage"
)

// SpreadsheetIngester imports recall records from .xlsx files. Columns are
// located by header name on the first row, so column order doesn't matter.
type SpreadsheetIngester struct {
	store  storage.Store
	dict   *dictionary.Cache
	logger *zap.Logger
}

func NewSpreadsheetIngester(store storage.Store, dict *dictionary.Cache, logger *zap.Logger) *SpreadsheetIngester {
	return &SpreadsheetIngester{store: store, dict: dict, logger: logger}
}

// header aliases, lowercased. Both Korean and English sheets are accepted.
var columnAliases = map[string][]string{
	"recall_sn":    {"리콜번호", "recall_sn", "recallsn", "id"},
	"product":      {"제품명", "상품명", "product", "product_name", "productname"},
	"business":     {"사업자명", "업체명", "business", "business_name"},
	"manufacturer": {"제조사", "제조업체", "manufacturer", "maker"},
	"model":        {"모델명", "모델", "model", "model_name", "modelname"},
	"defect":       {"결함내용", "결함", "defect", "defect_description"},
	"date":         {"공표일", "게시일", "date", "publication_date"},
}

// ImportFile loads one workbook's first sheet and upserts its rows, then
// rebuilds the dictionary.
func (s *SpreadsheetIngester) ImportFile(ctx context.Context, path string) (*Result, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return &Result{}, nil
	}

	cols := mapColumns(rows[0])
	if _, ok := cols["product"]; !ok {
		return nil, fmt.Errorf("workbook %s: no product-name column", path)
	}

	res := &Result{}
	records := make([]*models.RecallRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		res.Fetched++
		rec, ok := rowToRecord(row, cols)
		if !ok {
			res.Skipped++
			continue
		}
		records = append(records, rec)
	}
	if len(records) > 0 {
		if err := s.store.UpsertRecords(ctx, records); err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		res.Stored = len(records)
	}

	if err := s.dict.Refresh(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("spreadsheet imported",
		zap.String("path", path),
		zap.Int("stored", res.Stored),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func mapColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for key, aliases := range columnAliases {
			for _, alias := range aliases {
				if name == alias {
					cols[key] = i
				}
			}
		}
	}
	return cols
}

func cell(row []string, cols map[string]int, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func rowToRecord(row []string, cols map[string]int) (*models.RecallRecord, bool) {
	product := cell(row, cols, "product")
	manufacturer := cell(row, cols, "manufacturer")
	if manufacturer == "" {
		manufacturer = cell(row, cols, "business")
	}
	model := cell(row, cols, "model")
	if product == "" || (manufacturer == "" && model == "") {
		return nil, false
	}

	sn := cell(row, cols, "recall_sn")
	if sn == "" {
		sn = "GEN-" + uuid.NewString()
	}
	return &models.RecallRecord{
		RecallSN:          sn,
		ProductName:       product,
		BusinessName:      cell(row, cols, "business"),
		Manufacturer:      manufacturer,
		ModelName:         model,
		DefectDescription: cell(row, cols, "defect"),
		PublicationDate:   cell(row, cols, "date"),
		Category:          category.Classify(product),
	}, true
}
