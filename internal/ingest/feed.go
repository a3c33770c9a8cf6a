// Package ingest loads recall records into the store, either from the public
// recall feed (paged XML) or from spreadsheet files dropped into the import
// directory. After a successful load the dictionary is rebuilt so search sees
// the new data.
package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/category"
	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/storage"
)

const defaultPageSize = 100

// FeedIngester pulls the full recall feed page by page and upserts every
// usable row. Rows missing the fields the matcher depends on are skipped.
type FeedIngester struct {
	feedURL    string
	serviceKey string
	pageSize   int
	store      storage.Store
	dict       *dictionary.Cache
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFeedIngester(feedURL, serviceKey string, pageSize int, store storage.Store, dict *dictionary.Cache, timeout time.Duration, logger *zap.Logger) *FeedIngester {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FeedIngester{
		feedURL:    feedURL,
		serviceKey: serviceKey,
		pageSize:   pageSize,
		store:      store,
		dict:       dict,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Result summarizes one ingest run.
type Result struct {
	Fetched  int
	Stored   int
	Skipped  int
	Pages    int
	Duration time.Duration
}

// Run performs a full refresh: every page is fetched, parsed, and upserted,
// then the dictionary is rebuilt once at the end.
func (f *FeedIngester) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	page := 1
	for {
		rows, total, err := f.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("ingest page %d: %w", page, err)
		}
		res.Pages++
		res.Fetched += len(rows)

		records := make([]*models.RecallRecord, 0, len(rows))
		for _, row := range rows {
			rec, ok := row.toRecord()
			if !ok {
				res.Skipped++
				continue
			}
			records = append(records, rec)
		}
		if len(records) > 0 {
			if err := f.store.UpsertRecords(ctx, records); err != nil {
				return nil, fmt.Errorf("ingest page %d: %w", page, err)
			}
			res.Stored += len(records)
		}

		if res.Fetched >= total || len(rows) == 0 {
			break
		}
		page++

		// Courtesy pause between pages; aborts promptly on cancellation.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	if err := f.dict.Refresh(ctx); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	f.logger.Info("feed ingest complete",
		zap.Int("pages", res.Pages),
		zap.Int("fetched", res.Fetched),
		zap.Int("stored", res.Stored),
		zap.Int("skipped", res.Skipped),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// feedRow mirrors one content element of the feed XML.
type feedRow struct {
	RecallSN        string
	ProductName     string
	BusinessName    string
	Manufacturer    string
	ModelName       string
	PublicationDate string
	Defect          string
}

// toRecord validates and converts a row. Rows without a product name or
// without any of manufacturer and model are useless to the matcher.
func (r feedRow) toRecord() (*models.RecallRecord, bool) {
	product := strings.TrimSpace(r.ProductName)
	manufacturer := strings.TrimSpace(r.Manufacturer)
	if manufacturer == "" {
		manufacturer = strings.TrimSpace(r.BusinessName)
	}
	model := strings.TrimSpace(r.ModelName)
	if product == "" || (manufacturer == "" && model == "") {
		return nil, false
	}

	sn := strings.TrimSpace(r.RecallSN)
	if sn == "" {
		sn = "GEN-" + uuid.NewString()
	}
	return &models.RecallRecord{
		RecallSN:          sn,
		ProductName:       product,
		BusinessName:      strings.TrimSpace(r.BusinessName),
		Manufacturer:      manufacturer,
		ModelName:         model,
		DefectDescription: strings.TrimSpace(r.Defect),
		PublicationDate:   strings.TrimSpace(r.PublicationDate),
		Category:          category.Classify(product),
	}, true
}

func (f *FeedIngester) fetchPage(ctx context.Context, page int) ([]feedRow, int, error) {
	q := url.Values{}
	q.Set("serviceKey", f.serviceKey)
	q.Set("pageNo", strconv.Itoa(page))
	q.Set("numOfRows", strconv.Itoa(f.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("feed request: status %d", resp.StatusCode)
	}
	return parseFeed(resp.Body)
}

// parseFeed walks the XML token stream instead of unmarshaling a fixed
// document shape; the feed wraps rows differently across endpoints but the
// element names inside a row are stable.
func parseFeed(r io.Reader) ([]feedRow, int, error) {
	dec := xml.NewDecoder(r)

	var (
		rows    []feedRow
		current *feedRow
		total   int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("parse feed: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "content" || name == "item" {
				current = &feedRow{}
				continue
			}
			if current == nil {
				if name == "allCnt" || name == "totalCount" {
					var v string
					if err := dec.DecodeElement(&v, &t); err == nil {
						total, _ = strconv.Atoi(strings.TrimSpace(v))
					}
				}
				continue
			}
			var v string
			if err := dec.DecodeElement(&v, &t); err != nil {
				continue
			}
			v = strings.TrimSpace(v)
			switch name {
			case "recallSn", "recallNo":
				current.RecallSN = v
			case "productNm", "prdtNm":
				current.ProductName = v
			case "bsnmNm", "entrps":
				current.BusinessName = v
			case "makr", "mnfctur":
				current.Manufacturer = v
			case "modlNmInfo", "modlNm":
				current.ModelName = v
			case "recallPublictBgnde", "publictBgnde":
				current.PublicationDate = v
			case "shrtcomCn", "flawCn":
				current.Defect = v
			}
		case xml.EndElement:
			if (t.Name.Local == "content" || t.Name.Local == "item") && current != nil {
				rows = append(rows, *current)
				current = nil
			}
		}
	}
	if total == 0 {
		total = len(rows)
	}
	return rows, total, nil
}
