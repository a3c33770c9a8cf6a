package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/config"
	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/ingest"
	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/search"
	"github.com/safebuy/recallguard/internal/storage"
	"github.com/safebuy/recallguard/internal/variant"
)

func newTestServer(t *testing.T, ingester Ingester) *Server {
	t.Helper()
	store := storage.NewMemoryStore()
	err := store.UpsertRecords(context.Background(), []*models.RecallRecord{
		{
			RecallSN:          "R-2024-001",
			ProductName:       "유아용침대",
			Manufacturer:      "Sunnybury Baby Products",
			ModelName:         "MC676",
			DefectDescription: "낙상 위험",
			PublicationDate:   "2024-03-15",
			Category:          "육아",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	dict := dictionary.NewCache(store, logger)
	if err := dict.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	variants := variant.NewFilter(dict, nil, logger)
	engine := search.NewEngine(store, variants, logger)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(engine, ingester, store, dict, cfg, logger)
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch_Found(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := postJSON(t, srv.Router(), "/api/v1/search", map[string]string{
		"productName": "유아용침대",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Found || resp.RecallSN != "R-2024-001" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.RiskScore == 0 {
		t.Error("risk score missing")
	}
}

func TestHandleSearch_NoMatchIs404(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := postJSON(t, srv.Router(), "/api/v1/search", map[string]string{
		"productName": "존재하지 않는 제품",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Found {
		t.Error("no-match body must carry found=false")
	}
}

func TestHandleSearch_EmptyInputIs400(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := postJSON(t, srv.Router(), "/api/v1/search", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearch_BadBodyIs400(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearch_MultipartFields(t *testing.T) {
	srv := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("productName", "유아용침대"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

type stubIngester struct {
	res *ingest.Result
	err error
}

func (s *stubIngester) Run(ctx context.Context) (*ingest.Result, error) {
	return s.res, s.err
}

func TestHandleIngest(t *testing.T) {
	srv := newTestServer(t, &stubIngester{res: &ingest.Result{Pages: 2, Fetched: 150, Stored: 148, Skipped: 2}})
	rec := postJSON(t, srv.Router(), "/api/v1/ingest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["stored"] != 148 {
		t.Errorf("stored = %d, want 148", body["stored"])
	}
}

func TestHandleIngest_NotConfigured(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := postJSON(t, srv.Router(), "/api/v1/ingest", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}

func TestHandleIngest_FeedFailureIs502(t *testing.T) {
	srv := newTestServer(t, &stubIngester{err: errors.New("feed unreachable")})
	rec := postJSON(t, srv.Router(), "/api/v1/ingest", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Records    int            `json:"records"`
		Dictionary map[string]int `json:"dictionary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Records != 1 || body.Dictionary["products"] != 1 {
		t.Errorf("unexpected status body: %s", rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
