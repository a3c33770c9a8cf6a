package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/imagetext"
	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/search"
	"github.com/safebuy/recallguard/pkg/utils"
)

// handleSearch accepts either a JSON body or a multipart form with an
// optional product photo under the "image" field.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request",
		zap.String("product", utils.Truncate(req.ProductName, 80)),
		zap.String("manufacturer", utils.Truncate(req.Manufacturer, 80)),
		zap.String("model", utils.Truncate(req.ModelName, 80)),
		zap.Int("image_bytes", len(req.Image)),
	)

	resp, err := s.engine.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, "provide a product name, manufacturer, model name, or image")
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "record store unavailable")
		return
	}
	if !resp.Found {
		s.respondJSON(w, http.StatusNotFound, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func decodeSearchRequest(r *http.Request) (*models.SearchRequest, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(imagetext.MaxImageBytes); err != nil {
			return nil, errors.New("invalid multipart form")
		}
		req := &models.SearchRequest{
			ProductName:  r.FormValue("productName"),
			Manufacturer: r.FormValue("manufacturer"),
			ModelName:    r.FormValue("modelName"),
		}
		if file, _, err := r.FormFile("image"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, imagetext.MaxImageBytes+1))
			if err != nil {
				return nil, errors.New("failed to read image")
			}
			if len(data) > imagetext.MaxImageBytes {
				return nil, errors.New("image too large")
			}
			req.Image = data
		}
		return req, nil
	}

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	return &req, nil
}

// handleIngest runs a full feed refresh synchronously and reports counts.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingester == nil {
		s.respondError(w, http.StatusNotImplemented, "feed ingest not configured")
		return
	}
	res, err := s.ingester.Run(r.Context())
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"pages":   res.Pages,
		"fetched": res.Fetched,
		"stored":  res.Stored,
		"skipped": res.Skipped,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountRecords(r.Context())
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	manu, prod, model := s.dict.Snapshot().Sizes()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": count,
		"dictionary": map[string]int{
			"manufacturers": manu,
			"products":      prod,
			"models":        model,
		},
		"config": map[string]interface{}{
			"database_path":   s.config.Storage.DatabasePath,
			"detail_base_url": s.config.Search.DetailBaseURL,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
