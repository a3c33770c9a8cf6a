package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/normalize"
	"github.com/safebuy/recallguard/internal/risk"
	"github.com/safebuy/recallguard/internal/storage"
	"github.com/safebuy/recallguard/internal/variant"
)

// ErrInvalidInput marks a request with no usable signal at all: every text
// field blank and no image. Distinct from a valid query that matches nothing.
var ErrInvalidInput = errors.New("search: no product name, manufacturer, model, or image provided")

// ImageExtractor pulls product fields out of a photograph. Optional; a nil
// extractor simply disables image input.
type ImageExtractor interface {
	ExtractFields(ctx context.Context, image []byte) (product, manufacturer, model string, err error)
}

// AlternativesFinder looks up replacement products for a recalled item.
// Optional and best-effort; failures never affect the search result.
type AlternativesFinder interface {
	Find(ctx context.Context, productName, category string) ([]models.AlternativeProduct, error)
}

// Engine runs the full search pipeline: normalize, expand variants, compose
// candidates, staged matching, full-scan fallback, then risk scoring.
type Engine struct {
	variants      *variant.Filter
	matcher       *StagedMatcher
	fallback      *FallbackScanner
	extractor     ImageExtractor
	alternatives  AlternativesFinder
	detailBaseURL string
	logger        *zap.Logger
}

// EngineOption customizes optional engine capabilities.
type EngineOption func(*Engine)

// WithImageExtractor enables photo-based queries.
func WithImageExtractor(ex ImageExtractor) EngineOption {
	return func(e *Engine) { e.extractor = ex }
}

// WithAlternatives enables replacement-product suggestions on found results.
func WithAlternatives(alt AlternativesFinder) EngineOption {
	return func(e *Engine) { e.alternatives = alt }
}

// WithDetailBaseURL sets the public detail-page prefix appended with the
// recall serial on found results.
func WithDetailBaseURL(base string) EngineOption {
	return func(e *Engine) { e.detailBaseURL = base }
}

// NewEngine wires an engine over the store and variant filter.
func NewEngine(store storage.Store, variants *variant.Filter, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		variants: variants,
		matcher:  NewStagedMatcher(store),
		fallback: NewFallbackScanner(store),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search resolves one query. It returns ErrInvalidInput when the request
// carries no signal, a store error when the record store fails, and otherwise
// a response; Found reports whether anything matched.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if !req.HasText() && len(req.Image) == 0 {
		return nil, ErrInvalidInput
	}

	product := req.ProductName
	manufacturer := req.Manufacturer
	model := req.ModelName
	if len(req.Image) > 0 && e.extractor != nil {
		// Image fields fill the gaps; typed fields always win.
		p, m, mo, err := e.extractor.ExtractFields(ctx, req.Image)
		if err != nil {
			e.logger.Warn("image extraction failed, continuing with text fields", zap.Error(err))
		} else {
			if product == "" {
				product = p
			}
			if manufacturer == "" {
				manufacturer = m
			}
			if model == "" {
				model = mo
			}
		}
	}

	origProduct := normalize.Strong(normalize.FieldProduct, product)
	origManufacturer := normalize.Strong(normalize.FieldManufacturer, manufacturer)
	origModel := normalize.Strong(normalize.FieldModel, model)

	if !origProduct.Valid && !origManufacturer.Valid && !origModel.Valid {
		return notFoundResponse(), nil
	}

	productVariants := e.expand(ctx, origProduct, product, normalize.FieldProduct)
	manufacturerVariants := e.expand(ctx, origManufacturer, manufacturer, normalize.FieldManufacturer)
	modelVariants := e.expand(ctx, origModel, model, normalize.FieldModel)

	candidates := ComposeCandidates(productVariants, manufacturerVariants, modelVariants)
	for _, cand := range candidates {
		rec, err := e.matcher.Match(ctx, cand)
		if err != nil {
			return nil, fmt.Errorf("staged search: %w", err)
		}
		if rec != nil {
			return e.found(ctx, rec, cand.Product, cand.Manufacturer, cand.Model, false), nil
		}
	}

	rec, err := e.fallback.Scan(ctx, origProduct, origManufacturer)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		// Fallback hits score against the original query with no model axis.
		return e.found(ctx, rec, origProduct, origManufacturer, normalize.None(), true), nil
	}

	return notFoundResponse(), nil
}

// expand returns the vetted variant list for one field, or nil when the field
// is absent. The raw (pre-normalization) text is what the generator sees.
func (e *Engine) expand(ctx context.Context, orig normalize.Term, raw string, field normalize.Field) []string {
	if !orig.Valid {
		return nil
	}
	return e.variants.Expand(ctx, raw, field)
}

func (e *Engine) found(ctx context.Context, rec *models.RecallRecord, product, manufacturer, model normalize.Term, partial bool) *models.SearchResponse {
	score := risk.Score(product, manufacturer, model, rec)
	resp := &models.SearchResponse{
		Found:             true,
		RecallSN:          rec.RecallSN,
		ProductName:       rec.ProductName,
		Manufacturer:      rec.Manufacturer,
		ModelName:         rec.ModelName,
		DefectDescription: rec.DefectDescription,
		PublicationDate:   rec.PublicationDate,
		RiskScore:         score,
		RiskLevel:         risk.LevelFromScore(score),
		PartialMatch:      partial,
		Message:           "리콜 대상 제품입니다. 사용을 중단하고 판매처에 문의하세요.",
	}
	if e.detailBaseURL != "" {
		resp.DetailURL = e.detailBaseURL + rec.RecallSN
	}
	if e.alternatives != nil {
		alts, err := e.alternatives.Find(ctx, rec.ProductName, rec.Category)
		if err != nil {
			e.logger.Warn("alternative lookup failed", zap.Error(err))
		} else {
			resp.Alternatives = alts
		}
	}
	return resp
}

func notFoundResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Found:   false,
		Message: "리콜 내역이 확인되지 않았습니다.",
	}
}
