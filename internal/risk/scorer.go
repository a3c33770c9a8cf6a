// Package risk scores how strongly a query resembles a recalled product.
// Scores are additive per matched field and clamped to 100; the level bands
// drive what the client ultimately shows.
package risk

import (
	"strings"

	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/normalize"
)

// Score bands. A score of zero means nothing matched at all.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
	LevelNone   = "none"
)

const defectWeight = 10

// Score computes the risk score of a record against the query terms that led
// to it. Absent terms contribute nothing. The model number is the strongest
// signal, then product name, then manufacturer; a recorded defect description
// adds a flat bonus since it means the recall is documented in detail.
func Score(product, manufacturer, model normalize.Term, rec *models.RecallRecord) int {
	score := 0
	if fieldMatches(model, normalize.FieldModel, rec.ModelName) {
		score += normalize.FieldModel.Weight()
	}
	if fieldMatches(product, normalize.FieldProduct, rec.ProductName) {
		score += normalize.FieldProduct.Weight()
	}
	if fieldMatches(manufacturer, normalize.FieldManufacturer, rec.Manufacturer) {
		score += normalize.FieldManufacturer.Weight()
	}
	if strings.TrimSpace(rec.DefectDescription) != "" {
		score += defectWeight
	}
	if score > 100 {
		score = 100
	}
	return score
}

// LevelFromScore maps a score to its band.
func LevelFromScore(score int) string {
	switch {
	case score >= 70:
		return LevelHigh
	case score >= 50:
		return LevelMedium
	case score >= 1:
		return LevelLow
	default:
		return LevelNone
	}
}

// fieldMatches reports whether the query term matches the record field.
// The record field containing the whole query counts; failing that, any query
// token of at least two characters contained in the record field counts.
// Everything is compared in normalized form.
func fieldMatches(query normalize.Term, field normalize.Field, recordValue string) bool {
	if !query.Valid {
		return false
	}
	recTerm := field.Normalize(recordValue)
	if !recTerm.Valid {
		return false
	}

	if strings.Contains(recTerm.Value, query.Value) {
		return true
	}
	for _, tok := range strings.Fields(query.Value) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if strings.Contains(recTerm.Value, tok) {
			return true
		}
	}
	return false
}
