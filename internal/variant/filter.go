package variant

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/normalize"
)

// maxVariants caps how many expanded terms one field may contribute.
const maxVariants = 10

// placeholder strings models emit when they have nothing useful to say.
// Compared after normalization, so casing and extra spaces don't matter.
var stopValues = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, v := range []string{
		"정보 없음", "정보없음", "없음", "모름",
		"n/a", "na", "unknown", "not available",
		"정보 확인 불가", "해당 없음", "해당없음",
	} {
		m[v] = struct{}{}
	}
	return m
}()

// Filter expands a query term into vetted variants. The pipeline is:
// generate, clean, dedupe, cap, then keep only variants the dictionary
// considers plausible. Generator failures degrade to the original term alone;
// expansion must never make a search fail.
type Filter struct {
	dict   *dictionary.Cache
	gen    Generator
	cache  *ttlCache
	logger *zap.Logger
}

// NewFilter wires a filter. gen may be nil, in which case Expand returns just
// the original term (vetting still applies).
func NewFilter(dict *dictionary.Cache, gen Generator, logger *zap.Logger) *Filter {
	return &Filter{
		dict:   dict,
		gen:    gen,
		cache:  newTTLCache(defaultTTL, defaultMaxEntries),
		logger: logger,
	}
}

// Expand returns the dictionary-vetted variants of original for the field.
// A weak original yields nil. The result may be empty when no variant,
// including the original, is plausible per the dictionary.
func (f *Filter) Expand(ctx context.Context, original string, field normalize.Field) []string {
	t := normalize.Strong(field, original)
	if !t.Valid {
		return nil
	}

	key := field.String() + "|" + t.Value
	if cached, ok := f.cache.get(key); ok {
		return cached
	}

	raw := f.generate(ctx, original, field)
	cleaned := f.clean(raw, field)
	vetted := f.dict.FilterCandidates(cleaned, field, maxVariants)

	f.cache.set(key, vetted)
	f.logger.Debug("variants expanded",
		zap.String("field", field.String()),
		zap.String("original", original),
		zap.Int("generated", len(raw)),
		zap.Int("vetted", len(vetted)),
	)
	return vetted
}

// ExpandRaw returns cleaned variants without the dictionary gate. Used where
// the caller scans the full store and the dictionary would be too strict.
func (f *Filter) ExpandRaw(ctx context.Context, original string, field normalize.Field) []string {
	t := normalize.Strong(field, original)
	if !t.Valid {
		return nil
	}

	key := "RAW|" + field.String() + "|" + t.Value
	if cached, ok := f.cache.get(key); ok {
		return cached
	}

	cleaned := f.clean(f.generate(ctx, original, field), field)
	if len(cleaned) > maxVariants {
		cleaned = cleaned[:maxVariants]
	}
	f.cache.set(key, cleaned)
	return cleaned
}

func (f *Filter) generate(ctx context.Context, original string, field normalize.Field) []string {
	if f.gen == nil {
		return []string{original}
	}
	raw, err := f.gen.Generate(ctx, original, field)
	if err != nil {
		f.logger.Warn("variant generation failed, using original only",
			zap.String("field", field.String()),
			zap.String("original", original),
			zap.Error(err),
		)
		return []string{original}
	}
	return raw
}

// clean normalizes each raw variant, drops blanks, weak terms, and model
// placeholder answers, and dedupes while preserving order.
func (f *Filter) clean(raw []string, field normalize.Field) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		t := normalize.Strong(field, v)
		if !t.Valid {
			continue
		}
		if _, stop := stopValues[t.Value]; stop {
			continue
		}
		if _, dup := seen[t.Value]; dup {
			continue
		}
		seen[t.Value] = struct{}{}
		out = append(out, t.Value)
	}
	return out
}

// CacheStats reports the current entry count and TTL, for status endpoints.
func (f *Filter) CacheStats() (int, time.Duration) {
	return f.cache.len(), f.cache.ttl
}
