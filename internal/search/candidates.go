package search

import "github.com/safebuy/recallguard/internal/normalize"

// Candidate is one concrete combination of query terms to try against the
// store. Each field may be absent. Candidates live only for the duration of a
// single search request.
type Candidate struct {
	Product      normalize.Term
	Manufacturer normalize.Term
	Model        normalize.Term
}

// ComposeCandidates builds the ordered cross-product of the three variant
// lists. An empty list is replaced with a single absent placeholder so a
// missing field never wipes out the whole product. Iteration order is
// deterministic: product outermost, then manufacturer, then model, each list
// in its own order. Earlier candidates carry the higher-confidence variants
// and are tried first.
func ComposeCandidates(products, manufacturers, models []string) []Candidate {
	prodTerms := termsOrAbsent(products)
	manuTerms := termsOrAbsent(manufacturers)
	modelTerms := termsOrAbsent(models)

	out := make([]Candidate, 0, len(prodTerms)*len(manuTerms)*len(modelTerms))
	for _, p := range prodTerms {
		for _, m := range manuTerms {
			for _, mo := range modelTerms {
				out = append(out, Candidate{Product: p, Manufacturer: m, Model: mo})
			}
		}
	}
	return out
}

func termsOrAbsent(values []string) []normalize.Term {
	if len(values) == 0 {
		return []normalize.Term{{}}
	}
	out := make([]normalize.Term, len(values))
	for i, v := range values {
		out[i] = normalize.Some(v)
	}
	return out
}
