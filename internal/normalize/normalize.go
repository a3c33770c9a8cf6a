// Package normalize provides text normalization and weak-query detection for
// recall record matching. All functions are pure and total: any string input,
// including empty, yields a result without error.
package normalize

import (
	"regexp"
	"strings"
)

// Term is an optional normalized string. Valid is false when the source was
// empty, whitespace-only, or reduced to nothing by normalization. An invalid
// Term means "no information" and must never be matched against.
type Term struct {
	Value string
	Valid bool
}

// Some returns a valid Term holding v. An empty v yields an absent Term.
func Some(v string) Term {
	if v == "" {
		return Term{}
	}
	return Term{Value: v, Valid: true}
}

// None returns an absent Term.
func None() Term {
	return Term{}
}

var (
	// Isolated Korean jamo (consonant/vowel fragments, not composed syllables).
	jamoRe     = regexp.MustCompile(`[ㄱ-ㅎㅏ-ㅣ]`)
	jamoOnlyRe = regexp.MustCompile(`^[\sㄱ-ㅎㅏ-ㅣ]+$`)

	whitespaceRe = regexp.MustCompile(`\s+`)

	// Characters that carry meaning for weak-query detection: digits, Latin
	// letters, and composed Hangul syllables.
	significantRe = regexp.MustCompile(`[^0-9a-zA-Z가-힣]`)

	// Assorted middle dots and dash glyphs unified to an ASCII hyphen.
	dashRe = regexp.MustCompile(`[·•‐-‒–—―]`)

	// Everything a manufacturer name may keep: digits, lowercase Latin,
	// Hangul syllables, ampersand, hyphen, whitespace.
	manufacturerKeepRe = regexp.MustCompile(`[^0-9a-z가-힣&\-\s]`)

	// English organizational suffixes, matched as whole words, with an
	// optional trailing period.
	corpSuffixRe = regexp.MustCompile(`\b(inc|ltd|co|corp|corporation|company|limited|llc|plc|pte|gmbh|srl|bv|ag|kg|oy|sa|kk)\.?\b`)
)

// Korean organizational markers, both bare and bracketed forms.
var corpMarkerReplacer = strings.NewReplacer(
	"주식회사", " ",
	"유한회사", " ",
	"유한책임회사", " ",
	"합자회사", " ",
	"합명회사", " ",
	"(주)", " ",
	"㈜", " ",
	"(유)", " ",
	"(유한)", " ",
	"(합자)", " ",
	"(합명)", " ",
)

// Text lowercases and trims s, removes isolated jamo fragments, and collapses
// whitespace runs to single spaces. Returns an absent Term if nothing remains.
func Text(s string) Term {
	t := strings.ToLower(strings.TrimSpace(s))
	t = jamoRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
	return Some(t)
}

// Manufacturer normalizes a manufacturer name for comparison. On top of the
// plain text normalization it strips Korean and English organizational
// markers, unifies dash glyphs to a single ASCII hyphen, and drops every
// character except letters, digits, Hangul syllables, ampersand, hyphen, and
// space. Idempotent: applying it twice gives the same result.
func Manufacturer(s string) Term {
	t := strings.ToLower(strings.TrimSpace(s))
	t = corpMarkerReplacer.Replace(t)
	t = corpSuffixRe.ReplaceAllString(t, " ")
	t = dashRe.ReplaceAllString(t, "-")
	t = manufacturerKeepRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
	return Some(t)
}

// IsWeak reports whether s is too short or too low-information to search or
// score with. True when s is empty after trimming, consists only of jamo
// fragments and whitespace, or has fewer than 2 significant characters
// (digits, Latin letters, Hangul syllables) left after stripping.
func IsWeak(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	if jamoOnlyRe.MatchString(t) {
		return true
	}
	letters := significantRe.ReplaceAllString(t, "")
	return len([]rune(letters)) < 2
}

// IsWeakTerm reports whether t is absent or weak.
func IsWeakTerm(t Term) bool {
	return !t.Valid || IsWeak(t.Value)
}

// Strong normalizes s for the given field and demotes weak results to absent.
// This is the single gate every user- or AI-supplied string passes before it
// reaches the dictionary, the matcher, or the scorer.
func Strong(f Field, s string) Term {
	t := f.Normalize(s)
	if IsWeakTerm(t) {
		return None()
	}
	return t
}
