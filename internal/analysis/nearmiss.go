package analysis

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	nearMissPhoneticThreshold = 0.70
	nearMissFuzzyThreshold    = 0.85
)

// NearMissFinder detects expected keywords the speaker almost said: a spoken
// word or word pair that sounds like a missing keyword without matching it
// textually. The result is advisory only and never feeds into the relevance
// score.
//
// Matching runs in two stages for each candidate n-gram, the same way the
// transcript correction literature does it: Double Metaphone overlap filters
// phonetic candidates, then Jaro-Winkler similarity on the original strings
// decides acceptance. Without phonetic overlap a stricter pure-similarity
// threshold applies.
type NearMissFinder struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NearMissOption is a functional option for configuring a [NearMissFinder].
type NearMissOption func(*NearMissFinder)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched keyword to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) NearMissOption {
	return func(f *NearMissFinder) {
		f.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic overlap is found. Default: 0.85.
func WithFuzzyThreshold(threshold float64) NearMissOption {
	return func(f *NearMissFinder) {
		f.fuzzyThreshold = threshold
	}
}

// NewNearMissFinder returns a NearMissFinder with the supplied options.
func NewNearMissFinder(opts ...NearMissOption) *NearMissFinder {
	f := &NearMissFinder{
		phoneticThreshold: nearMissPhoneticThreshold,
		fuzzyThreshold:    nearMissFuzzyThreshold,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find returns the subset of missingKeywords that some unigram or bigram of
// the transcript is a phonetic near miss for, in the keywords' original
// order. Each keyword appears at most once.
func (f *NearMissFinder) Find(transcript string, missingKeywords []string) []string {
	if len(missingKeywords) == 0 {
		return nil
	}
	tokens := strings.Fields(strings.ToLower(transcript))
	if len(tokens) == 0 {
		return nil
	}

	grams := make([]string, 0, len(tokens)*2)
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}

	var hits []string
	for _, kw := range missingKeywords {
		for _, gram := range grams {
			if f.matches(gram, strings.ToLower(kw)) {
				hits = append(hits, kw)
				break
			}
		}
	}
	return hits
}

// matches reports whether gram is a near miss for keyword. Exact containment
// is excluded; that would mean the keyword was actually said and belongs to
// the relevance score instead.
func (f *NearMissFinder) matches(gram, keyword string) bool {
	if gram == keyword || strings.Contains(gram, keyword) {
		return false
	}

	gramCodes := metaphoneCodes(strings.Fields(gram))
	kwCodes := metaphoneCodes(strings.Fields(keyword))

	score := bestSimilarity(gram, keyword)
	if codesOverlap(gramCodes, kwCodes) {
		return score >= f.phoneticThreshold
	}
	return score >= f.fuzzyThreshold
}

// metaphoneCodes returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when the word is too short or contains
// no consonants) are excluded.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestSimilarity computes the highest Jaro-Winkler score between the gram
// and the keyword across full-string and space-stripped comparisons, which
// keeps multi-word keywords ("team player") comparable to bigrams.
func bestSimilarity(gram, keyword string) float64 {
	score := matchr.JaroWinkler(gram, keyword, false)
	if strings.ContainsRune(gram, ' ') || strings.ContainsRune(keyword, ' ') {
		g := strings.ReplaceAll(gram, " ", "")
		k := strings.ReplaceAll(keyword, " ", "")
		if s := matchr.JaroWinkler(g, k, false); s > score {
			score = s
		}
	}
	return score
}
