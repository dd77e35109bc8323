// Package analysis computes deterministic speech metrics and coaching
// suggestions from an answer transcript, and serves the answer-analysis HTTP
// endpoint that ties transcoding, transcription, metrics, and generative
// feedback together.
package analysis

import (
	"strings"

	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/pkg/types"
)

// Calculator computes the deterministic speech metrics. The same transcript,
// duration, and tuning always produce identical output; nothing here consults
// a model or a remote service.
type Calculator struct {
	fillerWords      []string
	expectedKeywords []string
}

// NewCalculator builds a Calculator from the coach tuning.
func NewCalculator(cfg config.CoachConfig) *Calculator {
	return &Calculator{
		fillerWords:      cfg.FillerWords,
		expectedKeywords: cfg.ExpectedKeywords,
	}
}

// Metrics computes all speech metrics for a transcript. durationSeconds is the
// recording length as reported by the client; non-positive values yield a
// words-per-minute of zero rather than a division error.
func (c *Calculator) Metrics(transcript string, durationSeconds float64) types.SpeechMetrics {
	lower := strings.ToLower(transcript)

	return types.SpeechMetrics{
		FillerWordCount:       c.countFillers(lower),
		WordsPerMinute:        wordsPerMinute(transcript, durationSeconds),
		ContentRelevanceScore: c.relevanceScore(lower),
	}
}

// countFillers counts filler occurrences as substring matches on the lowered
// transcript. Multi-word fillers ("you know") match across a single space.
// Substring counting deliberately matches fillers embedded in longer words the
// same way the coaching rubric was originally calibrated.
func (c *Calculator) countFillers(lowerTranscript string) int {
	total := 0
	for _, w := range c.fillerWords {
		total += strings.Count(lowerTranscript, w)
	}
	return total
}

// relevanceScore is the percentage of expected keywords present in the
// transcript, in [0, 100]. Each keyword counts once regardless of how often
// it appears.
func (c *Calculator) relevanceScore(lowerTranscript string) float64 {
	if len(c.expectedKeywords) == 0 {
		return 0
	}
	found := 0
	for _, kw := range c.expectedKeywords {
		if strings.Contains(lowerTranscript, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(c.expectedKeywords)) * 100
}

// FoundKeywords reports which expected keywords appear in the transcript and
// which do not. Used by the near-miss check to limit phonetic matching to
// keywords the speaker did not already say.
func (c *Calculator) FoundKeywords(transcript string) (found, missing []string) {
	lower := strings.ToLower(transcript)
	for _, kw := range c.expectedKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return found, missing
}

// wordsPerMinute computes speaking pace from whitespace-separated tokens.
func wordsPerMinute(transcript string, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	words := len(strings.Fields(transcript))
	return float64(words) / durationSeconds * 60
}
