package analysis

import (
	"fmt"

	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/pkg/types"
)

// Advisor turns speech metrics into coaching suggestions. The output is
// always exactly three entries in a fixed order: pace, fillers, relevance.
type Advisor struct {
	slowWPM        float64
	fastWPM        float64
	fillerLimit    int
	relevanceFloor float64
}

// NewAdvisor builds an Advisor from the coach tuning.
func NewAdvisor(cfg config.CoachConfig) *Advisor {
	return &Advisor{
		slowWPM:        cfg.SlowWPM,
		fastWPM:        cfg.FastWPM,
		fillerLimit:    cfg.FillerLimit,
		relevanceFloor: cfg.RelevanceFloor,
	}
}

// Suggest returns the three coaching suggestions for the given metrics.
func (a *Advisor) Suggest(m types.SpeechMetrics) []string {
	suggestions := make([]string, 0, 3)

	switch {
	case m.WordsPerMinute < a.slowWPM:
		suggestions = append(suggestions, "Consider speaking a bit faster to maintain engagement.")
	case m.WordsPerMinute > a.fastWPM:
		suggestions = append(suggestions, "Try to slow down your pace for clarity.")
	default:
		suggestions = append(suggestions, "Your speaking pace is good!")
	}

	if m.FillerWordCount > a.fillerLimit {
		suggestions = append(suggestions, fmt.Sprintf("You used %d filler words. Practice reducing 'um' and 'uh'.", m.FillerWordCount))
	} else {
		suggestions = append(suggestions, "Good job minimizing filler words!")
	}

	if m.ContentRelevanceScore < a.relevanceFloor {
		suggestions = append(suggestions, "Focus on incorporating more keywords relevant to the role and your experience.")
	} else {
		suggestions = append(suggestions, "Good job including relevant content!")
	}

	return suggestions
}
