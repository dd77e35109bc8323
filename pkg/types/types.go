// Package types defines the shared types used across all InterviewAce packages.
//
// These types form the lingua franca between providers, the analysis pipeline,
// and the streaming gaze pipeline. They are intentionally minimal; each
// package defines its own domain types, but cross-cutting data structures live
// here to avoid circular imports.
package types

// Landmark is a single normalized facial landmark produced by the external
// face-landmark detector. Coordinates are relative to image width and height,
// so both X and Y lie in [0, 1] regardless of the source resolution.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Message represents a single message in an LLM conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// SpeechMetrics holds the deterministic per-answer speech analytics derived
// from a transcript and its recording duration. All fields are pure functions
// of their inputs; recomputing with the same transcript and duration always
// yields the same values.
type SpeechMetrics struct {
	// FillerWordCount is the summed occurrence count of the configured
	// filler-word list within the transcript.
	FillerWordCount int `json:"filler_words_count"`

	// WordsPerMinute is the speaking pace. Defined as 0 when the recording
	// duration is not positive.
	WordsPerMinute float64 `json:"wpm"`

	// ContentRelevanceScore is the percentage of expected keywords found in
	// the transcript, always in [0, 100].
	ContentRelevanceScore float64 `json:"content_relevance_score"`
}

// GenerativeFeedback holds the best-effort LLM coaching output for one
// answer. Each field independently degrades to a sentinel string when the
// generative backend is unconfigured or fails; neither field is ever empty.
type GenerativeFeedback struct {
	// QAAlignment critiques how well the answer addresses the question asked.
	QAAlignment string `json:"qa_alignment_feedback"`

	// Summary is a short abstractive summary of the answer.
	Summary string `json:"abstractive_summary"`
}

// AnalysisReport is the full per-answer analysis contract returned to the
// caller: the transcript, the deterministic metrics, the ordered coaching
// suggestions, the advisory keyword near-misses, and the generative feedback.
type AnalysisReport struct {
	Transcript string `json:"transcript"`

	SpeechMetrics

	// Suggestions always holds exactly three entries in fixed category order:
	// pace, filler words, content relevance.
	Suggestions []string `json:"suggestions"`

	// KeywordNearMisses lists expected keywords that were not found verbatim
	// but appear to have been mis-transcribed. Advisory only; never affects
	// ContentRelevanceScore.
	KeywordNearMisses []string `json:"keyword_near_misses"`

	GenerativeFeedback
}
