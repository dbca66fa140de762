// Package skill contains the per-(student, subtopic) skill model: a rolling
// performance estimate used to pick the next item difficulty. The update
// rules are pure functions over Record; persistence and event emission live
// in the application layer.
package skill

import "time"

// Value bounds for skill records. Every update clamps back into these ranges.
const (
	MinAccuracy   = 0.0
	MaxAccuracy   = 100.0
	MinDifficulty = 1.0
	MaxDifficulty = 5.0
	MinConfidence = 1
	MaxConfidence = 3
)

// Defaults for a record created lazily on first interaction with a subtopic.
const (
	DefaultAccuracy   = 50.0
	DefaultDifficulty = 2.5
	DefaultConfidence = 2
)

// Tuning constants for the answer-level update rule. The accuracy estimate is
// an exponential rolling average; the difficulty shift is asymmetric so that
// a wrong answer on an easy item drops difficulty much faster than a correct
// answer raises it.
const (
	accuracyAlpha          = 0.2
	correctShiftBase       = 0.15
	incorrectShiftBase     = -0.4
	difficultyGapFactor    = 0.05
	sessionLearningRate    = 0.4
	sessionHighThreshold   = 85.0
	sessionLowThreshold    = 60.0
	sessionDifficultyNudge = 0.5
)

// Session composite weights: the exit ticket dominates over practice accuracy.
const (
	exitTicketWeight = 0.7
	practiceWeight   = 0.3
)

// Record is the rolling performance estimate for one (student, subtopic).
type Record struct {
	// Accuracy is the rolling accuracy estimate, 0-100.
	Accuracy float64 `json:"accuracy"`

	// Difficulty is the recommended next-item difficulty, 1.0-5.0.
	Difficulty float64 `json:"difficulty"`

	// Confidence is the last self-reported confidence, 1-3.
	Confidence int `json:"confidence"`

	// LastUpdated is when the record was last mutated.
	LastUpdated time.Time `json:"lastUpdated"`
}

// Default returns the record used when a subtopic is seen for the first time.
func Default() Record {
	return Record{
		Accuracy:   DefaultAccuracy,
		Difficulty: DefaultDifficulty,
		Confidence: DefaultConfidence,
	}
}

// AnswerInput describes one graded answer.
type AnswerInput struct {
	// IsCorrect is whether the answer was correct.
	IsCorrect bool

	// QuestionDifficulty is the difficulty of the answered item, 1.0-5.0.
	QuestionDifficulty float64

	// Confidence is the self-reported confidence (1-3), 0 when not reported.
	Confidence int
}

// ApplyAnswer folds one graded answer into the record and returns the updated
// record together with the accuracy delta. The receiver is not mutated.
func (r Record) ApplyAnswer(in AnswerInput, now time.Time) (Record, float64) {
	observed := 0.0
	if in.IsCorrect {
		observed = MaxAccuracy
	}

	updated := r
	updated.Accuracy = clamp(r.Accuracy*(1-accuracyAlpha)+observed*accuracyAlpha, MinAccuracy, MaxAccuracy)

	shift := incorrectShiftBase
	if in.IsCorrect {
		shift = correctShiftBase
	}
	shift += (in.QuestionDifficulty - r.Difficulty) * difficultyGapFactor
	updated.Difficulty = clamp(r.Difficulty+shift, MinDifficulty, MaxDifficulty)

	if in.Confidence >= MinConfidence && in.Confidence <= MaxConfidence {
		updated.Confidence = in.Confidence
	}
	updated.LastUpdated = now

	return updated, updated.Accuracy - r.Accuracy
}

// SessionOutcome summarizes a completed tutoring session for one subtopic.
type SessionOutcome struct {
	// ExitTicketScore is the exit-ticket score, 0-100.
	ExitTicketScore float64

	// PracticeAccuracy is the fraction of correct practice answers
	// during the session, 0-100.
	PracticeAccuracy float64
}

// Composite returns the session-level composite score.
func (o SessionOutcome) Composite() float64 {
	return o.ExitTicketScore*exitTicketWeight + o.PracticeAccuracy*practiceWeight
}

// ApplySession blends a session composite score into the record. The blend is
// more aggressive than the per-answer rule because a session is a stronger
// signal than a single answer. Difficulty is nudged one step when the
// composite clears the high threshold or misses the low one.
func (r Record) ApplySession(outcome SessionOutcome, now time.Time) (Record, float64) {
	composite := clamp(outcome.Composite(), MinAccuracy, MaxAccuracy)

	updated := r
	updated.Accuracy = clamp(r.Accuracy*(1-sessionLearningRate)+composite*sessionLearningRate, MinAccuracy, MaxAccuracy)

	switch {
	case composite >= sessionHighThreshold:
		updated.Difficulty = clamp(r.Difficulty+sessionDifficultyNudge, MinDifficulty, MaxDifficulty)
	case composite < sessionLowThreshold:
		updated.Difficulty = clamp(r.Difficulty-sessionDifficultyNudge, MinDifficulty, MaxDifficulty)
	}

	updated.LastUpdated = now
	return updated, updated.Accuracy - r.Accuracy
}

// Normalize clamps a record back into its documented ranges. Used after
// loading persisted data so a corrupted or out-of-range record degrades
// gracefully instead of propagating.
func (r Record) Normalize() Record {
	r.Accuracy = clamp(r.Accuracy, MinAccuracy, MaxAccuracy)
	r.Difficulty = clamp(r.Difficulty, MinDifficulty, MaxDifficulty)
	if r.Confidence < MinConfidence || r.Confidence > MaxConfidence {
		r.Confidence = DefaultConfidence
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
