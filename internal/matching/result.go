package matching

import (
	"fmt"
	"strings"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidences: high > medium > low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Breakdown holds the four sub-scores, each in [0,100].
type Breakdown struct {
	RuleBased     int `json:"ruleBased"`
	Semantic      int `json:"semantic"`
	Behavioral    int `json:"behavioral"`
	Compatibility int `json:"compatibility"`
}

// Result is the scorer output for one pair.
type Result struct {
	Score      int        `json:"score"`
	Breakdown  Breakdown  `json:"breakdown"`
	Reasons    []string   `json:"reasons"`
	Confidence Confidence `json:"confidence"`
}

// Recommendation turns the score and confidence into a sentence for the UI.
// The "good potential" tier is reserved for medium confidence, so a high
// confidence match at 51..70 reads as moderate.
func (r Result) Recommendation() string {
	switch {
	case r.Confidence == ConfidenceHigh && r.Score > 70:
		return "Highly recommended match! Strong compatibility across all dimensions."
	case r.Confidence == ConfidenceMedium && r.Score > 50:
		return "Good potential match. Consider reaching out for networking."
	case r.Score > 30:
		return "Moderate match. May be worth exploring common interests."
	default:
		return "Low compatibility. Consider other matches first."
	}
}

// Status is the lifecycle state of a persisted match.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// ParseStatus accepts "pending", "accepted" and "declined" (plus the
// "accept"/"decline"/"reject"/"rejected" spellings used by older clients).
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "pending":
		return StatusPending, nil
	case "accepted", "accept":
		return StatusAccepted, nil
	case "declined", "decline", "rejected", "reject":
		return StatusDeclined, nil
	default:
		return "", fmt.Errorf("unknown match status %q: %w", v, svcErr.ErrInvalidInput)
	}
}

// Transition validates from → to. Only pending → accepted|declined is allowed.
func Transition(from, to Status) error {
	if from == StatusPending && to.Terminal() {
		return nil
	}
	return fmt.Errorf("%s -> %s: %w", from, to, svcErr.ErrInvalidStateTransition)
}
