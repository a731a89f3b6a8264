package fraud

import "errors"

var (
	ErrInvalidLevel    = errors.New("invalid fraud level")
	ErrInvalidDecision = errors.New("invalid fraud decision")
)

type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	default:
		return false
	}
}

func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.IsValid() {
		return "", ErrInvalidLevel
	}
	return l, nil
}

type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) IsValid() bool {
	switch d {
	case DecisionPending, DecisionApproved, DecisionRejected:
		return true
	default:
		return false
	}
}

// ParseVerdict accepts only the decisions a reviewer may submit.
func ParseVerdict(s string) (Decision, error) {
	d := Decision(s)
	if d != DecisionApproved && d != DecisionRejected {
		return "", ErrInvalidDecision
	}
	return d, nil
}

// Result is what a scorer returns for one (user, amount) pair.
type Result struct {
	Skipped bool     `json:"skipped"`
	Level   Level    `json:"level"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

func SkippedResult() Result {
	return Result{Skipped: true, Level: LevelLow, Reasons: []string{}}
}

func (r Result) NeedsReview() bool {
	return !r.Skipped && (r.Level == LevelMedium || r.Level == LevelHigh)
}

func (r Result) IsHigh() bool {
	return !r.Skipped && r.Level == LevelHigh
}
