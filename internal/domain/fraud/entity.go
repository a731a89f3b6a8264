package fraud

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAlreadyDecided = errors.New("assessment already decided")

// Assessment is the review record attached one-to-one to a booking.
type Assessment struct {
	bookingID  uuid.UUID
	userID     uuid.UUID
	score      float64
	level      Level
	decision   Decision
	reasons    []string
	reviewerID *uuid.UUID
	note       *string
	decidedAt  *time.Time
	createdAt  time.Time
}

func NewPendingAssessment(bookingID, userID uuid.UUID, res Result, now time.Time) *Assessment {
	return newAssessment(bookingID, userID, res, DecisionPending, now)
}

// NewDeclinedAssessment records an automatic rejection; no reviewer is involved.
func NewDeclinedAssessment(bookingID, userID uuid.UUID, res Result, now time.Time) *Assessment {
	a := newAssessment(bookingID, userID, res, DecisionRejected, now)
	a.decidedAt = &now
	return a
}

func newAssessment(bookingID, userID uuid.UUID, res Result, decision Decision, now time.Time) *Assessment {
	reasons := res.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &Assessment{
		bookingID: bookingID,
		userID:    userID,
		score:     res.Score,
		level:     res.Level,
		decision:  decision,
		reasons:   reasons,
		createdAt: now,
	}
}

func ReconstructAssessment(
	bookingID, userID uuid.UUID,
	score float64,
	level Level,
	decision Decision,
	reasons []string,
	reviewerID *uuid.UUID,
	note *string,
	decidedAt *time.Time,
	createdAt time.Time,
) *Assessment {
	return &Assessment{
		bookingID:  bookingID,
		userID:     userID,
		score:      score,
		level:      level,
		decision:   decision,
		reasons:    reasons,
		reviewerID: reviewerID,
		note:       note,
		decidedAt:  decidedAt,
		createdAt:  createdAt,
	}
}

func (a *Assessment) IsPending() bool {
	return a.decision == DecisionPending
}

func (a *Assessment) Decide(verdict Decision, reviewerID uuid.UUID, note string, now time.Time) error {
	if !a.IsPending() {
		return ErrAlreadyDecided
	}
	if verdict != DecisionApproved && verdict != DecisionRejected {
		return ErrInvalidDecision
	}
	a.decision = verdict
	a.reviewerID = &reviewerID
	if note != "" {
		a.note = &note
	}
	a.decidedAt = &now
	return nil
}

func (a *Assessment) BookingID() uuid.UUID   { return a.bookingID }
func (a *Assessment) UserID() uuid.UUID      { return a.userID }
func (a *Assessment) Score() float64         { return a.score }
func (a *Assessment) Level() Level           { return a.level }
func (a *Assessment) Decision() Decision     { return a.decision }
func (a *Assessment) Reasons() []string      { return a.reasons }
func (a *Assessment) ReviewerID() *uuid.UUID { return a.reviewerID }
func (a *Assessment) Note() *string          { return a.note }
func (a *Assessment) DecidedAt() *time.Time  { return a.decidedAt }
func (a *Assessment) CreatedAt() time.Time   { return a.createdAt }
