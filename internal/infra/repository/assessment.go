package repository

import (
	"context"
	"time"

	"staybook/internal/domain/fraud"
	"staybook/internal/infra"
	"staybook/internal/infra/db"
	"staybook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	upsertAssessmentSQL = `
INSERT INTO fraud_assessments (booking_id, user_id, score, level, decision, reasons, reviewer_id, review_note, decided_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (booking_id) DO UPDATE
SET score = EXCLUDED.score,
    level = EXCLUDED.level,
    decision = EXCLUDED.decision,
    reasons = EXCLUDED.reasons,
    reviewer_id = EXCLUDED.reviewer_id,
    review_note = EXCLUDED.review_note,
    decided_at = EXCLUDED.decided_at`

	findAssessmentForUpdateSQL = `
SELECT booking_id, user_id, score, level, decision, reasons, reviewer_id, review_note, decided_at, created_at
FROM fraud_assessments
WHERE booking_id = $1
FOR UPDATE`

	saveDecisionSQL = `
UPDATE fraud_assessments
SET decision = $2, reviewer_id = $3, review_note = $4, decided_at = $5
WHERE booking_id = $1`
)

type AssessmentRepository struct {
	db db.DBTX
}

func NewAssessmentRepository(db db.DBTX) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) Upsert(ctx context.Context, a *fraud.Assessment) error {
	_, err := r.db.Exec(ctx, upsertAssessmentSQL,
		a.BookingID(),
		a.UserID(),
		a.Score(),
		string(a.Level()),
		string(a.Decision()),
		a.Reasons(),
		pgconv.UUIDPtrToPgtype(a.ReviewerID()),
		pgconv.StringPtrToPgtype(a.Note()),
		pgconv.TimePtrToPgtype(a.DecidedAt()),
		a.CreatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to upsert fraud assessment", err)
	}
	return nil
}

func (r *AssessmentRepository) FindForUpdate(ctx context.Context, bookingID uuid.UUID) (*fraud.Assessment, error) {
	a, err := ScanAssessment(r.db.QueryRow(ctx, findAssessmentForUpdateSQL, bookingID))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("fraud assessment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock fraud assessment", err)
	}
	return a, nil
}

func (r *AssessmentRepository) SaveDecision(ctx context.Context, a *fraud.Assessment) error {
	tag, err := r.db.Exec(ctx, saveDecisionSQL,
		a.BookingID(),
		string(a.Decision()),
		pgconv.UUIDPtrToPgtype(a.ReviewerID()),
		pgconv.StringPtrToPgtype(a.Note()),
		pgconv.TimePtrToPgtype(a.DecidedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save fraud decision", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("fraud assessment not found", nil, infra.KindNotFound)
	}
	return nil
}

func ScanAssessment(row pgx.Row) (*fraud.Assessment, error) {
	var (
		bookingID, userID uuid.UUID
		score             float64
		level, decision   string
		reasons           []string
		reviewerID        pgtype.UUID
		note              pgtype.Text
		decidedAt         pgtype.Timestamptz
		createdAt         time.Time
	)
	if err := row.Scan(&bookingID, &userID, &score, &level, &decision, &reasons, &reviewerID, &note, &decidedAt, &createdAt); err != nil {
		return nil, err
	}

	return fraud.ReconstructAssessment(
		bookingID, userID,
		score,
		fraud.Level(level),
		fraud.Decision(decision),
		reasons,
		pgconv.UUIDPtrFromPgtype(reviewerID),
		pgconv.StringPtrFromPgtype(note),
		pgconv.TimePtrFromPgtype(decidedAt),
		createdAt.UTC(),
	), nil
}
