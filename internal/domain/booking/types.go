package booking

type Status string

const (
	StatusHold      Status = "HOLD"
	StatusReview    Status = "REVIEW"
	StatusConfirmed Status = "CONFIRMED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// ReleasableStatuses are the states that still hold inventory and may be released.
// Expiry, user cancellation and review rejection all guard on this set.
var ReleasableStatuses = []Status{StatusHold, StatusReview}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusHold, StatusReview, StatusConfirmed, StatusPaid, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s Status) IsReleasable() bool {
	return s == StatusHold || s == StatusReview
}

func StatusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

const (
	CancelReasonExpired      = "hold_expired"
	CancelReasonUser         = "user_cancelled"
	CancelReasonReview       = "review_rejected"
	CancelReasonAutoDeclined = "fraud_auto_declined"

	DefaultCancelPolicy = "flexible"
)
