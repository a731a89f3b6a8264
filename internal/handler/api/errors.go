package api

import (
	"net/http"

	"staybook/internal/handler/httperr"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

// abortWithUseCaseError maps use-case errors onto status codes. Anything unknown is a 500.
func abortWithUseCaseError(c *gin.Context, err error) {
	switch {
	case errs.HasAny(err, commands.ErrNotAvailable, commands.ErrInventoryRace):
		httperr.AbortWithCode(c, http.StatusConflict, httperr.CodeNotAvailable, err, "not available", nil)
	case errs.Is(err, idempotency.ErrPayloadMismatch):
		httperr.AbortWithCode(c, http.StatusUnprocessableEntity, httperr.CodePayloadMismatch, err,
			idempotency.ErrPayloadMismatch.Error(), nil)
	case errs.Is(err, idempotency.ErrPreviousAttemptFailed):
		httperr.AbortWithCode(c, http.StatusConflict, httperr.CodeIdempotency, err,
			idempotency.ErrPreviousAttemptFailed.Error(), nil)
	case errs.Is(err, idempotency.ErrInProgress):
		httperr.AbortWithCode(c, http.StatusConflict, httperr.CodeIdempotency, err,
			idempotency.ErrInProgress.Error(), nil)
	case errs.Is(err, commands.ErrNotUnderReview):
		httperr.AbortWithError(c, http.StatusConflict, err, commands.ErrNotUnderReview.Error(), nil)
	case errs.Is(err, commands.ErrAlreadyProcessed):
		httperr.AbortWithError(c, http.StatusConflict, err, commands.ErrAlreadyProcessed.Error(), nil)
	case errs.HasAny(err,
		commands.ErrInvalidInput,
		idempotency.ErrKeyRequired,
		idempotency.ErrKeyTooShort,
		queries.ErrInvalidRange,
		queries.ErrInvalidCursor,
	):
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
	case errs.Is(err, commands.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Forbidden", nil)
	case errs.HasAny(err, commands.ErrBookingNotFound, commands.ErrAssessmentNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
