package api

import (
	"net/http"

	reqdto "staybook/internal/handler/dto/request"
	resdto "staybook/internal/handler/dto/response"
	"staybook/internal/handler/httperr"
	"staybook/internal/handler/middleware"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FraudHandler struct {
	cmds commands.FraudCommands
}

func NewFraudHandler(cmds commands.FraudCommands) *FraudHandler {
	return &FraudHandler{cmds: cmds}
}

// @Summary Decide a fraud review
// @Description Approve (back to HOLD) or reject (release inventory) a booking under review. Repeating a decision returns the stored one.
// @Tags fraud
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingId path string true "Booking ID"
// @Param request body reqdto.DecisionRequest true "Decision"
// @Success 200 {object} resdto.AssessmentResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /fraud/reviews/{bookingId}/decision [post]
func (h *FraudHandler) Decide(c *gin.Context) {
	reviewerID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing user"), "Unauthorized", nil)
		return
	}
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return
	}

	var req reqdto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	view, err := h.cmds.Decide(c.Request.Context(), req.ToInput(bookingID, reviewerID))
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	res, err := resdto.FromAssessmentView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}
