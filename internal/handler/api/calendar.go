package api

import (
	"net/http"

	reqdto "staybook/internal/handler/dto/request"
	resdto "staybook/internal/handler/dto/response"
	"staybook/internal/handler/httperr"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CalendarHandler struct {
	cmds commands.CalendarCommands
	q    queries.AvailabilityQueries
}

func NewCalendarHandler(cmds commands.CalendarCommands, q queries.AvailabilityQueries) *CalendarHandler {
	return &CalendarHandler{cmds: cmds, q: q}
}

// @Summary Property availability
// @Description Stored days in [from, to)
// @Tags calendar
// @Produce json
// @Param id path string true "Property ID"
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Day after the last (YYYY-MM-DD)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Router /properties/{id}/availability [get]
func (h *CalendarHandler) Availability(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid property id", nil)
		return
	}

	var query reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}

	days, err := h.q.Range(c.Request.Context(), propertyID, query.From, query.To)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	res, err := resdto.FromAvailabilityDays(propertyID, days)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Upsert availability
// @Description Overwrite price, remaining and blocked flag per day
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param request body reqdto.UpsertCalendarRequest true "Days"
// @Success 200 {object} resdto.CalendarUpsertResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /properties/{id}/availability [put]
func (h *CalendarHandler) Upsert(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid property id", nil)
		return
	}

	var req reqdto.UpsertCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	n, err := h.cmds.UpsertAvailability(c.Request.Context(), req.ToInput(propertyID))
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.CalendarUpsertResponse{PropertyID: propertyID, Updated: n})
}
