//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"staybook/internal/domain/user"
	"staybook/internal/handler/api"
	reqdto "staybook/internal/handler/dto/request"
	resdto "staybook/internal/handler/dto/response"
	"staybook/internal/testutil/httptest"
	commandsmock "staybook/internal/testutil/mock/commands"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type FraudHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockFraudCommands
	reviewerID   uuid.UUID
}

func (s *FraudHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockFraudCommands(s.mockCtrl)
	handler := api.NewFraudHandler(s.mockCommands)
	s.reviewerID = uuid.New()

	s.router.POST("/fraud/reviews/:bookingId/decision", fakeAuth(s.reviewerID, user.RoleReviewer), handler.Decide)
}

func (s *FraudHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestFraudHandlerSuite(t *testing.T) {
	suite.Run(t, new(FraudHandlerTestSuite))
}

func decisionURL(id uuid.UUID) string {
	return "/fraud/reviews/" + id.String() + "/decision"
}

func (s *FraudHandlerTestSuite) TestDecide() {
	bookingID := uuid.New()

	s.Run("success: approved assessment is returned", func() {
		note := "verified by phone"
		decided := time.Date(2025, 11, 1, 3, 0, 0, 0, time.UTC)
		s.mockCommands.EXPECT().Decide(gomock.Any(), commands.DecideInput{
			BookingID:  bookingID,
			ReviewerID: s.reviewerID,
			Decision:   "APPROVED",
			Note:       note,
		}).Return(&queries.AssessmentView{
			BookingID:  bookingID,
			UserID:     uuid.New(),
			Score:      45,
			Level:      "MEDIUM",
			Decision:   "APPROVED",
			Reasons:    []string{"amount_over_medium_threshold"},
			ReviewerID: &s.reviewerID,
			Note:       &note,
			DecidedAt:  &decided,
			CreatedAt:  decided.Add(-time.Hour),
		}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, decisionURL(bookingID),
			reqdto.DecisionRequest{Decision: "APPROVED", Note: "  verified by phone  "}, "bearer-token")

		var body resdto.AssessmentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("APPROVED", body.Decision)
		s.Require().NotNil(body.ReviewerID)
		s.Equal(s.reviewerID, *body.ReviewerID)
		s.Require().NotNil(body.DecidedAt)
		s.Equal(decided.Unix(), *body.DecidedAt)
	})

	s.Run("error: 400 on unknown decision", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, decisionURL(bookingID),
			map[string]string{"decision": "MAYBE"}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: 400 on malformed booking id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/fraud/reviews/nope/decision",
			reqdto.DecisionRequest{Decision: "REJECTED"}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking id")
	})

	s.Run("error: use case errors map to status codes", func() {
		cases := []struct {
			name string
			err  error
			code int
		}{
			{name: "review already settled", err: commands.ErrNotUnderReview, code: http.StatusConflict},
			{name: "no assessment", err: commands.ErrAssessmentNotFound, code: http.StatusNotFound},
			{name: "booking gone", err: commands.ErrBookingNotFound, code: http.StatusNotFound},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(nil, tc.err)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, decisionURL(bookingID),
					reqdto.DecisionRequest{Decision: "REJECTED"}, "bearer-token")
				s.Equal(tc.code, rec.Code, rec.Body.String())
			})
		}
	})
}
