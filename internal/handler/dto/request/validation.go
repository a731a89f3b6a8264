package request

import (
	"time"

	"staybook/internal/pkg/errs"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// bizdate accepts a calendar day (2006-01-02) or a full RFC3339 timestamp.
// Which day a timestamp lands on is decided later in the booking time zone.
func validBizDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errs.New("gin binding engine is not go-playground/validator")
	}
	return v.RegisterValidation("bizdate", validBizDate)
}
