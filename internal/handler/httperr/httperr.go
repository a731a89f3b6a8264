// Package httperr builds the error body every endpoint answers with:
// {"error":{"code":"...","message":"..."},"detail":...}.
package httperr

import (
	"github.com/gin-gonic/gin"
)

// Stable machine-readable codes. Clients branch on these, not on messages.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeNotAvailable    = "NOT_AVAILABLE"
	CodeConflict        = "CONFLICT"
	CodeIdempotency     = "IDEMPOTENCY_CONFLICT"
	CodePayloadMismatch = "IDEMPOTENCY_PAYLOAD_MISMATCH"
	CodeInternal        = "INTERNAL"
)

type Body struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type Response struct {
	Status int  `json:"-"`
	Error  Body `json:"error"`
	Detail any  `json:"detail,omitempty"`
}

func New(status int, code, msg string) Response {
	return Response{Status: status, Error: Body{Code: code, Message: msg}}
}

// AbortWithError picks the code from the status. The cause stays on c.Errors for the logger.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	AbortWithCode(c, status, codeFor(status), err, msg, detail)
}

func AbortWithCode(c *gin.Context, status int, code string, err error, msg string, detail any) {
	if err == nil {
		panic("httperr: err cannot be nil")
	}

	resp := New(status, code, msg)
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

func codeFor(status int) string {
	switch {
	case status == 400:
		return CodeInvalidRequest
	case status == 401:
		return CodeUnauthorized
	case status == 403:
		return CodeForbidden
	case status == 404:
		return CodeNotFound
	case status == 409:
		return CodeConflict
	case status >= 500:
		return CodeInternal
	default:
		return ""
	}
}
