package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	reqdto "staybook/internal/handler/dto/request"
	"staybook/internal/handler/httperr"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	headerSignature  = "X-Signature"
	maxWebhookBodyKB = 64
)

var errBadSignature = errs.New("webhook signature mismatch")

type WebhookHandler struct {
	cmds   commands.PaymentCommands
	secret []byte
}

func NewWebhookHandler(cmds commands.PaymentCommands, cfg config.Config) *WebhookHandler {
	return &WebhookHandler{cmds: cmds, secret: []byte(cfg.Webhook.PaymentSecret)}
}

// @Summary Payment webhook
// @Description Marks a held booking paid. Body must be signed with HMAC-SHA256 (hex) in X-Signature.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Signature header string true "hex HMAC-SHA256 of the raw body"
// @Param request body reqdto.PaymentWebhookRequest true "Payment notification"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /webhooks/payments [post]
func (h *WebhookHandler) Payment(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyKB<<10))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if !h.verify(body, c.GetHeader(headerSignature)) {
		httperr.AbortWithError(c, http.StatusUnauthorized, errBadSignature, "Invalid signature", nil)
		return
	}

	// binding reads the body again
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	var req reqdto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	if err := h.cmds.MarkPaid(c.Request.Context(), req.ToInput()); err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WebhookHandler) verify(body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
