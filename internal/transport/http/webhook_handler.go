package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/payment"
	"github.com/waste3d/edemy-api/internal/logger"
)

const maxWebhookBody = 512 << 10

type WebhookHandler struct {
	parser    WebhookParser
	purchases PurchaseService
	log       logger.Logger
}

func NewWebhookHandler(parser WebhookParser, purchases PurchaseService, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, purchases: purchases, log: log}
}

// POST /stripe
// A non-2xx answer makes the provider redeliver the event, so only failures
// worth retrying are reported as errors.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Error("stripe event exceeds body limit", tooLarge.Limit)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Request body too large"})
			return
		}
		_ = c.Error(domain.NewValidationError(errors.Wrap(err, "read webhook body")))
		return
	}

	evt, err := h.parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	switch evt.Kind {
	case payment.EventPaid:
		err = h.purchases.ConfirmPayment(ctx, evt.PurchaseID)
	case payment.EventFailed:
		err = h.purchases.FailPayment(ctx, evt.PurchaseID)
	default:
		h.log.Debug("ignoring stripe event " + evt.Type)
	}
	if domain.IsNotFound(err) {
		h.log.Warn("stripe event "+evt.ID+" references an unknown purchase", evt.PurchaseID.String())
		err = nil
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
