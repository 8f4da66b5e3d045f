package public

import (
	"io"
	"net/http"

	"github.com/nextchow/internal/http/response"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// PaystackWebhook 支付网关异步通知
func (h *Handler) PaystackWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("paystack_webhook_body_read_failed", "error", err)
		respondError(c, http.StatusBadRequest, response.KindBadRequest, "invalid request body", nil)
		return
	}
	log.Infow("paystack_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)
	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	if err := h.PaymentService.HandleWebhook(c.Request.Context(), headers, body); err != nil {
		log.Warnw("paystack_webhook_handle_failed", "error", err)
		respondWithMappedError(c, err, webhookErrorRules)
		return
	}
	response.Success(c, gin.H{"accepted": true})
}
