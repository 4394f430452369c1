package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookProcessor runs the payment-notification pipeline.
type WebhookProcessor interface {
	ProcessPayment(ctx context.Context, traceID, paymentID string) error
}

// WebhookPayload is the inbound Mercado Pago notification envelope. The
// gateway sends several notification types on this endpoint; only payment
// events matter. The payment id arrives as a string or a number depending on
// the notification version.
type WebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// HandleWebhookHealth handles GET on the webhook path, used by the gateway
// to probe the endpoint.
func HandleWebhookHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	}
}

// HandleWebhook handles POST payment notifications.
//
// Response contract: 200 for irrelevant notification types and for any
// outcome once the payment was fetched (downstream failures are logged, not
// retried via the gateway); 400 when the payment id is missing; 500 only
// when the payment fetch itself fails, so the gateway re-delivers.
func HandleWebhook(pipeline WebhookProcessor, logger *zap.Logger) gin.HandlerFunc {
	const maxBodyBytes = int64(65536)

	return func(c *gin.Context) {
		traceID := uuid.NewString()

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		var payload WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			logger.Warn("Malformed webhook payload",
				zap.String("trace_id", traceID),
				zap.Error(err),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
			return
		}

		if payload.Type != "payment" {
			logger.Info("Ignoring non-payment notification",
				zap.String("trace_id", traceID),
				zap.String("type", payload.Type),
			)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		paymentID := rawIDToString(payload.Data.ID)
		if paymentID == "" {
			logger.Warn("Payment notification without payment id",
				zap.String("trace_id", traceID),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment id"})
			return
		}

		if err := pipeline.ProcessPayment(c.Request.Context(), traceID, paymentID); err != nil {
			// Only the gateway fetch surfaces an error; answering non-2xx
			// makes the gateway retry the whole notification.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment fetch failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func rawIDToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}

	return ""
}
