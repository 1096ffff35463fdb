package handlers

import (
	apperrors "ajo/internal/errors"
	"ajo/internal/providers/paystack"
	"ajo/internal/services/webhook"
	"ajo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	webhook webhook.Service
}

func NewWebhookHandler(s webhook.Service) *WebhookHandler {
	return &WebhookHandler{webhook: s}
}

// Paystack handles POST /webhooks/paystack. Every delivery is acknowledged
// with 200, including unknown references, duplicates and bad signatures, so
// the provider stops retrying. A bad signature gets no outcome and changes
// nothing. Store failures answer 500 to get a redelivery.
func (h *WebhookHandler) Paystack(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns.
	body := append([]byte(nil), c.Body()...)

	ack, err := h.webhook.HandleProviderEvent(c.UserContext(), body, c.Get(paystack.SignatureHeader))
	if err != nil && apperrors.CodeOf(err) == "" {
		return response.FromError(c, err)
	}

	out := fiber.Map{"received": true}
	if ack != nil {
		out["outcome"] = ack.Outcome
	}
	return c.JSON(out)
}
