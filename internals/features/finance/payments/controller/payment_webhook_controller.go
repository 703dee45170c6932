package controller

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"hoa_backend/internals/features/finance/payments/dto"
	helper "hoa_backend/internals/helpers"
)

// POST /api/payments/notification
//
// Midtrans retries anything that is not 2xx, so unknown orders and no-op
// statuses still answer 200; server-side failures answer 5xx to get a retry.
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	var n dto.MidtransNotification
	if err := c.BodyParser(&n); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}

	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		headers[k] = strings.Join(v, ",")
	}
	headersJSON, _ := json.Marshal(headers)
	payload := append([]byte(nil), c.Body()...)
	if !json.Valid(payload) {
		payload, _ = json.Marshal(n)
	}

	out, err := h.Service.HandleMidtransNotification(c.UserContext(), n, headersJSON, payload)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, string(out.EventStatus), fiber.Map{
		"order_id":           n.OrderID,
		"transaction_status": n.TransactionStatus,
		"event_status":       out.EventStatus,
		"payment_status":     out.PaymentStatus,
		"reason":             out.Reason,
	})
}
