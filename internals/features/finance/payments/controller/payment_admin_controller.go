package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hoa_backend/internals/features/finance/payments/dto"
	"hoa_backend/internals/features/finance/payments/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
	helper "hoa_backend/internals/helpers"
)

func reviewerFrom(c *fiber.Ctx) *uuid.UUID {
	id, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return nil
	}
	return &id
}

// POST /payments/approve
func (h *PaymentController) Approve(c *fiber.Ctx) error {
	var req dto.ApprovePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	pay, err := h.Service.Approve(c.UserContext(), req.TransactionReference, reviewerFrom(c))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "payment approved", dto.ToPaymentResponse(pay, nil))
}

// POST /payments/reject
func (h *PaymentController) Reject(c *fiber.Ctx) error {
	var req dto.RejectPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	pay, err := h.Service.Reject(c.UserContext(), req.TransactionReference, req.RejectReason, reviewerFrom(c))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "payment rejected", dto.ToPaymentResponse(pay, nil))
}

// ListByStatus serves GET /approved-payments, /pending-payments and
// /rejected-payments (?page=&perPage=&search=).
func (h *PaymentController) ListByStatus(status model.PaymentStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := helper.ParseFiber(c, "submitted_at", "desc", helper.AdminOpts)
		order := p.SafeOrder(map[string]string{
			"submitted_at": "payment_submitted_at",
			"approved_at":  "payment_approved_at",
			"rejected_at":  "payment_rejected_at",
			"amount":       "payment_amount_total",
		}, "submitted_at")

		q := h.DB.WithContext(c.UserContext()).Model(&model.PaymentModel{}).
			Where("payment_status = ?", status)
		if v := strings.TrimSpace(c.Query("mode")); v != "" {
			q = q.Where("payment_mode = ?", strings.ToLower(v))
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			holders := h.DB.Model(&residentModel.ResidentModel{}).Select("resident_id").
				Where("(LOWER(resident_first_name) LIKE ? OR LOWER(resident_last_name) LIKE ? OR LOWER(COALESCE(resident_account_number,'')) LIKE ?)",
					like, like, like)
			q = q.Where("(LOWER(payment_transaction_reference) LIKE ? OR payment_account_holder_id IN (?))", like, holders)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count payments")
		}
		var rows []model.PaymentModel
		if err := q.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load payments")
		}

		out, err := h.withItems(c, rows)
		if err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load payment items")
		}
		if err := h.attachHolders(c, out); err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load account holders")
		}
		return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p))
	}
}

func (h *PaymentController) attachHolders(c *fiber.Ctx, out []dto.PaymentResponse) error {
	if len(out) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(out))
	for _, p := range out {
		ids = append(ids, p.AccountHolderID)
	}
	var holders []residentModel.ResidentModel
	if err := h.DB.WithContext(c.UserContext()).Where("resident_id IN ?", ids).Find(&holders).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]residentModel.ResidentModel, len(holders))
	for _, r := range holders {
		byID[r.ResidentID] = r
	}
	for i := range out {
		if r, ok := byID[out[i].AccountHolderID]; ok {
			out[i].AccountHolderName = r.FullName()
			out[i].AccountNumber = r.ResidentAccountNumber
			out[i].Unit = r.Unit()
		}
	}
	return nil
}

// GET /payments/gateway-events?status=&order_id=
func (h *PaymentController) GatewayEvents(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "received_at", "desc", helper.AdminOpts)
	order := p.SafeOrder(map[string]string{"received_at": "gateway_event_received_at"}, "received_at")

	q := h.DB.WithContext(c.UserContext()).Model(&model.PaymentGatewayEventModel{})
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		q = q.Where("gateway_event_status = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(c.Query("order_id")); v != "" {
		q = q.Where("gateway_event_external_id = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count gateway events")
	}
	var rows []model.PaymentGatewayEventModel
	if err := q.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load gateway events")
	}
	return helper.JsonList(c, "ok", dto.ToGatewayEventResponses(rows), helper.BuildPagination(total, p))
}
