package controller

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/payments/dto"
	"hoa_backend/internals/features/finance/payments/model"
	"hoa_backend/internals/features/finance/payments/service"
	helper "hoa_backend/internals/helpers"
	"hoa_backend/internals/helpers/oss"
)

type PaymentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Service   *service.PaymentService
	Proofs    oss.ProofStore
}

func NewPaymentController(db *gorm.DB, svc *service.PaymentService, proofs oss.ProofStore) *PaymentController {
	return &PaymentController{DB: db, Validator: validator.New(), Service: svc, Proofs: proofs}
}

// POST /payment/account-details
func (h *PaymentController) AccountDetails(c *fiber.Ctx) error {
	holderID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.AccountDetailsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	req.Defaults()

	d, err := h.Service.AccountDetails(c.UserContext(), holderID, req.Year, req.ThroughMonth)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	items := make([]dto.OutstandingItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, dto.OutstandingItem{
			FeeInstanceID: it.FeeInstanceID,
			FeeName:       it.FeeInstanceFeeName,
			Month:         it.FeeInstanceMonth,
			Year:          it.FeeInstanceYear,
			Amount:        it.FeeInstanceAmount.StringFixed(2),
			Status:        string(it.FeeInstanceStatus),
			StatusLabel:   it.FeeInstanceStatus.Label(),
			RejectReason:  it.FeeInstanceRejectReason,
		})
	}
	return helper.JsonOK(c, "ok", dto.AccountDetailsResponse{
		AccountHolderID: d.Holder.ResidentID,
		AccountNumber:   d.Holder.ResidentAccountNumber,
		FullName:        d.Holder.FullName(),
		Unit:            d.Holder.Unit(),
		Year:            req.Year,
		ThroughMonth:    req.ThroughMonth,
		Items:           items,
		TotalDue:        d.TotalDue.StringFixed(2),
		HasPending:      d.PendingRef != nil,
		PendingRef:      d.PendingRef,
	})
}

// POST /payment/transaction
//
// JSON, or multipart/form-data with an optional "proof" file.
func (h *PaymentController) Submit(c *fiber.Ctx) error {
	holderID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.SubmitPaymentRequest
	if oss.IsMultipart(c) {
		if req, err = parseSubmitForm(c); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
		}
	} else if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Normalize()
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if !req.HasSelection() {
		return helper.JsonError(c, fiber.StatusBadRequest, "no payment selected")
	}

	var proofURL *string
	if fh := oss.FormFile(c); fh != nil && h.Proofs != nil {
		url, err := h.Proofs.SaveProof(c.UserContext(), holderID.String(), fh)
		if err != nil {
			return helper.FromFiberError(c, err)
		}
		proofURL = &url
	}

	pay, items, err := h.Service.Submit(c.UserContext(), service.SubmitInput{
		AccountHolderID: holderID,
		FeeInstanceIDs:  req.FeeInstanceIDs,
		Year:            req.Year,
		ThroughMonth:    req.ThroughMonth,
		AmountTendered:  req.AmountTendered,
		Mode:            model.PaymentMode(req.ModeOfPayment),
		ProofURL:        proofURL,
	})
	if err != nil {
		if proofURL != nil {
			log.Printf("[WARN] submit failed, proof %s left orphaned: %v", *proofURL, err)
		}
		return helper.FromFiberError(c, err)
	}

	return helper.JsonCreated(c, "payment submitted", dto.SubmitPaymentResponse{
		PaymentID:            pay.PaymentID,
		TransactionReference: pay.PaymentTransactionReference,
		Total:                pay.PaymentAmountTotal.StringFixed(2),
		AmountTendered:       pay.PaymentAmountTendered.StringFixed(2),
		Balance:              pay.PaymentBalance.StringFixed(2),
		ModeOfPayment:        string(pay.PaymentMode),
		Status:               string(pay.PaymentStatus),
		ItemCount:            len(items),
		CheckoutURL:          pay.PaymentCheckoutURL,
		CheckoutToken:        pay.PaymentGatewayToken,
	})
}

func parseSubmitForm(c *fiber.Ctx) (dto.SubmitPaymentRequest, error) {
	var req dto.SubmitPaymentRequest

	form, err := c.MultipartForm()
	if err != nil {
		return req, errors.New("invalid multipart form")
	}
	for _, raw := range form.Value["fee_instance_ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return req, errors.New("invalid fee_instance_ids")
			}
			req.FeeInstanceIDs = append(req.FeeInstanceIDs, id)
		}
	}
	if v := strings.TrimSpace(c.FormValue("year")); v != "" {
		if req.Year, err = strconv.Atoi(v); err != nil {
			return req, errors.New("invalid year")
		}
	}
	if v := strings.TrimSpace(c.FormValue("through_month")); v != "" {
		if req.ThroughMonth, err = strconv.Atoi(v); err != nil {
			return req, errors.New("invalid through_month")
		}
	}
	if v := strings.TrimSpace(c.FormValue("amount_tendered")); v != "" {
		if req.AmountTendered, err = decimal.NewFromString(v); err != nil {
			return req, errors.New("invalid amount_tendered")
		}
	}
	req.ModeOfPayment = c.FormValue("mode_of_payment")
	return req, nil
}

// GET /payments/history?status=&page=&per_page=
func (h *PaymentController) History(c *fiber.Ctx) error {
	holderID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ParseFiber(c, "submitted_at", "desc", helper.DefaultOpts)
	order := p.SafeOrder(map[string]string{
		"submitted_at": "payment_submitted_at",
		"amount":       "payment_amount_total",
	}, "submitted_at")

	q := h.DB.WithContext(c.UserContext()).Model(&model.PaymentModel{}).
		Where("payment_account_holder_id = ?", holderID)
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st := model.PaymentStatus(strings.ToLower(s))
		if !st.Valid() {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid status")
		}
		q = q.Where("payment_status = ?", st)
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
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p))
}

func (h *PaymentController) withItems(c *fiber.Ctx, rows []model.PaymentModel) ([]dto.PaymentResponse, error) {
	out := make([]dto.PaymentResponse, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.PaymentID)
	}
	var items []model.PaymentItemModel
	if err := h.DB.WithContext(c.UserContext()).
		Where("payment_item_payment_id IN ?", ids).
		Order("payment_item_year ASC, payment_item_month ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byPayment := map[uuid.UUID][]model.PaymentItemModel{}
	for _, it := range items {
		byPayment[it.PaymentItemPaymentID] = append(byPayment[it.PaymentItemPaymentID], it)
	}
	for i := range rows {
		out = append(out, dto.ToPaymentResponse(&rows[i], byPayment[rows[i].PaymentID]))
	}
	return out, nil
}
