package controller

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/fee_instances/dto"
	"hoa_backend/internals/features/finance/fee_instances/model"
	"hoa_backend/internals/features/finance/fee_instances/service"
	residentModel "hoa_backend/internals/features/households/residents/model"
	notifModel "hoa_backend/internals/features/home/notifications/model"
	notifService "hoa_backend/internals/features/home/notifications/service"
	helper "hoa_backend/internals/helpers"
)

type FeeInstanceController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Notifier  notifService.Notifier
}

func NewFeeInstanceController(db *gorm.DB, n notifService.Notifier) *FeeInstanceController {
	return &FeeInstanceController{DB: db, Validator: validator.New(), Notifier: n}
}

// POST /fees/assign
func (h *FeeInstanceController) Assign(c *fiber.Ctx) error {
	var req dto.AssignFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if err := req.Normalize(); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := service.Assign(c.UserContext(), h.DB, service.AssignInput{
		FeeID:            req.FeeID,
		AccountHolderIDs: req.AccountHolderIDs,
		Months:           req.Months,
		Year:             req.Year,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	h.notifyAssigned(c, res.Instances)

	out := dto.AssignFeeResponse{
		FeeID:             req.FeeID,
		Year:              req.Year,
		Months:            req.Months,
		Inserted:          res.Inserted,
		Skipped:           res.Skipped,
		RejectedHolderIDs: res.RejectedHolderIDs,
		Instances:         dto.ToFeeInstanceResponses(res.Instances),
	}
	msg := "fee assigned"
	if res.Inserted == 0 {
		msg = "nothing to assign, all periods already exist"
	}
	return helper.JsonCreated(c, msg, out)
}

// one notification per holder, listing the months they were charged
func (h *FeeInstanceController) notifyAssigned(c *fiber.Ctx, created []model.FeeInstanceModel) {
	if h.Notifier == nil || len(created) == 0 {
		return
	}
	byHolder := map[uuid.UUID][]model.FeeInstanceModel{}
	order := []uuid.UUID{}
	for _, inst := range created {
		if _, ok := byHolder[inst.FeeInstanceAccountHolderID]; !ok {
			order = append(order, inst.FeeInstanceAccountHolderID)
		}
		byHolder[inst.FeeInstanceAccountHolderID] = append(byHolder[inst.FeeInstanceAccountHolderID], inst)
	}
	for _, holderID := range order {
		items := byHolder[holderID]
		months := make([]string, 0, len(items))
		for _, it := range items {
			months = append(months, fmt.Sprintf("%02d/%d", it.FeeInstanceMonth, it.FeeInstanceYear))
		}
		first := items[0]
		msg := fmt.Sprintf("%s (%s each) was added to your account for %s.",
			first.FeeInstanceFeeName, first.FeeInstanceAmount.StringFixed(2), strings.Join(months, ", "))
		if err := h.Notifier.Notify(c.UserContext(), holderID, notifModel.NotificationKindFeeAssigned,
			"New fee assigned", msg, nil); err != nil {
			log.Printf("[WARN] fee assignment notification holder=%s: %v", holderID, err)
		}
	}
}

// GET /fetch-account-holders?fee_id=&year=&months=1,2,3
func (h *FeeInstanceController) CandidateHolders(c *fiber.Ctx) error {
	feeID, err := uuid.Parse(strings.TrimSpace(c.Query("fee_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "fee_id is required")
	}
	year := c.QueryInt("year", 0)
	if year < 2000 || year > 2100 {
		return helper.JsonError(c, fiber.StatusBadRequest, "year is required")
	}
	months, err := parseMonths(c.Query("months"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	rows, err := service.CandidateHolders(c.UserContext(), h.DB, feeID, year, months)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load account holders")
	}
	out := make([]dto.CandidateHolderResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.CandidateHolderResponse{
			ID:            r.ResidentID,
			FullName:      r.FullName(),
			AccountNumber: r.ResidentAccountNumber,
			Block:         r.ResidentBlock,
			Lot:           r.ResidentLot,
		})
	}
	return helper.JsonOK(c, "ok", out)
}

func parseMonths(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	seen := map[int]struct{}{}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.Atoi(part)
		if err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("invalid month %q", part)
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

// GET /fees/all?fee_id=&account_holder_id=&year=&month=&status=&search=
func (h *FeeInstanceController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "period", "desc", helper.AdminOpts)
	order := p.SafeOrder(map[string]string{
		"period":     "fee_instance_year",
		"amount":     "fee_instance_amount",
		"status":     "fee_instance_status",
		"created_at": "fee_instance_created_at",
	}, "period")

	q := h.DB.WithContext(c.UserContext()).Model(&model.FeeInstanceModel{})
	if v := strings.TrimSpace(c.Query("fee_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid fee_id")
		}
		q = q.Where("fee_instance_fee_id = ?", id)
	}
	if v := strings.TrimSpace(c.Query("account_holder_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid account_holder_id")
		}
		q = q.Where("fee_instance_account_holder_id = ?", id)
	}
	if y := c.QueryInt("year", 0); y > 0 {
		q = q.Where("fee_instance_year = ?", y)
	}
	if m := c.QueryInt("month", 0); m > 0 {
		q = q.Where("fee_instance_month = ?", m)
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st := model.PaymentStatus(strings.ToLower(s))
		if !st.Valid() {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid status")
		}
		q = q.Where("fee_instance_status = ?", st)
	}
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		holders := h.DB.Model(&residentModel.ResidentModel{}).Select("resident_id").
			Where("(LOWER(resident_first_name) LIKE ? OR LOWER(resident_last_name) LIKE ? OR LOWER(COALESCE(resident_account_number,'')) LIKE ? OR LOWER(resident_block) = ? OR LOWER(resident_lot) = ?)",
				like, like, like, strings.ToLower(s), strings.ToLower(s))
		q = q.Where("(fee_instance_account_holder_id IN (?) OR LOWER(fee_instance_fee_name) LIKE ?)", holders, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count fee instances")
	}
	var rows []model.FeeInstanceModel
	if err := q.Order(order).Order("fee_instance_month DESC").
		Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load fee instances")
	}

	out, err := h.withHolders(c, rows)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load account holders")
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p))
}

func (h *FeeInstanceController) withHolders(c *fiber.Ctx, rows []model.FeeInstanceModel) ([]dto.FeeInstanceResponse, error) {
	out := dto.ToFeeInstanceResponses(rows)
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.FeeInstanceAccountHolderID)
	}
	var holders []residentModel.ResidentModel
	if err := h.DB.WithContext(c.UserContext()).Where("resident_id IN ?", ids).Find(&holders).Error; err != nil {
		return nil, err
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
	return out, nil
}

// POST /fee-instances/:id/reopen
func (h *FeeInstanceController) Reopen(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	inst, err := service.Reopen(c.UserContext(), h.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	log.Printf("[INFO] fee instance %s reopened", id)
	return helper.JsonUpdated(c, "fee instance reopened", dto.ToFeeInstanceResponse(inst))
}

// GET /users/:id/fees?year=&status=
//
// Residents may only read their own fees.
func (h *FeeInstanceController) UserFees(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if !helper.IsAdmin(c) {
		caller, err := helper.GetUserIDFromToken(c)
		if err != nil {
			return helper.FromFiberError(c, err)
		}
		if caller != id {
			return helper.JsonError(c, fiber.StatusForbidden, "cannot view another resident's fees")
		}
	}

	p := helper.ParseFiber(c, "period", "desc", helper.DefaultOpts)
	dir := "DESC"
	if p.SortOrder == "asc" {
		dir = "ASC"
	}

	q := h.DB.WithContext(c.UserContext()).Model(&model.FeeInstanceModel{}).
		Where("fee_instance_account_holder_id = ?", id)
	if y := c.QueryInt("year", 0); y > 0 {
		q = q.Where("fee_instance_year = ?", y)
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st := model.PaymentStatus(strings.ToLower(s))
		if !st.Valid() {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid status")
		}
		q = q.Where("fee_instance_status = ?", st)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count fees")
	}
	var rows []model.FeeInstanceModel
	if err := q.Order("fee_instance_year " + dir).Order("fee_instance_month " + dir).
		Order("fee_instance_fee_name ASC").
		Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load fees")
	}
	return helper.JsonList(c, "ok", dto.ToFeeInstanceResponses(rows), helper.BuildPagination(total, p))
}
