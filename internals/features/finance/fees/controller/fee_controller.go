package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/fees/dto"
	"hoa_backend/internals/features/finance/fees/model"
	"hoa_backend/internals/features/finance/fees/service"
	helper "hoa_backend/internals/helpers"
)

type FeeController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewFeeController(db *gorm.DB) *FeeController {
	return &FeeController{DB: db, Validator: validator.New()}
}

// GET /fees?search=&page=&per_page=
func (h *FeeController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "name", "asc", helper.DefaultOpts)
	order := p.SafeOrder(map[string]string{
		"name":       "fee_name",
		"amount":     "fee_amount",
		"created_at": "fee_created_at",
	}, "name")

	q := h.DB.WithContext(c.UserContext()).Model(&model.FeeModel{})
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(fee_name) LIKE ? OR LOWER(COALESCE(fee_description,'')) LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count fees")
	}
	var rows []model.FeeModel
	if err := q.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load fees")
	}
	return helper.JsonList(c, "ok", dto.ToFeeResponses(rows), helper.BuildPagination(total, p))
}

// POST /fees/add
func (h *FeeController) Create(c *fiber.Ctx) error {
	var req dto.CreateFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if err := req.Validate(); err != nil {
		return helper.JsonValidationError(c, map[string][]string{"amount": {err.Error()}})
	}

	m := req.ToModel()
	if err := h.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		log.Printf("[ERROR] create fee: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to create fee")
	}
	return helper.JsonCreated(c, "fee created", dto.ToFeeResponse(m))
}

// PUT /fees/:id
func (h *FeeController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if err := req.Validate(); err != nil {
		return helper.JsonValidationError(c, map[string][]string{"amount": {err.Error()}})
	}

	var m model.FeeModel
	if err := h.DB.WithContext(c.UserContext()).First(&m, "fee_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "fee not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	dto.ApplyFeeUpdate(&m, req)
	if err := h.DB.WithContext(c.UserContext()).Save(&m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update fee")
	}
	return helper.JsonUpdated(c, "fee updated", dto.ToFeeResponse(&m))
}

// DELETE /fees/:id
func (h *FeeController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	removed, err := service.Delete(c.UserContext(), h.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	log.Printf("[INFO] fee %s deleted, %d unsettled instances removed", id, removed)
	return helper.JsonDeleted(c, "fee deleted", fiber.Map{
		"fee_id":            id,
		"instances_removed": removed,
	})
}
