package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/households/residents/dto"
	"hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/features/households/residents/service"
	helper "hoa_backend/internals/helpers"
)

type ResidentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Service   *service.ResidentService
}

func NewResidentController(db *gorm.DB, svc *service.ResidentService) *ResidentController {
	return &ResidentController{DB: db, Validator: validator.New(), Service: svc}
}

// POST /residents
func (h *ResidentController) Create(c *fiber.Ctx) error {
	var req dto.CreateResidentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := req.ToModel()
	if err := h.Service.Create(c.UserContext(), m, req.IsAccountHolder); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "resident created", dto.ToResidentResponse(m))
}

// GET /residents?search=&block=&lot=&account_holders_only=&include_inactive=
func (h *ResidentController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "name", "asc", helper.AdminOpts)
	order := p.SafeOrder(map[string]string{
		"name":       "resident_last_name",
		"block":      "resident_block",
		"created_at": "resident_created_at",
	}, "name")

	q := h.DB.WithContext(c.UserContext()).Model(&model.ResidentModel{})
	if !c.QueryBool("include_inactive", false) {
		q = q.Where("resident_is_active = ?", true)
	}
	if c.QueryBool("account_holders_only", false) {
		q = q.Where("resident_is_account_holder = ?", true)
	}
	if b := strings.TrimSpace(c.Query("block")); b != "" {
		q = q.Where("resident_block = ?", strings.ToUpper(b))
	}
	if l := strings.TrimSpace(c.Query("lot")); l != "" {
		q = q.Where("resident_lot = ?", strings.ToUpper(l))
	}
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(`(LOWER(resident_first_name) LIKE ? OR LOWER(resident_last_name) LIKE ?
			OR LOWER(COALESCE(resident_account_number,'')) LIKE ? OR LOWER(COALESCE(resident_email,'')) LIKE ?)`,
			like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count residents")
	}
	var rows []model.ResidentModel
	if err := q.Order(order).Order("resident_first_name ASC").
		Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load residents")
	}
	return helper.JsonList(c, "ok", dto.ToResidentResponses(rows), helper.BuildPagination(total, p))
}

// GET /residents/:id
func (h *ResidentController) Get(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToResidentResponse(m))
}

// PUT /residents/:id
func (h *ResidentController) Update(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateResidentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	dto.ApplyResidentUpdate(m, req)
	if err := h.DB.WithContext(c.UserContext()).Save(m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update resident")
	}
	return helper.JsonUpdated(c, "resident updated", dto.ToResidentResponse(m))
}

// PUT /residents/:id/account-holder
func (h *ResidentController) SetAccountHolder(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	m, err := h.Service.SetAccountHolder(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "account holder updated", dto.ToResidentResponse(m))
}

// DELETE /residents/:id (deactivate)
func (h *ResidentController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.Service.Deactivate(c.UserContext(), id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "resident deactivated", fiber.Map{"resident_id": id})
}

func (h *ResidentController) find(c *fiber.Ctx) (*model.ResidentModel, error) {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var m model.ResidentModel
	if err := h.DB.WithContext(c.UserContext()).First(&m, "resident_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "resident not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &m, nil
}
