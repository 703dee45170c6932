package controller

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hoa_backend/internals/features/home/announcements/dto"
	"hoa_backend/internals/features/home/announcements/model"
	notificationModel "hoa_backend/internals/features/home/notifications/model"
	helper "hoa_backend/internals/helpers"
)

// Broadcaster fans an announcement out as notifications.
type Broadcaster interface {
	Broadcast(ctx context.Context, kind notificationModel.NotificationKind, title, message string, ref *string) (int, error)
}

type AnnouncementController struct {
	DB          *gorm.DB
	Validator   *validator.Validate
	Broadcaster Broadcaster
}

func NewAnnouncementController(db *gorm.DB, b Broadcaster) *AnnouncementController {
	return &AnnouncementController{DB: db, Validator: validator.New(), Broadcaster: b}
}

// GET /announcements (residents see published only; admins may pass ?all=true)
func (h *AnnouncementController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "date", "desc", helper.DefaultOpts)
	order := p.SafeOrder(map[string]string{
		"date":       "announcement_date",
		"created_at": "announcement_created_at",
		"title":      "announcement_title",
	}, "date")

	q := h.DB.WithContext(c.UserContext()).Model(&model.AnnouncementModel{})
	if !(helper.IsAdmin(c) && c.QueryBool("all", false)) {
		q = q.Where("announcement_is_published = ?", true)
	}
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(announcement_title) LIKE ? OR LOWER(announcement_content) LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count announcements")
	}
	var rows []model.AnnouncementModel
	if err := q.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load announcements")
	}

	out := make([]dto.AnnouncementResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewAnnouncementResponse(&rows[i]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p))
}

// POST /announcements
func (h *AnnouncementController) Create(c *fiber.Ctx) error {
	var req dto.CreateAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var createdBy *uuid.UUID
	if uid, err := helper.GetUserIDFromToken(c); err == nil {
		createdBy = &uid
	}
	m := req.ToModel(createdBy)
	if err := h.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		log.Printf("[ERROR] create announcement: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to create announcement")
	}

	resp := dto.NewAnnouncementResponse(m)
	if req.Notify && m.AnnouncementIsPublished {
		resp.NotifiedResidents = h.broadcast(c.UserContext(), m)
	}
	return helper.JsonCreated(c, "announcement created", resp)
}

// PUT /announcements/:id
func (h *AnnouncementController) Update(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	req.ApplyToModel(m)
	if err := h.DB.WithContext(c.UserContext()).Save(m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update announcement")
	}

	resp := dto.NewAnnouncementResponse(m)
	if req.Notify && m.AnnouncementIsPublished {
		resp.NotifiedResidents = h.broadcast(c.UserContext(), m)
	}
	return helper.JsonUpdated(c, "announcement updated", resp)
}

// DELETE /announcements/:id (soft delete)
func (h *AnnouncementController) Delete(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.DB.WithContext(c.UserContext()).Delete(m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to delete announcement")
	}
	return helper.JsonDeleted(c, "announcement deleted", fiber.Map{"announcement_id": m.AnnouncementID})
}

func (h *AnnouncementController) find(c *fiber.Ctx) (*model.AnnouncementModel, error) {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var m model.AnnouncementModel
	if err := h.DB.WithContext(c.UserContext()).First(&m, "announcement_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "announcement not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &m, nil
}

func (h *AnnouncementController) broadcast(ctx context.Context, m *model.AnnouncementModel) *int {
	if h.Broadcaster == nil {
		return nil
	}
	ref := m.AnnouncementID.String()
	n, err := h.Broadcaster.Broadcast(ctx, notificationModel.NotificationKindAnnouncement, m.AnnouncementTitle, m.AnnouncementContent, &ref)
	if err != nil {
		log.Printf("[ERROR] broadcast announcement %s: %v", m.AnnouncementID, err)
		return nil
	}
	return &n
}
