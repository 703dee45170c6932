package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/home/notifications/dto"
	"hoa_backend/internals/features/home/notifications/model"
	helper "hoa_backend/internals/helpers"
)

type NotificationUserController struct {
	DB *gorm.DB
}

func NewNotificationUserController(db *gorm.DB) *NotificationUserController {
	return &NotificationUserController{DB: db}
}

// GET /api/u/notifications?unread=true
func (ctrl *NotificationUserController) List(c *fiber.Ctx) error {
	residentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ParseFiber(c, "sent_at", "desc", helper.DefaultOpts)
	order := p.SafeOrder(map[string]string{
		"sent_at": "notification_users_sent_at",
	}, "sent_at")

	q := ctrl.DB.WithContext(c.UserContext()).Model(&model.NotificationUserModel{}).
		Where("notification_users_resident_id = ?", residentID)
	if c.QueryBool("unread", false) {
		q = q.Where("notification_users_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count notifications")
	}

	var rows []model.NotificationUserModel
	if err := q.Preload("Notification").
		Order(order).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] list notifications resident=%s: %v", residentID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load notifications")
	}

	return helper.JsonList(c, "ok", dto.ToNotificationUserResponseList(rows), helper.BuildPagination(total, p))
}

// PATCH /api/u/notifications/:id/read
func (ctrl *NotificationUserController) MarkAsRead(c *fiber.Ctx) error {
	residentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	now := time.Now()
	res := ctrl.DB.WithContext(c.UserContext()).Model(&model.NotificationUserModel{}).
		Where("notification_users_id = ? AND notification_users_resident_id = ?", id, residentID).
		Updates(map[string]interface{}{
			"notification_users_read":    true,
			"notification_users_read_at": now,
		})
	if res.Error != nil {
		log.Printf("[ERROR] mark notification read: %v", res.Error)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update notification")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "notification not found")
	}
	return helper.JsonUpdated(c, "notification marked as read", fiber.Map{"notification_users_id": id})
}
