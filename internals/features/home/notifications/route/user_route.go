package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/home/notifications/controller"
)

func NotificationUserRoutes(user fiber.Router, db *gorm.DB) {
	ctrl := controller.NewNotificationUserController(db)

	notification := user.Group("/notifications")
	notification.Get("/", ctrl.List)
	notification.Patch("/:id/read", ctrl.MarkAsRead)
}
