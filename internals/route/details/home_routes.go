package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	AnnouncementRoutes "hoa_backend/internals/features/home/announcements/route"
	NotificationRoutes "hoa_backend/internals/features/home/notifications/route"
)

// e.g. /api/u/notifications
func HomeUserRoutes(r fiber.Router, db *gorm.DB) {
	NotificationRoutes.NotificationUserRoutes(r, db)
	AnnouncementRoutes.AnnouncementUserRoutes(r, db)
}

// e.g. /api/a/announcements
func HomeAdminRoutes(r fiber.Router, db *gorm.DB, s *Services) {
	AnnouncementRoutes.AnnouncementAdminRoutes(r, db, s.Notifications)
}
