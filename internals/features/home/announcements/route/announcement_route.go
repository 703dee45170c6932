package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/home/announcements/controller"
)

func AnnouncementUserRoutes(user fiber.Router, db *gorm.DB) {
	ctrl := controller.NewAnnouncementController(db, nil)
	user.Get("/announcements", ctrl.List)
}

func AnnouncementAdminRoutes(admin fiber.Router, db *gorm.DB, b controller.Broadcaster) {
	ctrl := controller.NewAnnouncementController(db, b)

	g := admin.Group("/announcements")
	g.Get("/", ctrl.List)
	g.Post("/", ctrl.Create)
	g.Put("/:id", ctrl.Update)
	g.Delete("/:id", ctrl.Delete)
}
