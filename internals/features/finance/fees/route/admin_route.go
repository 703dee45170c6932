package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/fees/controller"
)

func FeeAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctrl := controller.NewFeeController(db)

	fees := admin.Group("/fees")
	fees.Get("/", ctrl.List)
	fees.Post("/add", ctrl.Create)
	fees.Put("/:id", ctrl.Update)
	fees.Delete("/:id", ctrl.Delete)
}
