package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/households/residents/controller"
	"hoa_backend/internals/features/households/residents/service"
	"hoa_backend/internals/helpers/txref"
)

func ResidentAdminRoutes(admin fiber.Router, db *gorm.DB, refs *txref.Generator) {
	ctrl := controller.NewResidentController(db, service.NewResidentService(db, refs))

	r := admin.Group("/residents")
	r.Get("/", ctrl.List)
	r.Post("/", ctrl.Create)
	r.Get("/:id", ctrl.Get)
	r.Put("/:id", ctrl.Update)
	r.Put("/:id/account-holder", ctrl.SetAccountHolder)
	r.Delete("/:id", ctrl.Delete)
}
