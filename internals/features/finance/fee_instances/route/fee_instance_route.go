package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/fee_instances/controller"
	notifService "hoa_backend/internals/features/home/notifications/service"
)

func FeeInstanceAdminRoutes(admin fiber.Router, db *gorm.DB, n notifService.Notifier) {
	ctrl := controller.NewFeeInstanceController(db, n)

	admin.Post("/fees/assign", ctrl.Assign)
	admin.Get("/fees/all", ctrl.List)
	admin.Get("/fetch-account-holders", ctrl.CandidateHolders)
	admin.Post("/fee-instances/:id/reopen", ctrl.Reopen)
	admin.Get("/users/:id/fees", ctrl.UserFees)
}

func FeeInstanceUserRoutes(user fiber.Router, db *gorm.DB) {
	ctrl := controller.NewFeeInstanceController(db, nil)
	user.Get("/users/:id/fees", ctrl.UserFees)
}
