package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/reports/controller"
)

func ReportAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctrl := controller.NewReportController(db)

	admin.Get("/dashboard/summary", ctrl.Summary)
	admin.Get("/payments/export", ctrl.ExportPayments)
}
