package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	FeeInstanceRoute "hoa_backend/internals/features/finance/fee_instances/route"
	FeeRoute "hoa_backend/internals/features/finance/fees/route"
	PaymentRoute "hoa_backend/internals/features/finance/payments/route"
	ReportRoute "hoa_backend/internals/features/finance/reports/route"
)

// e.g. /api/payments/notification
func FinancePublicRoutes(r fiber.Router, db *gorm.DB, s *Services) {
	PaymentRoute.PaymentPublicRoutes(r, db, s.Payments)
}

// e.g. /api/u/payment/transaction
func FinanceUserRoutes(r fiber.Router, db *gorm.DB, s *Services) {
	FeeInstanceRoute.FeeInstanceUserRoutes(r, db)
	PaymentRoute.PaymentUserRoutes(r, db, s.Payments, s.Proofs)
}

// e.g. /api/a/fees/assign
func FinanceAdminRoutes(r fiber.Router, db *gorm.DB, s *Services) {
	FeeRoute.FeeAdminRoutes(r, db)
	FeeInstanceRoute.FeeInstanceAdminRoutes(r, db, s.Notifications)
	PaymentRoute.PaymentAdminRoutes(r, db, s.Payments)
	ReportRoute.ReportAdminRoutes(r, db)
}
