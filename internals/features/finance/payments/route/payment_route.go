package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/payments/controller"
	"hoa_backend/internals/features/finance/payments/model"
	"hoa_backend/internals/features/finance/payments/service"
	"hoa_backend/internals/helpers/oss"
)

func PaymentUserRoutes(user fiber.Router, db *gorm.DB, svc *service.PaymentService, proofs oss.ProofStore) {
	ctrl := controller.NewPaymentController(db, svc, proofs)

	user.Post("/payment/account-details", ctrl.AccountDetails)
	user.Post("/payment/transaction", ctrl.Submit)
	user.Get("/payments/history", ctrl.History)
}

func PaymentAdminRoutes(admin fiber.Router, db *gorm.DB, svc *service.PaymentService) {
	ctrl := controller.NewPaymentController(db, svc, nil)

	admin.Post("/payments/approve", ctrl.Approve)
	admin.Post("/payments/reject", ctrl.Reject)
	admin.Get("/payments/gateway-events", ctrl.GatewayEvents)
	admin.Get("/approved-payments", ctrl.ListByStatus(model.PaymentStatusApproved))
	admin.Get("/pending-payments", ctrl.ListByStatus(model.PaymentStatusPending))
	admin.Get("/rejected-payments", ctrl.ListByStatus(model.PaymentStatusRejected))
}

// PaymentPublicRoutes holds the gateway callback; it authenticates by
// signature, not by token.
func PaymentPublicRoutes(public fiber.Router, db *gorm.DB, svc *service.PaymentService) {
	ctrl := controller.NewPaymentController(db, svc, nil)
	public.Post("/payments/notification", ctrl.MidtransWebhook)
}
