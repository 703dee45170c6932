package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hoa_backend/internals/configs"
	"hoa_backend/internals/constants"
	paymentService "hoa_backend/internals/features/finance/payments/service"
	notifService "hoa_backend/internals/features/home/notifications/service"
	"hoa_backend/internals/helpers/oss"
	"hoa_backend/internals/middlewares"
	authMiddleware "hoa_backend/internals/middlewares/auth"
	routeDetails "hoa_backend/internals/route/details"
)

var startTime time.Time

// ServicesFromConfig builds the shared services from env config. Optional
// integrations (SMTP, Midtrans) stay nil when not configured.
func ServicesFromConfig(db *gorm.DB) (*routeDetails.Services, error) {
	opt := routeDetails.ServiceOptions{
		SnowflakeNode: configs.SnowflakeNode,
	}
	if m := notifService.NewSMTPMailerFromConfig(); m != nil {
		opt.Mailer = m
	}
	if gw := paymentService.NewMidtransGateway(configs.MidtransServerKey, configs.MidtransUseProd); gw != nil {
		opt.Gateway = gw
	}
	opt.Proofs = oss.NewProofStoreFromEnv()
	return routeDetails.NewServices(db, opt)
}

// SetupRoutes mounts every group against prebuilt services.
func SetupRoutes(app *fiber.App, db *gorm.DB, svcs *routeDetails.Services) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	// ===================== GROUPS =====================

	// PUBLIC → gateway callback, signature checked per request
	public := app.Group("/api")

	// USER → any signed-in resident or admin
	user := app.Group("/api/u",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles("access denied", constants.AllRoles...),
	)
	user.Use("/payment/transaction", middlewares.SubmitRateLimiter())

	// ADMIN
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("this endpoint"), constants.AdminOnly...),
	)

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, db, svcs)
	routeDetails.FinanceUserRoutes(user, db, svcs)
	routeDetails.FinanceAdminRoutes(admin, db, svcs)

	log.Println("[INFO] Mounting Household routes...")
	routeDetails.HouseholdAdminRoutes(admin, db, svcs)

	log.Println("[INFO] Mounting Home routes...")
	routeDetails.HomeUserRoutes(user, db)
	routeDetails.HomeAdminRoutes(admin, db, svcs)
}
