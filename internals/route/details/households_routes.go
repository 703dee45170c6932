package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ResidentRoutes "hoa_backend/internals/features/households/residents/route"
)

// e.g. /api/a/residents
func HouseholdAdminRoutes(r fiber.Router, db *gorm.DB, s *Services) {
	ResidentRoutes.ResidentAdminRoutes(r, db, s.Refs)
}
