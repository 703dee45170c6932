package controller

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentModel "hoa_backend/internals/features/finance/payments/model"
	"hoa_backend/internals/features/finance/reports/service"
	helper "hoa_backend/internals/helpers"
	"hoa_backend/internals/helpers/dbtime"
)

type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// GET /dashboard/summary?year=
func (h *ReportController) Summary(c *fiber.Ctx) error {
	curYear, _ := dbtime.CurrentPeriod()
	year := c.QueryInt("year", curYear)
	if year < 2000 || year > 2100 {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid year")
	}
	out, err := service.Summary(c.UserContext(), h.DB, year)
	if err != nil {
		log.Printf("[ERROR] dashboard summary %d: %v", year, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to build summary")
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /payments/export?status=&year=
func (h *ReportController) ExportPayments(c *fiber.Ctx) error {
	f := service.ExportFilter{Year: c.QueryInt("year", 0)}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		f.Status = paymentModel.PaymentStatus(strings.ToLower(s))
		if !f.Status.Valid() {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid status")
		}
	}

	buf, err := service.ExportPayments(c.UserContext(), h.DB, f)
	if err != nil {
		log.Printf("[ERROR] export payments: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to export payments")
	}

	name := "payments"
	if f.Status != "" {
		name += "-" + string(f.Status)
	}
	if f.Year > 0 {
		name += fmt.Sprintf("-%d", f.Year)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	return c.Send(buf.Bytes())
}
