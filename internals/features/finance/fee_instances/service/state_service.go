package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hoa_backend/internals/features/finance/fee_instances/model"
)

// Reopen returns a rejected instance to unpaid and clears the rejection.
func Reopen(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.FeeInstanceModel, error) {
	var inst model.FeeInstanceModel
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&inst, "fee_instance_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "fee instance not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		next, err := model.Transition(inst.FeeInstanceStatus, model.EventReopen)
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		res := tx.Model(&model.FeeInstanceModel{}).
			Where("fee_instance_id = ? AND fee_instance_status = ?", id, inst.FeeInstanceStatus).
			Updates(map[string]interface{}{
				"fee_instance_status":        next,
				"fee_instance_reject_reason": nil,
			})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, res.Error.Error())
		}
		if res.RowsAffected != 1 {
			return fiber.NewError(fiber.StatusConflict, "fee instance changed concurrently")
		}
		inst.FeeInstanceStatus = next
		inst.FeeInstanceRejectReason = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
