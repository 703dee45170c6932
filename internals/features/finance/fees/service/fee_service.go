package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	"hoa_backend/internals/features/finance/fees/model"
)

// Delete soft-deletes the catalog entry. Unsettled instances (unpaid or
// rejected) go with it; paid instances stay as history. Refused while any
// instance of the fee is under review. It returns how many instances were
// removed.
func Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	var removed int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.FeeModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "fee_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "fee not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		var pending int64
		if err := tx.Model(&feeInstanceModel.FeeInstanceModel{}).
			Where("fee_instance_fee_id = ? AND fee_instance_status = ?", id, feeInstanceModel.StatusPending).
			Count(&pending).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if pending > 0 {
			return fiber.NewError(fiber.StatusConflict, "fee has payments under review")
		}

		res := tx.Where("fee_instance_fee_id = ? AND fee_instance_status IN ?", id,
			[]feeInstanceModel.PaymentStatus{feeInstanceModel.StatusUnpaid, feeInstanceModel.StatusRejected}).
			Delete(&feeInstanceModel.FeeInstanceModel{})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, res.Error.Error())
		}
		removed = res.RowsAffected

		if err := tx.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
