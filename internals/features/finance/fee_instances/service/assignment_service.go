package service

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hoa_backend/internals/features/finance/fee_instances/model"
	feeModel "hoa_backend/internals/features/finance/fees/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
)

type AssignInput struct {
	FeeID            uuid.UUID
	AccountHolderIDs []uuid.UUID
	Months           []int
	Year             int
}

type AssignResult struct {
	Inserted          int
	Skipped           int
	RejectedHolderIDs []uuid.UUID
	Instances         []model.FeeInstanceModel
}

// Assign issues the fee to every (holder, month). Existing (holder, fee, month,
// year) instances are left untouched, so repeating an assignment is a no-op.
// Holders that are not active account holders are reported, not assigned.
func Assign(ctx context.Context, db *gorm.DB, in AssignInput) (*AssignResult, error) {
	if len(in.AccountHolderIDs) == 0 || len(in.Months) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "account holders and months are required")
	}

	res := &AssignResult{RejectedHolderIDs: []uuid.UUID{}}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fee feeModel.FeeModel
		if err := tx.First(&fee, "fee_id = ?", in.FeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "fee not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		var holders []residentModel.ResidentModel
		if err := tx.Where("resident_id IN ? AND resident_is_account_holder = ? AND resident_is_active = ?",
			in.AccountHolderIDs, true, true).
			Find(&holders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		valid := make(map[uuid.UUID]struct{}, len(holders))
		for _, h := range holders {
			valid[h.ResidentID] = struct{}{}
		}

		for _, holderID := range in.AccountHolderIDs {
			if _, ok := valid[holderID]; !ok {
				res.RejectedHolderIDs = append(res.RejectedHolderIDs, holderID)
				continue
			}
			for _, month := range in.Months {
				inst := model.FeeInstanceModel{
					FeeInstanceAccountHolderID: holderID,
					FeeInstanceFeeID:           fee.FeeID,
					FeeInstanceMonth:           month,
					FeeInstanceYear:            in.Year,
					FeeInstanceFeeName:         fee.FeeName,
					FeeInstanceAmount:          fee.FeeAmount,
					FeeInstanceStatus:          model.StatusUnpaid,
				}
				r := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&inst)
				if r.Error != nil {
					return fiber.NewError(fiber.StatusInternalServerError, r.Error.Error())
				}
				if r.RowsAffected == 0 {
					res.Skipped++
					continue
				}
				res.Inserted++
				res.Instances = append(res.Instances, inst)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] assign fee=%s year=%d months=%v: inserted=%d skipped=%d rejected=%d",
		in.FeeID, in.Year, in.Months, res.Inserted, res.Skipped, len(res.RejectedHolderIDs))
	return res, nil
}

// CandidateHolders lists active account holders that can still receive the
// fee for the given months: holders who already have an instance for every
// requested month are left out. An empty months slice means the whole year.
func CandidateHolders(ctx context.Context, db *gorm.DB, feeID uuid.UUID, year int, months []int) ([]residentModel.ResidentModel, error) {
	if len(months) == 0 {
		months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}

	covered := db.Model(&model.FeeInstanceModel{}).
		Select("fee_instance_account_holder_id").
		Where("fee_instance_fee_id = ? AND fee_instance_year = ? AND fee_instance_month IN ?", feeID, year, months).
		Group("fee_instance_account_holder_id").
		Having("COUNT(DISTINCT fee_instance_month) >= ?", len(months))

	var out []residentModel.ResidentModel
	err := db.WithContext(ctx).
		Where("resident_is_account_holder = ? AND resident_is_active = ?", true, true).
		Where("resident_id NOT IN (?)", covered).
		Order("resident_block ASC, resident_lot ASC").
		Find(&out).Error
	return out, err
}
