package service

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	"hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/helpers/txref"
)

type ResidentService struct {
	DB   *gorm.DB
	Refs *txref.Generator
}

func NewResidentService(db *gorm.DB, refs *txref.Generator) *ResidentService {
	if refs == nil {
		refs = txref.Default()
	}
	return &ResidentService{DB: db, Refs: refs}
}

// Create inserts a resident. When asHolder is set the resident becomes the
// household's account holder in the same transaction.
func (s *ResidentService) Create(ctx context.Context, m *model.ResidentModel, asHolder bool) error {
	if !m.ResidentKind.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid resident kind")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create resident: "+err.Error())
		}
		if asHolder {
			return s.setAccountHolderTx(tx, m)
		}
		return nil
	})
}

// SetAccountHolder makes the resident the only account holder of its
// (block, lot). Clearing the previous holder, setting the new one and moving
// the household's unsettled dues happen in one transaction, so no reader
// observes a household with zero or two holders.
func (s *ResidentService) SetAccountHolder(ctx context.Context, residentID uuid.UUID) (*model.ResidentModel, error) {
	var out model.ResidentModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&out, "resident_id = ?", residentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "resident not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !out.ResidentIsActive {
			return fiber.NewError(fiber.StatusConflict, "resident is inactive")
		}
		if out.ResidentIsAccountHolder {
			return nil
		}
		return s.setAccountHolderTx(tx, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ResidentService) setAccountHolderTx(tx *gorm.DB, m *model.ResidentModel) error {
	var household []model.ResidentModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resident_block = ? AND resident_lot = ? AND resident_id <> ?", m.ResidentBlock, m.ResidentLot, m.ResidentID).
		Find(&household).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	others := make([]uuid.UUID, 0, len(household))
	replaced := 0
	for _, r := range household {
		others = append(others, r.ResidentID)
		if r.ResidentIsAccountHolder {
			replaced++
		}
	}

	if len(others) > 0 {
		var pending int64
		if err := tx.Table("payments").
			Where("payment_account_holder_id IN ? AND payment_status = ?", others, "pending").
			Count(&pending).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if pending > 0 {
			return fiber.NewError(fiber.StatusConflict, "current account holder has a payment under review")
		}
	}

	if replaced > 0 {
		if err := tx.Model(&model.ResidentModel{}).
			Where("resident_id IN ?", others).
			Update("resident_is_account_holder", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	updates := map[string]interface{}{"resident_is_account_holder": true}
	if m.ResidentAccountNumber == nil || *m.ResidentAccountNumber == "" {
		acc := s.Refs.AccountNumber()
		m.ResidentAccountNumber = &acc
		updates["resident_account_number"] = acc
	}
	if err := tx.Model(&model.ResidentModel{}).
		Where("resident_id = ?", m.ResidentID).
		Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not set account holder: "+err.Error())
	}
	m.ResidentIsAccountHolder = true

	moved, dropped, err := transferDuesTx(tx, m.ResidentID, others)
	if err != nil {
		return err
	}

	log.Printf("[INFO] account holder of %s is now %s (replaced %d, dues moved %d, duplicates dropped %d)",
		m.Unit(), m.ResidentID, replaced, moved, dropped)
	return nil
}

type period struct {
	fee         uuid.UUID
	month, year int
}

// transferDuesTx hands the household's unsettled fee instances (unpaid or
// rejected) over to the new holder. Periods the new holder is already charged
// for are dropped, so the household owes each (fee, month, year) once. Paid
// instances stay with the resident who paid them.
func transferDuesTx(tx *gorm.DB, holderID uuid.UUID, from []uuid.UUID) (moved, dropped int, err error) {
	if len(from) == 0 {
		return 0, 0, nil
	}
	unsettled := []feeInstanceModel.PaymentStatus{feeInstanceModel.StatusUnpaid, feeInstanceModel.StatusRejected}

	var dues []feeInstanceModel.FeeInstanceModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fee_instance_account_holder_id IN ? AND fee_instance_status IN ?", from, unsettled).
		Order("fee_instance_created_at ASC").
		Find(&dues).Error; err != nil {
		return 0, 0, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if len(dues) == 0 {
		return 0, 0, nil
	}

	var owned []feeInstanceModel.FeeInstanceModel
	if err := tx.Select("fee_instance_fee_id", "fee_instance_month", "fee_instance_year").
		Where("fee_instance_account_holder_id = ?", holderID).
		Find(&owned).Error; err != nil {
		return 0, 0, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	taken := make(map[period]struct{}, len(owned)+len(dues))
	for _, o := range owned {
		taken[period{o.FeeInstanceFeeID, o.FeeInstanceMonth, o.FeeInstanceYear}] = struct{}{}
	}

	var moveIDs, dropIDs []uuid.UUID
	for _, d := range dues {
		k := period{d.FeeInstanceFeeID, d.FeeInstanceMonth, d.FeeInstanceYear}
		if _, ok := taken[k]; ok {
			dropIDs = append(dropIDs, d.FeeInstanceID)
			continue
		}
		taken[k] = struct{}{}
		moveIDs = append(moveIDs, d.FeeInstanceID)
	}

	if len(dropIDs) > 0 {
		if err := tx.Where("fee_instance_id IN ?", dropIDs).
			Delete(&feeInstanceModel.FeeInstanceModel{}).Error; err != nil {
			return 0, 0, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}
	if len(moveIDs) > 0 {
		if err := tx.Model(&feeInstanceModel.FeeInstanceModel{}).
			Where("fee_instance_id IN ?", moveIDs).
			Update("fee_instance_account_holder_id", holderID).Error; err != nil {
			return 0, 0, fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}
	return len(moveIDs), len(dropIDs), nil
}

// Deactivate marks the resident inactive and drops the holder flag. Refused
// while the resident has a payment under review. Unsettled dues stay on the
// resident until the household gets a new holder, which takes them over.
func (s *ResidentService) Deactivate(ctx context.Context, residentID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.ResidentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "resident_id = ?", residentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "resident not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		var pending int64
		if err := tx.Table("payments").
			Where("payment_account_holder_id = ? AND payment_status = ?", residentID, "pending").
			Count(&pending).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if pending > 0 {
			return fiber.NewError(fiber.StatusConflict, "resident has a payment under review")
		}

		return tx.Model(&model.ResidentModel{}).
			Where("resident_id = ?", residentID).
			Updates(map[string]interface{}{
				"resident_is_active":         false,
				"resident_is_account_holder": false,
			}).Error
	})
}
