package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/fee_instances/model"
	feeModel "hoa_backend/internals/features/finance/fees/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/helpers/testdb"
)

func seedFee(t *testing.T, db *gorm.DB, name, amount string) feeModel.FeeModel {
	t.Helper()
	f := feeModel.FeeModel{FeeName: name, FeeAmount: decimal.RequireFromString(amount)}
	require.NoError(t, db.Create(&f).Error)
	return f
}

func seedHolder(t *testing.T, db *gorm.DB, block, lot string, holder, active bool) residentModel.ResidentModel {
	t.Helper()
	r := residentModel.ResidentModel{
		ResidentFirstName:       "Resident",
		ResidentLastName:        block + "-" + lot,
		ResidentBlock:           block,
		ResidentLot:             lot,
		ResidentKind:            residentModel.ResidentKindOwner,
		ResidentIsAccountHolder: holder,
		ResidentIsActive:        active,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func requireStatus(t *testing.T, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, code, fe.Code, fe.Message)
}

func TestAssignIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	fee := seedFee(t, db, "Monthly dues", "500.00")
	a := seedHolder(t, db, "1", "1", true, true)
	b := seedHolder(t, db, "1", "2", true, true)

	in := AssignInput{
		FeeID:            fee.FeeID,
		AccountHolderIDs: []uuid.UUID{a.ResidentID, b.ResidentID},
		Months:           []int{1, 2, 3},
		Year:             2025,
	}
	res, err := Assign(ctx, db, in)
	require.NoError(t, err)
	require.Equal(t, 6, res.Inserted)
	require.Zero(t, res.Skipped)
	require.Empty(t, res.RejectedHolderIDs)

	in.Months = []int{3, 4}
	res, err = Assign(ctx, db, in)
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted)
	require.Equal(t, 2, res.Skipped)

	var count int64
	require.NoError(t, db.Model(&model.FeeInstanceModel{}).Count(&count).Error)
	require.EqualValues(t, 8, count)
}

func TestAssignSnapshotsFeeAndRejectsNonHolders(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	fee := seedFee(t, db, "Garbage", "150.00")
	holder := seedHolder(t, db, "2", "1", true, true)
	member := seedHolder(t, db, "2", "1", false, true)
	inactive := seedHolder(t, db, "2", "2", false, false)

	res, err := Assign(ctx, db, AssignInput{
		FeeID:            fee.FeeID,
		AccountHolderIDs: []uuid.UUID{holder.ResidentID, member.ResidentID, inactive.ResidentID},
		Months:           []int{6},
		Year:             2025,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.ElementsMatch(t, []uuid.UUID{member.ResidentID, inactive.ResidentID}, res.RejectedHolderIDs)

	// later catalog edits do not touch issued charges
	require.NoError(t, db.Model(&feeModel.FeeModel{}).Where("fee_id = ?", fee.FeeID).
		Updates(map[string]interface{}{"fee_name": "Waste", "fee_amount": decimal.NewFromInt(999)}).Error)

	var inst model.FeeInstanceModel
	require.NoError(t, db.First(&inst, "fee_instance_account_holder_id = ?", holder.ResidentID).Error)
	require.Equal(t, "Garbage", inst.FeeInstanceFeeName)
	require.True(t, inst.FeeInstanceAmount.Equal(decimal.RequireFromString("150")))
	require.Equal(t, model.StatusUnpaid, inst.FeeInstanceStatus)
}

func TestAssignValidation(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	holder := seedHolder(t, db, "3", "1", true, true)

	_, err := Assign(ctx, db, AssignInput{FeeID: uuid.New(), Months: []int{1}, Year: 2025})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = Assign(ctx, db, AssignInput{
		FeeID:            uuid.New(),
		AccountHolderIDs: []uuid.UUID{holder.ResidentID},
		Months:           []int{1},
		Year:             2025,
	})
	requireStatus(t, err, http.StatusNotFound)
}

func TestCandidateHoldersSkipsFullyCovered(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	fee := seedFee(t, db, "Monthly dues", "500.00")
	full := seedHolder(t, db, "1", "1", true, true)
	partial := seedHolder(t, db, "1", "2", true, true)
	none := seedHolder(t, db, "1", "3", true, true)
	seedHolder(t, db, "1", "3", false, true)
	seedHolder(t, db, "1", "4", true, false)

	_, err := Assign(ctx, db, AssignInput{FeeID: fee.FeeID, AccountHolderIDs: []uuid.UUID{full.ResidentID}, Months: []int{1, 2}, Year: 2025})
	require.NoError(t, err)
	_, err = Assign(ctx, db, AssignInput{FeeID: fee.FeeID, AccountHolderIDs: []uuid.UUID{partial.ResidentID}, Months: []int{1}, Year: 2025})
	require.NoError(t, err)

	got, err := CandidateHolders(ctx, db, fee.FeeID, 2025, []int{1, 2})
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ResidentID)
	}
	require.Equal(t, []uuid.UUID{partial.ResidentID, none.ResidentID}, ids)

	// a different year is not covered by anyone
	got, err = CandidateHolders(ctx, db, fee.FeeID, 2026, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestReopenOnlyFromRejected(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	fee := seedFee(t, db, "Monthly dues", "500.00")
	holder := seedHolder(t, db, "5", "1", true, true)

	res, err := Assign(ctx, db, AssignInput{FeeID: fee.FeeID, AccountHolderIDs: []uuid.UUID{holder.ResidentID}, Months: []int{1}, Year: 2025})
	require.NoError(t, err)
	id := res.Instances[0].FeeInstanceID

	_, err = Reopen(ctx, db, id)
	requireStatus(t, err, http.StatusConflict)

	reason := "blurry receipt"
	require.NoError(t, db.Model(&model.FeeInstanceModel{}).Where("fee_instance_id = ?", id).
		Updates(map[string]interface{}{"fee_instance_status": model.StatusRejected, "fee_instance_reject_reason": reason}).Error)

	inst, err := Reopen(ctx, db, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusUnpaid, inst.FeeInstanceStatus)
	require.Nil(t, inst.FeeInstanceRejectReason)

	var stored model.FeeInstanceModel
	require.NoError(t, db.First(&stored, "fee_instance_id = ?", id).Error)
	require.Equal(t, model.StatusUnpaid, stored.FeeInstanceStatus)
	require.Nil(t, stored.FeeInstanceRejectReason)

	_, err = Reopen(ctx, db, uuid.New())
	requireStatus(t, err, http.StatusNotFound)
}
