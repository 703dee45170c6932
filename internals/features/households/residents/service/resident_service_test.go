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

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	paymentModel "hoa_backend/internals/features/finance/payments/model"
	"hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/helpers/testdb"
)

func newResident(first, block, lot string) *model.ResidentModel {
	return &model.ResidentModel{
		ResidentFirstName: first,
		ResidentLastName:  "Dela Cruz",
		ResidentBlock:     block,
		ResidentLot:       lot,
		ResidentKind:      model.ResidentKindOwner,
		ResidentIsActive:  true,
	}
}

func holdersOf(t *testing.T, db *gorm.DB, block, lot string) []model.ResidentModel {
	t.Helper()
	var out []model.ResidentModel
	require.NoError(t, db.Where("resident_block = ? AND resident_lot = ? AND resident_is_account_holder = ?", block, lot, true).
		Find(&out).Error)
	return out
}

func addDue(t *testing.T, db *gorm.DB, holderID, feeID uuid.UUID, month int, amount string, status feeInstanceModel.PaymentStatus) feeInstanceModel.FeeInstanceModel {
	t.Helper()
	inst := feeInstanceModel.FeeInstanceModel{
		FeeInstanceAccountHolderID: holderID,
		FeeInstanceFeeID:           feeID,
		FeeInstanceMonth:           month,
		FeeInstanceYear:            2025,
		FeeInstanceFeeName:         "Monthly dues",
		FeeInstanceAmount:          decimal.RequireFromString(amount),
		FeeInstanceStatus:          status,
	}
	require.NoError(t, db.Create(&inst).Error)
	return inst
}

func instancesOf(t *testing.T, db *gorm.DB, holderID uuid.UUID) []feeInstanceModel.FeeInstanceModel {
	t.Helper()
	var out []feeInstanceModel.FeeInstanceModel
	require.NoError(t, db.Where("fee_instance_account_holder_id = ?", holderID).
		Order("fee_instance_month ASC").
		Find(&out).Error)
	return out
}

func requireStatus(t *testing.T, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, code, fe.Code, fe.Message)
}

func TestCreateAccountHolderGetsAccountNumber(t *testing.T) {
	db := testdb.Open(t)
	svc := NewResidentService(db, nil)

	r := newResident("Maria", "1", "4")
	require.NoError(t, svc.Create(context.Background(), r, true))
	require.True(t, r.ResidentIsAccountHolder)
	require.NotNil(t, r.ResidentAccountNumber)
	require.Regexp(t, `^ACC-[0-9A-Z]+$`, *r.ResidentAccountNumber)

	holders := holdersOf(t, db, "1", "4")
	require.Len(t, holders, 1)
	require.Equal(t, r.ResidentID, holders[0].ResidentID)
}

func TestSetAccountHolderKeepsOnePerHousehold(t *testing.T) {
	db := testdb.Open(t)
	svc := NewResidentService(db, nil)
	ctx := context.Background()

	first := newResident("Maria", "2", "11")
	second := newResident("Jose", "2", "11")
	neighbour := newResident("Ana", "2", "12")
	require.NoError(t, svc.Create(ctx, first, true))
	require.NoError(t, svc.Create(ctx, second, false))
	require.NoError(t, svc.Create(ctx, neighbour, true))

	got, err := svc.SetAccountHolder(ctx, second.ResidentID)
	require.NoError(t, err)
	require.True(t, got.ResidentIsAccountHolder)

	holders := holdersOf(t, db, "2", "11")
	require.Len(t, holders, 1)
	require.Equal(t, second.ResidentID, holders[0].ResidentID)

	// other units are untouched
	require.Len(t, holdersOf(t, db, "2", "12"), 1)
}

func TestSetAccountHolderRefusedWhilePaymentPending(t *testing.T) {
	db := testdb.Open(t)
	svc := NewResidentService(db, nil)
	ctx := context.Background()

	holder := newResident("Maria", "3", "7")
	other := newResident("Jose", "3", "7")
	require.NoError(t, svc.Create(ctx, holder, true))
	require.NoError(t, svc.Create(ctx, other, false))

	require.NoError(t, db.Create(&paymentModel.PaymentModel{
		PaymentTransactionReference: "TXN-1",
		PaymentAccountHolderID:      holder.ResidentID,
		PaymentAmountTotal:          decimal.NewFromInt(100),
		PaymentAmountTendered:       decimal.NewFromInt(100),
		PaymentBalance:              decimal.Zero,
		PaymentMode:                 paymentModel.PaymentModeGCash,
		PaymentStatus:               paymentModel.PaymentStatusPending,
	}).Error)

	_, err := svc.SetAccountHolder(ctx, other.ResidentID)
	requireStatus(t, err, http.StatusConflict)

	err = svc.Deactivate(ctx, holder.ResidentID)
	requireStatus(t, err, http.StatusConflict)
}

func TestDeactivateDropsHolderFlag(t *testing.T) {
	db := testdb.Open(t)
	svc := NewResidentService(db, nil)
	ctx := context.Background()

	r := newResident("Paolo", "4", "1")
	require.NoError(t, svc.Create(ctx, r, true))
	require.NoError(t, svc.Deactivate(ctx, r.ResidentID))

	var got model.ResidentModel
	require.NoError(t, db.First(&got, "resident_id = ?", r.ResidentID).Error)
	require.False(t, got.ResidentIsActive)
	require.False(t, got.ResidentIsAccountHolder)

	_, err := svc.SetAccountHolder(ctx, r.ResidentID)
	requireStatus(t, err, http.StatusConflict)
}

func TestSetAccountHolderTakesOverHouseholdDues(t *testing.T) {
	db := testdb.Open(t)
	svc := NewResidentService(db, nil)
	ctx := context.Background()

	maria := newResident("Maria", "5", "2")
	jose := newResident("Jose", "5", "2")
	neighbour := newResident("Ana", "5", "3")
	require.NoError(t, svc.Create(ctx, maria, true))
	require.NoError(t, svc.Create(ctx, jose, false))
	require.NoError(t, svc.Create(ctx, neighbour, true))

	fee := uuid.New()
	jan := addDue(t, db, maria.ResidentID, fee, 1, "300.00", feeInstanceModel.StatusUnpaid)
	addDue(t, db, maria.ResidentID, fee, 2, "300.00", feeInstanceModel.StatusRejected)
	mar := addDue(t, db, maria.ResidentID, fee, 3, "300.00", feeInstanceModel.StatusPaid)
	// Jose was already charged for February
	feb := addDue(t, db, jose.ResidentID, fee, 2, "300.00", feeInstanceModel.StatusUnpaid)
	other := addDue(t, db, neighbour.ResidentID, fee, 1, "300.00", feeInstanceModel.StatusUnpaid)

	_, err := svc.SetAccountHolder(ctx, jose.ResidentID)
	require.NoError(t, err)

	got := instancesOf(t, db, jose.ResidentID)
	require.Len(t, got, 2)
	require.Equal(t, jan.FeeInstanceID, got[0].FeeInstanceID)
	require.Equal(t, feb.FeeInstanceID, got[1].FeeInstanceID)
	require.Equal(t, "600.00", feeInstanceModel.SumDueThrough(got, 2025, 12).StringFixed(2))

	// paid history stays with the payer, the duplicate February is gone
	left := instancesOf(t, db, maria.ResidentID)
	require.Len(t, left, 1)
	require.Equal(t, mar.FeeInstanceID, left[0].FeeInstanceID)

	require.Len(t, instancesOf(t, db, neighbour.ResidentID), 1)
	require.Equal(t, other.FeeInstanceID, instancesOf(t, db, neighbour.ResidentID)[0].FeeInstanceID)
}

func TestNextHolderTakesOverDeactivatedHoldersDues(t *testing.T) {
	db := testdb.Open(t)
	svc := NewResidentService(db, nil)
	ctx := context.Background()

	maria := newResident("Maria", "6", "8")
	jose := newResident("Jose", "6", "8")
	require.NoError(t, svc.Create(ctx, maria, true))
	require.NoError(t, svc.Create(ctx, jose, false))
	due := addDue(t, db, maria.ResidentID, uuid.New(), 4, "450.00", feeInstanceModel.StatusUnpaid)

	require.NoError(t, svc.Deactivate(ctx, maria.ResidentID))
	require.Empty(t, holdersOf(t, db, "6", "8"))

	_, err := svc.SetAccountHolder(ctx, jose.ResidentID)
	require.NoError(t, err)

	got := instancesOf(t, db, jose.ResidentID)
	require.Len(t, got, 1)
	require.Equal(t, due.FeeInstanceID, got[0].FeeInstanceID)
	require.Equal(t, feeInstanceModel.StatusUnpaid, got[0].FeeInstanceStatus)
	require.Empty(t, instancesOf(t, db, maria.ResidentID))
}
