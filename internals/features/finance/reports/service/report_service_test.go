package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	paymentModel "hoa_backend/internals/features/finance/payments/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/helpers/testdb"
)

func seedHolder(t *testing.T, db *gorm.DB, lot string) residentModel.ResidentModel {
	t.Helper()
	acc := "ACC-" + lot
	r := residentModel.ResidentModel{
		ResidentFirstName:       "Ana",
		ResidentLastName:        "Reyes",
		ResidentBlock:           "2",
		ResidentLot:             lot,
		ResidentKind:            residentModel.ResidentKindOwner,
		ResidentIsAccountHolder: true,
		ResidentAccountNumber:   &acc,
		ResidentIsActive:        true,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func seedInstance(t *testing.T, db *gorm.DB, holder uuid.UUID, year, month int, st feeInstanceModel.PaymentStatus, amount string) {
	t.Helper()
	require.NoError(t, db.Create(&feeInstanceModel.FeeInstanceModel{
		FeeInstanceAccountHolderID: holder,
		FeeInstanceFeeID:           uuid.New(),
		FeeInstanceMonth:           month,
		FeeInstanceYear:            year,
		FeeInstanceFeeName:         "Monthly dues",
		FeeInstanceAmount:          decimal.RequireFromString(amount),
		FeeInstanceStatus:          st,
	}).Error)
}

func TestSummaryByMonth(t *testing.T) {
	db := testdb.Open(t)
	a := seedHolder(t, db, "1")
	b := seedHolder(t, db, "2")
	c := seedHolder(t, db, "3")

	seedInstance(t, db, a.ResidentID, 2025, 1, feeInstanceModel.StatusPaid, "500.00")
	seedInstance(t, db, b.ResidentID, 2025, 1, feeInstanceModel.StatusPending, "500.00")
	seedInstance(t, db, b.ResidentID, 2025, 2, feeInstanceModel.StatusRejected, "150.25")
	seedInstance(t, db, c.ResidentID, 2025, 2, feeInstanceModel.StatusPaid, "150.25")
	seedInstance(t, db, c.ResidentID, 2024, 12, feeInstanceModel.StatusUnpaid, "999.00")

	require.NoError(t, db.Create(&paymentModel.PaymentModel{
		PaymentTransactionReference: "TXN-100",
		PaymentAccountHolderID:      b.ResidentID,
		PaymentAmountTotal:          decimal.NewFromInt(500),
		PaymentAmountTendered:       decimal.NewFromInt(500),
		PaymentBalance:              decimal.Zero,
		PaymentMode:                 paymentModel.PaymentModeGCash,
		PaymentStatus:               paymentModel.PaymentStatusPending,
	}).Error)

	out, err := Summary(context.Background(), db, 2025)
	require.NoError(t, err)
	require.Equal(t, "650.25", out.Collected)
	require.Equal(t, "650.25", out.Outstanding)
	require.Equal(t, "500.00", out.PendingAmount)
	require.EqualValues(t, 1, out.PendingPayments)
	require.EqualValues(t, 3, out.AccountHolders)
	require.Equal(t, 1, out.HoldersWithDues)

	require.Len(t, out.Months, 12)
	require.Equal(t, "500.00", out.Months[0].Collected)
	require.Equal(t, "500.00", out.Months[0].Outstanding)
	require.Equal(t, "150.25", out.Months[1].Outstanding)
	require.Equal(t, "0.00", out.Months[11].Collected)
}

func TestExportPaymentsWorkbook(t *testing.T) {
	db := testdb.Open(t)
	h := seedHolder(t, db, "7")
	for i, st := range []paymentModel.PaymentStatus{paymentModel.PaymentStatusApproved, paymentModel.PaymentStatusRejected} {
		require.NoError(t, db.Create(&paymentModel.PaymentModel{
			PaymentTransactionReference: "TXN-" + string(rune('1'+i)),
			PaymentAccountHolderID:      h.ResidentID,
			PaymentAmountTotal:          decimal.NewFromInt(500),
			PaymentAmountTendered:       decimal.NewFromInt(600),
			PaymentBalance:              decimal.NewFromInt(100),
			PaymentMode:                 paymentModel.PaymentModeOverTheCounter,
			PaymentStatus:               st,
		}).Error)
	}

	buf, err := ExportPayments(context.Background(), db, ExportFilter{Status: paymentModel.PaymentStatusApproved})
	require.NoError(t, err)

	x, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer x.Close()

	rows, err := x.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Transaction Reference", rows[0][0])
	require.Equal(t, "TXN-1", rows[1][0])
	require.Equal(t, "ACC-7", rows[1][1])
	require.Equal(t, "Ana Reyes", rows[1][2])
	require.Equal(t, "Blk 2 Lot 7", rows[1][3])

	for col, want := range map[string]float64{"A": 26, "C": 20, "K": 18} {
		w, err := x.GetColWidth("Payments", col)
		require.NoError(t, err)
		require.Equal(t, want, w, col)
	}
	styleID, err := x.GetCellStyle("Payments", "A1")
	require.NoError(t, err)
	style, err := x.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	require.True(t, style.Font.Bold)
}
