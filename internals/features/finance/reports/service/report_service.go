package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	paymentModel "hoa_backend/internals/features/finance/payments/model"
	"hoa_backend/internals/features/finance/reports/dto"
	residentModel "hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/helpers/dbtime"
)

type instanceRow struct {
	HolderID uuid.UUID                      `gorm:"column:fee_instance_account_holder_id"`
	Month    int                            `gorm:"column:fee_instance_month"`
	Status   feeInstanceModel.PaymentStatus `gorm:"column:fee_instance_status"`
	Amount   decimal.Decimal                `gorm:"column:fee_instance_amount"`
}

// Summary aggregates the year's fee instances: collected is paid, outstanding
// is everything not yet paid (pending included), pending is under review.
func Summary(ctx context.Context, db *gorm.DB, year int) (*dto.DashboardSummary, error) {
	db = db.WithContext(ctx)

	var rows []instanceRow
	if err := db.Model(&feeInstanceModel.FeeInstanceModel{}).
		Select("fee_instance_account_holder_id, fee_instance_month, fee_instance_status, fee_instance_amount").
		Where("fee_instance_year = ?", year).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var collected, outstanding, pending [13]decimal.Decimal
	owing := map[uuid.UUID]struct{}{}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		switch r.Status {
		case feeInstanceModel.StatusPaid:
			collected[r.Month] = collected[r.Month].Add(r.Amount)
		case feeInstanceModel.StatusPending:
			pending[r.Month] = pending[r.Month].Add(r.Amount)
			outstanding[r.Month] = outstanding[r.Month].Add(r.Amount)
			owing[r.HolderID] = struct{}{}
		default:
			outstanding[r.Month] = outstanding[r.Month].Add(r.Amount)
			owing[r.HolderID] = struct{}{}
		}
	}

	out := &dto.DashboardSummary{Year: year, HoldersWithDues: len(owing), Months: make([]dto.MonthSummary, 0, 12)}
	totC, totO, totP := decimal.Zero, decimal.Zero, decimal.Zero
	for m := 1; m <= 12; m++ {
		totC = totC.Add(collected[m])
		totO = totO.Add(outstanding[m])
		totP = totP.Add(pending[m])
		out.Months = append(out.Months, dto.MonthSummary{
			Month:       m,
			Collected:   collected[m].StringFixed(2),
			Outstanding: outstanding[m].StringFixed(2),
			Pending:     pending[m].StringFixed(2),
		})
	}
	out.Collected = totC.StringFixed(2)
	out.Outstanding = totO.StringFixed(2)
	out.PendingAmount = totP.StringFixed(2)

	if err := db.Model(&paymentModel.PaymentModel{}).
		Where("payment_status = ?", paymentModel.PaymentStatusPending).
		Count(&out.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&residentModel.ResidentModel{}).
		Where("resident_is_account_holder = ? AND resident_is_active = ?", true, true).
		Count(&out.AccountHolders).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type ExportFilter struct {
	Status paymentModel.PaymentStatus
	Year   int
}

var exportHeader = []interface{}{
	"Transaction Reference", "Account Number", "Account Holder", "Unit", "Mode",
	"Status", "Total", "Tendered", "Balance", "Submitted At", "Reviewed At", "Reject Reason", "Items",
}

var exportColWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 26},
	{"B", "D", 20},
	{"J", "L", 18},
}

// ExportPayments renders payments as an XLSX workbook with one row per
// payment.
func ExportPayments(ctx context.Context, db *gorm.DB, f ExportFilter) (*bytes.Buffer, error) {
	db = db.WithContext(ctx)

	q := db.Model(&paymentModel.PaymentModel{})
	if f.Status != "" {
		q = q.Where("payment_status = ?", f.Status)
	}
	if f.Year > 0 {
		from := time.Date(f.Year, 1, 1, 0, 0, 0, 0, dbtime.Location())
		q = q.Where("payment_submitted_at >= ? AND payment_submitted_at < ?", from, from.AddDate(1, 0, 0))
	}
	var pays []paymentModel.PaymentModel
	if err := q.Order("payment_submitted_at ASC").Find(&pays).Error; err != nil {
		return nil, err
	}

	holders := map[uuid.UUID]residentModel.ResidentModel{}
	itemCount := map[uuid.UUID]int{}
	if len(pays) > 0 {
		hids := make([]uuid.UUID, 0, len(pays))
		pids := make([]uuid.UUID, 0, len(pays))
		for _, p := range pays {
			hids = append(hids, p.PaymentAccountHolderID)
			pids = append(pids, p.PaymentID)
		}
		var rs []residentModel.ResidentModel
		if err := db.Where("resident_id IN ?", hids).Find(&rs).Error; err != nil {
			return nil, err
		}
		for _, r := range rs {
			holders[r.ResidentID] = r
		}
		var items []paymentModel.PaymentItemModel
		if err := db.Select("payment_item_payment_id").Where("payment_item_payment_id IN ?", pids).
			Find(&items).Error; err != nil {
			return nil, err
		}
		for _, it := range items {
			itemCount[it.PaymentItemPaymentID]++
		}
	}

	x := excelize.NewFile()
	defer x.Close()
	const sheet = "Payments"
	if err := x.SetSheetName(x.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	bold, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := x.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if err := x.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, p := range pays {
		h := holders[p.PaymentAccountHolderID]
		reviewed := ""
		switch {
		case p.PaymentApprovedAt != nil:
			reviewed = dbtime.ToLocal(*p.PaymentApprovedAt).Format("2006-01-02 15:04")
		case p.PaymentRejectedAt != nil:
			reviewed = dbtime.ToLocal(*p.PaymentRejectedAt).Format("2006-01-02 15:04")
		}
		acct, reason := "", ""
		if h.ResidentAccountNumber != nil {
			acct = *h.ResidentAccountNumber
		}
		if p.PaymentRejectReason != nil {
			reason = *p.PaymentRejectReason
		}
		total, _ := p.PaymentAmountTotal.Float64()
		tendered, _ := p.PaymentAmountTendered.Float64()
		balance, _ := p.PaymentBalance.Float64()

		row := []interface{}{
			p.PaymentTransactionReference, acct, h.FullName(), h.Unit(), string(p.PaymentMode),
			string(p.PaymentStatus), total, tendered, balance,
			dbtime.ToLocal(p.PaymentSubmittedAt).Format("2006-01-02 15:04"), reviewed, reason, itemCount[p.PaymentID],
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := x.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	for _, w := range exportColWidths {
		if err := x.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return nil, err
		}
	}

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}
