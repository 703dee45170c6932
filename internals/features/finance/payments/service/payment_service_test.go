package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	feeInstanceService "hoa_backend/internals/features/finance/fee_instances/service"
	feeModel "hoa_backend/internals/features/finance/fees/model"
	"hoa_backend/internals/features/finance/payments/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
	notifModel "hoa_backend/internals/features/home/notifications/model"
	"hoa_backend/internals/helpers/inflight"
	"hoa_backend/internals/helpers/testdb"
)

type sentNotification struct {
	resident uuid.UUID
	kind     notifModel.NotificationKind
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, residentID uuid.UUID, kind notifModel.NotificationKind, _, _ string, _ *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{resident: residentID, kind: kind})
	return nil
}

type fixture struct {
	db       *gorm.DB
	svc      *PaymentService
	notifier *recordingNotifier
	holder   residentModel.ResidentModel
}

func newFixture(t *testing.T, gw Gateway) *fixture {
	t.Helper()
	db := testdb.Open(t)
	n := &recordingNotifier{}
	f := &fixture{db: db, notifier: n, svc: NewPaymentService(db, nil, nil, n, gw)}
	f.holder = f.addHolder(t, "1", "4")
	return f
}

func (f *fixture) addHolder(t *testing.T, block, lot string) residentModel.ResidentModel {
	t.Helper()
	acc := "ACC-" + block + lot
	r := residentModel.ResidentModel{
		ResidentFirstName:       "Maria",
		ResidentLastName:        "Santos",
		ResidentBlock:           block,
		ResidentLot:             lot,
		ResidentKind:            residentModel.ResidentKindOwner,
		ResidentIsAccountHolder: true,
		ResidentAccountNumber:   &acc,
		ResidentIsActive:        true,
	}
	require.NoError(t, f.db.Create(&r).Error)
	return r
}

func (f *fixture) addInstance(t *testing.T, holderID uuid.UUID, year, month int, amount string) feeInstanceModel.FeeInstanceModel {
	t.Helper()
	inst := feeInstanceModel.FeeInstanceModel{
		FeeInstanceAccountHolderID: holderID,
		FeeInstanceFeeID:           uuid.New(),
		FeeInstanceMonth:           month,
		FeeInstanceYear:            year,
		FeeInstanceFeeName:         "Monthly dues",
		FeeInstanceAmount:          decimal.RequireFromString(amount),
	}
	require.NoError(t, f.db.Create(&inst).Error)
	return inst
}

func (f *fixture) status(t *testing.T, id uuid.UUID) feeInstanceModel.PaymentStatus {
	t.Helper()
	var inst feeInstanceModel.FeeInstanceModel
	require.NoError(t, f.db.First(&inst, "fee_instance_id = ?", id).Error)
	return inst.FeeInstanceStatus
}

func (f *fixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.PaymentModel{}).Count(&n).Error)
	return n
}

func requireStatus(t *testing.T, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, code, fe.Code, fe.Message)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAccountDetailsIncludesArrearsAndPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	old := f.addInstance(t, f.holder.ResidentID, 2024, 12, "100.00")
	jan := f.addInstance(t, f.holder.ResidentID, 2025, 1, "250.50")
	f.addInstance(t, f.holder.ResidentID, 2025, 3, "400.00")

	d, err := f.svc.AccountDetails(ctx, f.holder.ResidentID, 2025, 2)
	require.NoError(t, err)
	require.Len(t, d.Items, 2)
	require.Equal(t, old.FeeInstanceID, d.Items[0].FeeInstanceID)
	require.Equal(t, jan.FeeInstanceID, d.Items[1].FeeInstanceID)
	require.Equal(t, "350.50", d.TotalDue.StringFixed(2))
	require.Nil(t, d.PendingRef)

	pay, _, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{old.FeeInstanceID},
		AmountTendered:  amount("100"),
		Mode:            model.PaymentModeGCash,
	})
	require.NoError(t, err)

	d, err = f.svc.AccountDetails(ctx, f.holder.ResidentID, 2025, 2)
	require.NoError(t, err)
	require.NotNil(t, d.PendingRef)
	require.Equal(t, pay.PaymentTransactionReference, *d.PendingRef)
	// pending items still count as due until approved
	require.Equal(t, "350.50", d.TotalDue.StringFixed(2))
}

func TestAccountDetailsRequiresAccountHolder(t *testing.T) {
	f := newFixture(t, nil)
	member := residentModel.ResidentModel{
		ResidentFirstName: "Jose",
		ResidentLastName:  "Santos",
		ResidentBlock:     "1",
		ResidentLot:       "4",
		ResidentKind:      residentModel.ResidentKindMember,
		ResidentIsActive:  true,
	}
	require.NoError(t, f.db.Create(&member).Error)

	_, err := f.svc.AccountDetails(context.Background(), member.ResidentID, 2025, 1)
	requireStatus(t, err, http.StatusForbidden)
}

func TestSubmitThroughMonthSettlesEverythingDue(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.addInstance(t, f.holder.ResidentID, 2024, 11, "500.00")
	b := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	later := f.addInstance(t, f.holder.ResidentID, 2025, 4, "500.00")

	pay, items, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		Year:            2025,
		ThroughMonth:    3,
		AmountTendered:  amount("1200"),
		Mode:            model.PaymentModeOverTheCounter,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, model.PaymentStatusPending, pay.PaymentStatus)
	require.Equal(t, "1000.00", pay.PaymentAmountTotal.StringFixed(2))
	require.Equal(t, "200.00", pay.PaymentBalance.StringFixed(2))
	require.Regexp(t, `^TXN-\d+$`, pay.PaymentTransactionReference)

	require.Equal(t, feeInstanceModel.StatusPending, f.status(t, a.FeeInstanceID))
	require.Equal(t, feeInstanceModel.StatusPending, f.status(t, b.FeeInstanceID))
	require.Equal(t, feeInstanceModel.StatusUnpaid, f.status(t, later.FeeInstanceID))

	var stored feeInstanceModel.FeeInstanceModel
	require.NoError(t, f.db.First(&stored, "fee_instance_id = ?", a.FeeInstanceID).Error)
	require.NotNil(t, stored.FeeInstancePaymentID)
	require.Equal(t, pay.PaymentID, *stored.FeeInstancePaymentID)
	require.Equal(t, pay.PaymentTransactionReference, *stored.FeeInstanceTransactionReference)
	require.Equal(t, "over_the_counter", *stored.FeeInstanceModeOfPayment)
}

func TestSubmitRejectionsWriteNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inst := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	other := f.addHolder(t, "9", "9")
	foreign := f.addInstance(t, other.ResidentID, 2025, 1, "500.00")

	base := SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{inst.FeeInstanceID},
		AmountTendered:  amount("500"),
		Mode:            model.PaymentModeGCash,
	}

	in := base
	in.AmountTendered = amount("499.99")
	_, _, err := f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusBadRequest)
	require.Contains(t, err.Error(), "insufficient amount")

	in = base
	in.FeeInstanceIDs = nil
	_, _, err = f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusBadRequest)
	require.Contains(t, err.Error(), "no payment selected")

	in = base
	in.FeeInstanceIDs = []uuid.UUID{inst.FeeInstanceID, foreign.FeeInstanceID}
	_, _, err = f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusForbidden)

	in = base
	in.FeeInstanceIDs = []uuid.UUID{uuid.New()}
	_, _, err = f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusNotFound)

	in = base
	in.Mode = model.PaymentMode("cheque")
	_, _, err = f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusBadRequest)

	in = base
	in.Mode = model.PaymentModeOnline
	_, _, err = f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusBadRequest)

	// nothing due in the requested window
	in = base
	in.FeeInstanceIDs = nil
	in.Year, in.ThroughMonth = 2024, 12
	_, _, err = f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusBadRequest)

	require.Zero(t, f.paymentCount(t))
	require.Equal(t, feeInstanceModel.StatusUnpaid, f.status(t, inst.FeeInstanceID))
	require.Equal(t, feeInstanceModel.StatusUnpaid, f.status(t, foreign.FeeInstanceID))
}

func TestSubmitRefusedWhileAnotherPaymentPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	jan := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	feb := f.addInstance(t, f.holder.ResidentID, 2025, 2, "500.00")

	_, _, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{jan.FeeInstanceID},
		AmountTendered:  amount("500"),
		Mode:            model.PaymentModeGCash,
	})
	require.NoError(t, err)

	_, _, err = f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{feb.FeeInstanceID},
		AmountTendered:  amount("500"),
		Mode:            model.PaymentModeGCash,
	})
	requireStatus(t, err, http.StatusConflict)
	require.EqualValues(t, 1, f.paymentCount(t))
	require.Equal(t, feeInstanceModel.StatusUnpaid, f.status(t, feb.FeeInstanceID))
}

func TestApproveMarksInstancesPaidAndNotifies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	jan := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	feb := f.addInstance(t, f.holder.ResidentID, 2025, 2, "500.00")

	pay, _, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{jan.FeeInstanceID, feb.FeeInstanceID},
		AmountTendered:  amount("1000"),
		Mode:            model.PaymentModeGCash,
	})
	require.NoError(t, err)

	admin := uuid.New()
	got, err := f.svc.Approve(ctx, pay.PaymentTransactionReference, &admin)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusApproved, got.PaymentStatus)
	require.NotNil(t, got.PaymentApprovedAt)
	require.Equal(t, admin, *got.PaymentReviewedBy)

	require.Equal(t, feeInstanceModel.StatusPaid, f.status(t, jan.FeeInstanceID))
	require.Equal(t, feeInstanceModel.StatusPaid, f.status(t, feb.FeeInstanceID))

	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, f.holder.ResidentID, f.notifier.sent[0].resident)
	require.Equal(t, notifModel.NotificationKindPaymentApproved, f.notifier.sent[0].kind)

	// paid is terminal
	_, err = f.svc.Reject(ctx, pay.PaymentTransactionReference, "late", &admin)
	requireStatus(t, err, http.StatusConflict)
	_, err = f.svc.Approve(ctx, "TXN-unknown", &admin)
	requireStatus(t, err, http.StatusNotFound)
}

func TestCatalogFeeRoundTripToPaid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	fee := feeModel.FeeModel{FeeName: "Monthly dues", FeeAmount: amount("250.00")}
	require.NoError(t, f.db.Create(&fee).Error)

	res, err := feeInstanceService.Assign(ctx, f.db, feeInstanceService.AssignInput{
		FeeID:            fee.FeeID,
		AccountHolderIDs: []uuid.UUID{f.holder.ResidentID},
		Months:           []int{3},
		Year:             2025,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	inst := res.Instances[0]

	pay, _, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{inst.FeeInstanceID},
		AmountTendered:  amount("250"),
		Mode:            model.PaymentModeOverTheCounter,
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, pay.PaymentTransactionReference, nil)
	require.NoError(t, err)

	var stored feeInstanceModel.FeeInstanceModel
	require.NoError(t, f.db.First(&stored, "fee_instance_id = ?", inst.FeeInstanceID).Error)
	require.Equal(t, feeInstanceModel.StatusPaid, stored.FeeInstanceStatus)
	require.NotNil(t, stored.FeeInstanceTransactionReference)
	require.NotEmpty(t, *stored.FeeInstanceTransactionReference)
	require.Equal(t, "250.00", stored.FeeInstanceAmount.StringFixed(2))
}

func TestConcurrentApproveSucceedsOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inst := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")

	pay, _, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{inst.FeeInstanceID},
		AmountTendered:  amount("500"),
		Mode:            model.PaymentModeGCash,
	})
	require.NoError(t, err)

	// separate services so the in-memory guard does not short-circuit
	other := NewPaymentService(f.db, nil, nil, f.notifier, nil)
	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, s := range []*PaymentService{f.svc, other} {
		wg.Add(1)
		go func(i int, s *PaymentService) {
			defer wg.Done()
			_, errs[i] = s.Approve(ctx, pay.PaymentTransactionReference, nil)
		}(i, s)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireStatus(t, err, http.StatusConflict)
	}
	require.Equal(t, 1, ok)
	require.Equal(t, feeInstanceModel.StatusPaid, f.status(t, inst.FeeInstanceID))
	require.Len(t, f.notifier.sent, 1)
}

func TestRejectThenResubmit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inst := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	admin := uuid.New()

	submit := func() *model.PaymentModel {
		pay, _, err := f.svc.Submit(ctx, SubmitInput{
			AccountHolderID: f.holder.ResidentID,
			FeeInstanceIDs:  []uuid.UUID{inst.FeeInstanceID},
			AmountTendered:  amount("500"),
			Mode:            model.PaymentModeGCash,
		})
		require.NoError(t, err)
		return pay
	}

	first := submit()
	_, err := f.svc.Reject(ctx, first.PaymentTransactionReference, "   ", &admin)
	requireStatus(t, err, http.StatusBadRequest)
	require.Equal(t, feeInstanceModel.StatusPending, f.status(t, inst.FeeInstanceID))

	got, err := f.svc.Reject(ctx, first.PaymentTransactionReference, "Receipt unreadable", &admin)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusRejected, got.PaymentStatus)
	require.Equal(t, "Receipt unreadable", *got.PaymentRejectReason)

	var stored feeInstanceModel.FeeInstanceModel
	require.NoError(t, f.db.First(&stored, "fee_instance_id = ?", inst.FeeInstanceID).Error)
	require.Equal(t, feeInstanceModel.StatusRejected, stored.FeeInstanceStatus)
	require.Equal(t, "Receipt unreadable", *stored.FeeInstanceRejectReason)

	second := submit()
	require.NotEqual(t, first.PaymentTransactionReference, second.PaymentTransactionReference)

	require.NoError(t, f.db.First(&stored, "fee_instance_id = ?", inst.FeeInstanceID).Error)
	require.Equal(t, feeInstanceModel.StatusPending, stored.FeeInstanceStatus)
	require.Nil(t, stored.FeeInstanceRejectReason)
	require.Equal(t, second.PaymentID, *stored.FeeInstancePaymentID)

	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, notifModel.NotificationKindPaymentRejected, f.notifier.sent[0].kind)
}

func TestPanicDuringReviewDoesNotWedgeTracker(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inst := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	pay, _, err := f.svc.Submit(ctx, SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{inst.FeeInstanceID},
		AmountTendered:  amount("500"),
		Mode:            model.PaymentModeGCash,
	})
	require.NoError(t, err)
	ref := pay.PaymentTransactionReference

	cb := f.db.Callback().Update()
	require.NoError(t, cb.Before("gorm:update").Register("test:panic_payments", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			panic("driver crashed")
		}
	}))
	require.Panics(t, func() { _, _ = f.svc.Approve(ctx, ref, nil) })
	require.Equal(t, inflight.Failed, f.svc.Tracker.State("review:"+ref))

	require.NoError(t, cb.Remove("test:panic_payments"))
	_, err = f.svc.Approve(ctx, ref, nil)
	require.NoError(t, err)
	require.Equal(t, feeInstanceModel.StatusPaid, f.status(t, inst.FeeInstanceID))
}
