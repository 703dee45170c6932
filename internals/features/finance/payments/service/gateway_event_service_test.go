package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	"hoa_backend/internals/features/finance/payments/dto"
	"hoa_backend/internals/features/finance/payments/model"
)

const testServerKey = "SB-Mid-server-test"

type fakeGateway struct {
	checkouts []CheckoutRequest
	fail      bool
}

func (g *fakeGateway) Provider() model.PaymentGatewayProvider { return model.GatewayProviderMidtrans }

func (g *fakeGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	if g.fail {
		return nil, errors.New("gateway down")
	}
	g.checkouts = append(g.checkouts, req)
	return &Checkout{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

func (g *fakeGateway) VerifyNotification(n dto.MidtransNotification) bool {
	return n.SignatureKey == NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
}

func signed(orderID, status, gross string) dto.MidtransNotification {
	n := dto.MidtransNotification{
		OrderID:           orderID,
		TransactionStatus: status,
		StatusCode:        "200",
		GrossAmount:       gross,
		TransactionID:     uuid.NewString(),
	}
	n.SignatureKey = NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func submitOnline(t *testing.T, f *fixture, amounts ...string) *model.PaymentModel {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(amounts))
	for i, a := range amounts {
		ids = append(ids, f.addInstance(t, f.holder.ResidentID, 2025, i+1, a).FeeInstanceID)
	}
	pay, _, err := f.svc.Submit(context.Background(), SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  ids,
		Mode:            model.PaymentModeOnline,
	})
	require.NoError(t, err)
	return pay
}

func TestMapMidtransStatus(t *testing.T) {
	cases := map[string]struct {
		status, fraud string
		want          GatewayAction
	}{
		"settlement":        {"settlement", "", GatewayApprove},
		"capture accepted":  {"capture", "accept", GatewayApprove},
		"capture challenge": {"capture", "challenge", GatewayNoop},
		"capture denied":    {"capture", "deny", GatewayReject},
		"pending":           {"pending", "", GatewayNoop},
		"expire":            {"expire", "", GatewayReject},
		"cancel":            {"CANCEL", "", GatewayReject},
	}
	for name, tc := range cases {
		got := MapMidtransStatus(dto.MidtransNotification{TransactionStatus: tc.status, FraudStatus: tc.fraud})
		require.Equal(t, tc.want, got, name)
	}
}

func TestMidtransGatewayVerifiesSignature(t *testing.T) {
	require.Nil(t, NewMidtransGateway("  ", false))

	gw := NewMidtransGateway(testServerKey, false)
	require.NotNil(t, gw)

	n := signed("TXN-1", "settlement", "500.00")
	require.True(t, gw.VerifyNotification(n))

	n.GrossAmount = "1.00"
	require.False(t, gw.VerifyNotification(n))

	n = signed("TXN-1", "settlement", "500.00")
	n.SignatureKey = strings.ToUpper(n.SignatureKey)
	require.True(t, gw.VerifyNotification(n))
	n.SignatureKey = n.SignatureKey[:len(n.SignatureKey)-1]
	require.False(t, gw.VerifyNotification(n))

	n.SignatureKey = ""
	require.False(t, gw.VerifyNotification(n))
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	require.Equal(t, "HOA dues", truncate("HOA dues", 50))
	require.Equal(t, "Dues Blk 3 Lot 12 Peñ", truncate("Dues Blk 3 Lot 12 Peñafrancia", 21))
	require.Equal(t, "ñññ", truncate("ññññ", 3))
	require.Equal(t, "abc", truncate("abc", 0))
}

func TestOnlineSubmitCreatesCheckout(t *testing.T) {
	gw := &fakeGateway{}
	f := newFixture(t, gw)

	pay := submitOnline(t, f, "250.00", "250.00")
	require.Len(t, gw.checkouts, 1)
	require.Equal(t, pay.PaymentTransactionReference, gw.checkouts[0].OrderID)
	require.Equal(t, "500.00", gw.checkouts[0].Amount.StringFixed(2))

	// online payments are exact
	require.Equal(t, "500.00", pay.PaymentAmountTendered.StringFixed(2))
	require.True(t, pay.PaymentBalance.IsZero())

	var stored model.PaymentModel
	require.NoError(t, f.db.First(&stored, "payment_id = ?", pay.PaymentID).Error)
	require.Equal(t, "snap-token", *stored.PaymentGatewayToken)
	require.NotNil(t, stored.PaymentCheckoutURL)
}

func TestOnlineSubmitReleasesPaymentWhenGatewayFails(t *testing.T) {
	gw := &fakeGateway{fail: true}
	f := newFixture(t, gw)
	ctx := context.Background()
	inst := f.addInstance(t, f.holder.ResidentID, 2025, 1, "500.00")
	in := SubmitInput{
		AccountHolderID: f.holder.ResidentID,
		FeeInstanceIDs:  []uuid.UUID{inst.FeeInstanceID},
		Mode:            model.PaymentModeOnline,
	}

	_, _, err := f.svc.Submit(ctx, in)
	requireStatus(t, err, http.StatusBadGateway)

	var failed model.PaymentModel
	require.NoError(t, f.db.First(&failed, "payment_account_holder_id = ?", f.holder.ResidentID).Error)
	require.Equal(t, model.PaymentStatusRejected, failed.PaymentStatus)
	require.Equal(t, CheckoutFailedReason, *failed.PaymentRejectReason)
	require.Nil(t, failed.PaymentGatewayToken)
	require.Equal(t, feeInstanceModel.StatusRejected, f.status(t, inst.FeeInstanceID))

	// the pending slot is free again
	gw.fail = false
	pay, _, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, failed.PaymentTransactionReference, pay.PaymentTransactionReference)
	require.Equal(t, "snap-token", *pay.PaymentGatewayToken)
	require.Equal(t, feeInstanceModel.StatusPending, f.status(t, inst.FeeInstanceID))
}

func TestNotificationSettlementApproves(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()
	pay := submitOnline(t, f, "500.00")

	out, err := f.svc.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "500.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.GatewayEventStatusProcessed, out.EventStatus)
	require.Equal(t, model.PaymentStatusApproved, out.PaymentStatus)

	var stored model.PaymentModel
	require.NoError(t, f.db.First(&stored, "payment_id = ?", pay.PaymentID).Error)
	require.Equal(t, model.PaymentStatusApproved, stored.PaymentStatus)
	require.Nil(t, stored.PaymentReviewedBy)

	// redelivery is recorded and ignored
	out, err = f.svc.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "500.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.GatewayEventStatusIgnored, out.EventStatus)

	var events []model.PaymentGatewayEventModel
	require.NoError(t, f.db.Where("gateway_event_payment_id = ?", pay.PaymentID).Find(&events).Error)
	require.Len(t, events, 2)
	byStatus := map[model.GatewayEventStatus]int{}
	for _, ev := range events {
		byStatus[ev.GatewayEventStatus]++
		require.NotNil(t, ev.GatewayEventProcessedAt)
	}
	require.Equal(t, 1, byStatus[model.GatewayEventStatusProcessed])
	require.Equal(t, 1, byStatus[model.GatewayEventStatusIgnored])
}

func TestNotificationExpireRejects(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	pay := submitOnline(t, f, "500.00")

	out, err := f.svc.HandleMidtransNotification(context.Background(), signed(pay.PaymentTransactionReference, "expire", "500.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusRejected, out.PaymentStatus)

	var stored model.PaymentModel
	require.NoError(t, f.db.First(&stored, "payment_id = ?", pay.PaymentID).Error)
	require.Equal(t, "gateway: expire", *stored.PaymentRejectReason)
}

func TestNotificationGuards(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()
	pay := submitOnline(t, f, "500.00")

	bad := signed(pay.PaymentTransactionReference, "settlement", "500.00")
	bad.SignatureKey = "forged"
	_, err := f.svc.HandleMidtransNotification(ctx, bad, nil, nil)
	requireStatus(t, err, http.StatusUnauthorized)

	out, err := f.svc.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "499.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.GatewayEventStatusFailed, out.EventStatus)

	out, err = f.svc.HandleMidtransNotification(ctx, signed("TXN-404", "settlement", "500.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.GatewayEventStatusIgnored, out.EventStatus)

	var stored model.PaymentModel
	require.NoError(t, f.db.First(&stored, "payment_id = ?", pay.PaymentID).Error)
	require.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)

	disabled := NewPaymentService(f.db, nil, nil, nil, nil)
	_, err = disabled.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "500.00"), nil, nil)
	requireStatus(t, err, http.StatusServiceUnavailable)
}

// failPaymentUpdates makes every UPDATE on the payments table fail.
func failPaymentUpdates(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_payments", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			_ = tx.AddError(errors.New("database is read-only"))
		}
	}))
}

func TestNotificationStoreFailureAsksForRedelivery(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()
	pay := submitOnline(t, f, "500.00")
	failPaymentUpdates(t, f.db)

	_, err := f.svc.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "500.00"), nil, nil)
	requireStatus(t, err, http.StatusInternalServerError)

	var stored model.PaymentModel
	require.NoError(t, f.db.First(&stored, "payment_id = ?", pay.PaymentID).Error)
	require.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)

	var ev model.PaymentGatewayEventModel
	require.NoError(t, f.db.Where("gateway_event_payment_id = ?", pay.PaymentID).First(&ev).Error)
	require.Equal(t, model.GatewayEventStatusFailed, ev.GatewayEventStatus)

	// business outcomes are still acknowledged
	out, err := f.svc.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "499.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.GatewayEventStatusFailed, out.EventStatus)
}

func TestNotificationConflictIsAcknowledged(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()
	pay := submitOnline(t, f, "500.00")

	// an admin is reviewing the same payment right now
	key := "review:" + pay.PaymentTransactionReference
	require.True(t, f.svc.Tracker.Begin(key))
	out, err := f.svc.HandleMidtransNotification(ctx, signed(pay.PaymentTransactionReference, "settlement", "500.00"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.GatewayEventStatusFailed, out.EventStatus)
	f.svc.Tracker.Finish(key, nil)
}
