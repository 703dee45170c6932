package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/payments/dto"
	"hoa_backend/internals/features/finance/payments/model"
)

type GatewayOutcome struct {
	EventStatus   model.GatewayEventStatus
	PaymentStatus model.PaymentStatus
	Reason        string
}

// HandleMidtransNotification verifies and records a gateway callback, then
// approves or rejects the referenced payment through the same review path as
// an admin. Redeliveries for an already reviewed payment are recorded and
// ignored. A review that fails on the server side returns the error so the
// gateway retries.
func (s *PaymentService) HandleMidtransNotification(ctx context.Context, n dto.MidtransNotification, headers, payload []byte) (*GatewayOutcome, error) {
	if s.Gateway == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "online payments are not enabled")
	}
	if !s.Gateway.VerifyNotification(n) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signature")
	}

	ev := model.PaymentGatewayEventModel{
		GatewayEventProvider:    s.Gateway.Provider(),
		GatewayEventType:        strPtr(n.TransactionStatus),
		GatewayEventExternalID:  strPtr(n.OrderID),
		GatewayEventExternalRef: strPtr(n.TransactionID),
		GatewayEventHeaders:     datatypes.JSON(headers),
		GatewayEventPayload:     datatypes.JSON(payload),
		GatewayEventSignature:   strPtr(n.SignatureKey),
		GatewayEventStatus:      model.GatewayEventStatusReceived,
	}

	db := s.DB.WithContext(ctx)
	var pay model.PaymentModel
	err := db.First(&pay, "payment_transaction_reference = ?", n.OrderID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal(err)
		}
		out := &GatewayOutcome{EventStatus: model.GatewayEventStatusIgnored, Reason: "payment not found"}
		ev.GatewayEventStatus = out.EventStatus
		ev.GatewayEventError = strPtr(out.Reason)
		s.saveEvent(db, &ev)
		return out, nil
	}
	ev.GatewayEventPaymentID = &pay.PaymentID
	s.saveEvent(db, &ev)

	out := &GatewayOutcome{PaymentStatus: pay.PaymentStatus}
	action := MapMidtransStatus(n)
	switch {
	case action == GatewayNoop:
		out.EventStatus = model.GatewayEventStatusIgnored
		out.Reason = "status " + n.TransactionStatus + " needs no action"
	case pay.PaymentStatus != model.PaymentStatusPending:
		out.EventStatus = model.GatewayEventStatusIgnored
		out.Reason = "payment already " + string(pay.PaymentStatus)
	case action == GatewayApprove && !grossMatches(n.GrossAmount, pay.PaymentAmountTotal):
		out.EventStatus = model.GatewayEventStatusFailed
		out.Reason = "gross amount " + n.GrossAmount + " does not match " + pay.PaymentAmountTotal.StringFixed(2)
	default:
		var (
			reviewed *model.PaymentModel
			rerr     error
		)
		if action == GatewayApprove {
			reviewed, rerr = s.Approve(ctx, pay.PaymentTransactionReference, nil)
		} else {
			reviewed, rerr = s.Reject(ctx, pay.PaymentTransactionReference, "gateway: "+strings.ToLower(n.TransactionStatus), nil)
		}
		if rerr != nil {
			out.EventStatus = model.GatewayEventStatusFailed
			out.Reason = rerr.Error()
			if needsRedelivery(rerr) {
				s.finishEvent(db, &ev, out)
				return nil, rerr
			}
		} else {
			out.EventStatus = model.GatewayEventStatusProcessed
			out.PaymentStatus = reviewed.PaymentStatus
		}
	}

	s.finishEvent(db, &ev, out)
	return out, nil
}

// needsRedelivery reports whether the review failed for a reason a retry can
// fix. Midtrans redelivers on any non-2xx reply.
func needsRedelivery(err error) bool {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code >= fiber.StatusInternalServerError
	}
	return true
}

func (s *PaymentService) saveEvent(db *gorm.DB, ev *model.PaymentGatewayEventModel) {
	if err := db.Create(ev).Error; err != nil {
		log.Printf("[ERROR] save gateway event order=%s: %v", deref(ev.GatewayEventExternalID), err)
	}
}

func (s *PaymentService) finishEvent(db *gorm.DB, ev *model.PaymentGatewayEventModel, out *GatewayOutcome) {
	now := time.Now()
	upd := map[string]interface{}{
		"gateway_event_status":       out.EventStatus,
		"gateway_event_processed_at": now,
	}
	if out.Reason != "" {
		upd["gateway_event_error"] = out.Reason
	}
	if err := db.Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", ev.GatewayEventID).
		Updates(upd).Error; err != nil {
		log.Printf("[ERROR] update gateway event %s: %v", ev.GatewayEventID, err)
	}
}

// Snap reports gross_amount like "2500.00"; checkouts are created in whole
// units, so compare against the rounded total.
func grossMatches(gross string, total decimal.Decimal) bool {
	g, err := decimal.NewFromString(strings.TrimSpace(gross))
	if err != nil {
		return false
	}
	return g.Equal(total.Round(0))
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
