package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	"hoa_backend/internals/features/finance/payments/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
	notifModel "hoa_backend/internals/features/home/notifications/model"
	notifService "hoa_backend/internals/features/home/notifications/service"
	"hoa_backend/internals/helpers/inflight"
	"hoa_backend/internals/helpers/txref"
)

type PaymentService struct {
	DB       *gorm.DB
	Tracker  *inflight.Tracker
	Refs     *txref.Generator
	Notifier notifService.Notifier
	Gateway  Gateway
}

func NewPaymentService(db *gorm.DB, tracker *inflight.Tracker, refs *txref.Generator, n notifService.Notifier, gw Gateway) *PaymentService {
	if tracker == nil {
		tracker = inflight.New(10 * time.Minute)
	}
	if refs == nil {
		refs = txref.Default()
	}
	return &PaymentService{DB: db, Tracker: tracker, Refs: refs, Notifier: n, Gateway: gw}
}

// CheckoutFailedReason is recorded on payments whose gateway checkout could
// not be opened.
const CheckoutFailedReason = "gateway: checkout failed"

func internal(err error) error {
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// finish records the outcome of a tracked operation. Deferred; a panic is
// recorded as a failure and re-raised.
func (s *PaymentService) finish(key string, err *error) {
	if r := recover(); r != nil {
		s.Tracker.Finish(key, fmt.Errorf("panic: %v", r))
		panic(r)
	}
	s.Tracker.Finish(key, *err)
}

// ---------------------------------------------------------------------------
// Account details
// ---------------------------------------------------------------------------

type AccountDetails struct {
	Holder     residentModel.ResidentModel
	Items      []feeInstanceModel.FeeInstanceModel
	TotalDue   decimal.Decimal
	PendingRef *string
}

// AccountDetails lists what the holder owes as of (year, throughMonth),
// arrears from earlier years included.
func (s *PaymentService) AccountDetails(ctx context.Context, holderID uuid.UUID, year, throughMonth int) (*AccountDetails, error) {
	db := s.DB.WithContext(ctx)

	var out AccountDetails
	if err := db.First(&out.Holder, "resident_id = ?", holderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "account holder not found")
		}
		return nil, internal(err)
	}
	if !out.Holder.ResidentIsAccountHolder {
		return nil, fiber.NewError(fiber.StatusForbidden, "only the account holder can view account details")
	}

	if err := db.Where("fee_instance_account_holder_id = ?", holderID).
		Scopes(feeInstanceModel.ScopeDueThrough(year, throughMonth)).
		Order("fee_instance_year ASC, fee_instance_month ASC, fee_instance_fee_name ASC").
		Find(&out.Items).Error; err != nil {
		return nil, internal(err)
	}
	out.TotalDue = feeInstanceModel.SumDueThrough(out.Items, year, throughMonth)

	var pending model.PaymentModel
	err := db.Select("payment_transaction_reference").
		Where("payment_account_holder_id = ? AND payment_status = ?", holderID, model.PaymentStatusPending).
		Take(&pending).Error
	switch {
	case err == nil:
		ref := pending.PaymentTransactionReference
		out.PendingRef = &ref
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, internal(err)
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

type SubmitInput struct {
	AccountHolderID uuid.UUID
	FeeInstanceIDs  []uuid.UUID
	Year            int
	ThroughMonth    int
	AmountTendered  decimal.Decimal
	Mode            model.PaymentMode
	ProofURL        *string
}

// Submit moves the selected fee instances to pending under one payment. Every
// rejection (nothing selected, foreign or unpayable instance, a payment already
// pending, insufficient amount) happens before anything is written. Online
// checkouts are opened after the payment is committed.
func (s *PaymentService) Submit(ctx context.Context, in SubmitInput) (_ *model.PaymentModel, _ []model.PaymentItemModel, err error) {
	if !in.Mode.Valid() {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid mode of payment")
	}
	if len(in.FeeInstanceIDs) == 0 && (in.Year == 0 || in.ThroughMonth == 0) {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "no payment selected")
	}
	if in.Mode == model.PaymentModeOnline && s.Gateway == nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "online payments are not enabled")
	}
	if in.AmountTendered.IsNegative() {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "amount tendered must not be negative")
	}

	key := "submit:" + in.AccountHolderID.String()
	if !s.Tracker.Begin(key) {
		return nil, nil, fiber.NewError(fiber.StatusConflict, "a payment submission is already in progress")
	}
	defer s.finish(key, &err)

	var (
		pay    model.PaymentModel
		items  []model.PaymentItemModel
		holder residentModel.ResidentModel
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&holder, "resident_id = ?", in.AccountHolderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "account holder not found")
			}
			return internal(err)
		}
		if !holder.ResidentIsAccountHolder || !holder.ResidentIsActive {
			return fiber.NewError(fiber.StatusForbidden, "only an active account holder can submit payments")
		}

		var pendingCount int64
		if err := tx.Model(&model.PaymentModel{}).
			Where("payment_account_holder_id = ? AND payment_status = ?", in.AccountHolderID, model.PaymentStatusPending).
			Count(&pendingCount).Error; err != nil {
			return internal(err)
		}
		if pendingCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "a payment is already pending review")
		}

		insts, err := selectInstances(tx, in)
		if err != nil {
			return err
		}
		if len(insts) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no payment selected")
		}

		total := decimal.Zero
		ids := make([]uuid.UUID, 0, len(insts))
		for _, it := range insts {
			if it.FeeInstanceAccountHolderID != in.AccountHolderID {
				return fiber.NewError(fiber.StatusForbidden, "fee instance does not belong to this account")
			}
			if _, err := feeInstanceModel.Transition(it.FeeInstanceStatus, feeInstanceModel.EventSubmit); err != nil {
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("%s %02d/%d is %s and cannot be paid", it.FeeInstanceFeeName, it.FeeInstanceMonth, it.FeeInstanceYear, it.FeeInstanceStatus.Label()))
			}
			total = total.Add(it.FeeInstanceAmount)
			ids = append(ids, it.FeeInstanceID)
		}

		tendered := in.AmountTendered.Round(2)
		if in.Mode == model.PaymentModeOnline {
			tendered = total
		}
		if tendered.LessThan(total) {
			return fiber.NewError(fiber.StatusBadRequest, "insufficient amount")
		}

		meta, _ := json.Marshal(map[string]any{
			"year":          in.Year,
			"through_month": in.ThroughMonth,
			"item_count":    len(insts),
			"unit":          holder.Unit(),
		})
		now := time.Now()
		pay = model.PaymentModel{
			PaymentTransactionReference: s.Refs.Transaction(),
			PaymentAccountHolderID:      in.AccountHolderID,
			PaymentAmountTotal:          total,
			PaymentAmountTendered:       tendered,
			PaymentBalance:              tendered.Sub(total),
			PaymentMode:                 in.Mode,
			PaymentStatus:               model.PaymentStatusPending,
			PaymentProofOfPayment:       in.ProofURL,
			PaymentSubmittedAt:          now,
			PaymentMeta:                 datatypes.JSON(meta),
		}
		if err := tx.Create(&pay).Error; err != nil {
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "a payment is already pending review")
			}
			return internal(err)
		}

		items = make([]model.PaymentItemModel, 0, len(insts))
		for _, it := range insts {
			items = append(items, model.PaymentItemModel{
				PaymentItemPaymentID:     pay.PaymentID,
				PaymentItemFeeInstanceID: it.FeeInstanceID,
				PaymentItemFeeName:       it.FeeInstanceFeeName,
				PaymentItemMonth:         it.FeeInstanceMonth,
				PaymentItemYear:          it.FeeInstanceYear,
				PaymentItemAmount:        it.FeeInstanceAmount,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return internal(err)
		}

		mode := string(in.Mode)
		res := tx.Model(&feeInstanceModel.FeeInstanceModel{}).
			Where("fee_instance_id IN ? AND fee_instance_status IN ?", ids,
				[]feeInstanceModel.PaymentStatus{feeInstanceModel.StatusUnpaid, feeInstanceModel.StatusRejected}).
			Updates(map[string]interface{}{
				"fee_instance_status":                feeInstanceModel.StatusPending,
				"fee_instance_mode_of_payment":       mode,
				"fee_instance_proof_of_payment":      in.ProofURL,
				"fee_instance_transaction_date":      now,
				"fee_instance_transaction_reference": pay.PaymentTransactionReference,
				"fee_instance_payment_id":            pay.PaymentID,
				"fee_instance_reject_reason":         nil,
			})
		if res.Error != nil {
			return internal(res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return fiber.NewError(fiber.StatusConflict, "fee instances changed while submitting, please retry")
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[INFO] payment %s submitted holder=%s items=%d total=%s mode=%s",
		pay.PaymentTransactionReference, in.AccountHolderID, len(items), pay.PaymentAmountTotal.StringFixed(2), pay.PaymentMode)

	if in.Mode == model.PaymentModeOnline {
		if err = s.openCheckout(ctx, &pay, holder); err != nil {
			return nil, nil, err
		}
	}
	return &pay, items, nil
}

// openCheckout creates the gateway checkout for a committed pending payment.
// When the gateway fails the payment is rejected, which releases the holder's
// pending slot and makes the fee instances payable again.
func (s *PaymentService) openCheckout(ctx context.Context, pay *model.PaymentModel, holder residentModel.ResidentModel) error {
	ref := pay.PaymentTransactionReference
	co, err := s.Gateway.CreateCheckout(ctx, CheckoutRequest{
		OrderID:     ref,
		Amount:      pay.PaymentAmountTotal,
		Description: fmt.Sprintf("HOA dues %s", holder.Unit()),
		Customer: CustomerInput{
			FirstName: holder.ResidentFirstName,
			LastName:  holder.ResidentLastName,
			Email:     deref(holder.ResidentEmail),
			Phone:     deref(holder.ResidentPhone),
		},
	})
	if err != nil {
		log.Printf("[ERROR] checkout %s: %v", ref, err)
		if _, rerr := s.Reject(context.WithoutCancel(ctx), ref, CheckoutFailedReason, nil); rerr != nil {
			log.Printf("[ERROR] release payment %s after checkout failure: %v", ref, rerr)
		}
		return fiber.NewError(fiber.StatusBadGateway, "payment gateway error")
	}

	prov := s.Gateway.Provider()
	pay.PaymentGatewayProvider = &prov
	pay.PaymentGatewayToken = &co.Token
	pay.PaymentCheckoutURL = &co.RedirectURL
	// the webhook finds the payment by reference, so a failed write here only
	// loses the stored token
	if err := s.DB.WithContext(context.WithoutCancel(ctx)).Model(&model.PaymentModel{}).
		Where("payment_id = ?", pay.PaymentID).
		Updates(map[string]interface{}{
			"payment_gateway_provider": prov,
			"payment_gateway_token":    co.Token,
			"payment_checkout_url":     co.RedirectURL,
		}).Error; err != nil {
		log.Printf("[ERROR] store checkout %s: %v", ref, err)
	}
	return nil
}

func selectInstances(tx *gorm.DB, in SubmitInput) ([]feeInstanceModel.FeeInstanceModel, error) {
	var insts []feeInstanceModel.FeeInstanceModel
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("fee_instance_year ASC, fee_instance_month ASC")

	if len(in.FeeInstanceIDs) > 0 {
		if err := q.Where("fee_instance_id IN ?", in.FeeInstanceIDs).Find(&insts).Error; err != nil {
			return nil, internal(err)
		}
		if len(insts) != len(in.FeeInstanceIDs) {
			return nil, fiber.NewError(fiber.StatusNotFound, "fee instance not found")
		}
		return insts, nil
	}

	if err := q.Where("fee_instance_account_holder_id = ?", in.AccountHolderID).
		Scopes(feeInstanceModel.ScopeDueThrough(in.Year, in.ThroughMonth)).
		Find(&insts).Error; err != nil {
		return nil, internal(err)
	}
	return insts, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ---------------------------------------------------------------------------
// Review
// ---------------------------------------------------------------------------

// Approve settles a pending payment: the payment becomes approved and each of
// its fee instances moves pending -> paid. reviewer is nil for gateway
// settlements.
func (s *PaymentService) Approve(ctx context.Context, ref string, reviewer *uuid.UUID) (*model.PaymentModel, error) {
	return s.review(ctx, ref, reviewer, feeInstanceModel.EventApprove, "")
}

// Reject returns a pending payment's fee instances to rejected with the
// reason recorded verbatim; they become payable again.
func (s *PaymentService) Reject(ctx context.Context, ref, reason string, reviewer *uuid.UUID) (*model.PaymentModel, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "reject reason is required")
	}
	return s.review(ctx, ref, reviewer, feeInstanceModel.EventReject, reason)
}

func (s *PaymentService) review(ctx context.Context, ref string, reviewer *uuid.UUID, ev feeInstanceModel.Event, reason string) (_ *model.PaymentModel, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "transaction reference is required")
	}

	key := "review:" + ref
	if !s.Tracker.Begin(key) {
		return nil, fiber.NewError(fiber.StatusConflict, "this payment is already being reviewed")
	}
	defer s.finish(key, &err)

	var pay model.PaymentModel
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pay, "payment_transaction_reference = ?", ref).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payment not found")
			}
			return internal(err)
		}
		if pay.PaymentStatus != model.PaymentStatusPending {
			return fiber.NewError(fiber.StatusConflict, "payment is already "+string(pay.PaymentStatus))
		}

		var itemCount int64
		if err := tx.Model(&model.PaymentItemModel{}).
			Where("payment_item_payment_id = ?", pay.PaymentID).
			Count(&itemCount).Error; err != nil {
			return internal(err)
		}

		next, err := feeInstanceModel.Transition(feeInstanceModel.StatusPending, ev)
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		now := time.Now()
		payUpd := map[string]interface{}{"payment_reviewed_by": reviewer}
		instUpd := map[string]interface{}{"fee_instance_status": next}
		switch ev {
		case feeInstanceModel.EventApprove:
			payUpd["payment_status"] = model.PaymentStatusApproved
			payUpd["payment_approved_at"] = now
			instUpd["fee_instance_paid_at"] = now
		case feeInstanceModel.EventReject:
			payUpd["payment_status"] = model.PaymentStatusRejected
			payUpd["payment_rejected_at"] = now
			payUpd["payment_reject_reason"] = reason
			instUpd["fee_instance_reject_reason"] = reason
		}

		res := tx.Model(&model.PaymentModel{}).
			Where("payment_id = ? AND payment_status = ?", pay.PaymentID, model.PaymentStatusPending).
			Updates(payUpd)
		if res.Error != nil {
			return internal(res.Error)
		}
		if res.RowsAffected != 1 {
			return fiber.NewError(fiber.StatusConflict, "payment was reviewed concurrently")
		}

		res = tx.Model(&feeInstanceModel.FeeInstanceModel{}).
			Where("fee_instance_payment_id = ? AND fee_instance_status = ?", pay.PaymentID, feeInstanceModel.StatusPending).
			Updates(instUpd)
		if res.Error != nil {
			return internal(res.Error)
		}
		if res.RowsAffected != itemCount {
			return fiber.NewError(fiber.StatusConflict, "fee instances of this payment changed, review aborted")
		}

		return tx.First(&pay, "payment_id = ?", pay.PaymentID).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] payment %s %s (reviewer=%v)", ref, pay.PaymentStatus, reviewer)
	s.notifyReviewed(ctx, &pay)
	return &pay, nil
}

func (s *PaymentService) notifyReviewed(ctx context.Context, pay *model.PaymentModel) {
	if s.Notifier == nil {
		return
	}
	ref := pay.PaymentTransactionReference
	var (
		kind       notifModel.NotificationKind
		title, msg string
	)
	switch pay.PaymentStatus {
	case model.PaymentStatusApproved:
		kind = notifModel.NotificationKindPaymentApproved
		title = "Payment approved"
		msg = fmt.Sprintf("Your payment %s of %s has been approved.", ref, pay.PaymentAmountTotal.StringFixed(2))
	case model.PaymentStatusRejected:
		kind = notifModel.NotificationKindPaymentRejected
		title = "Payment rejected"
		msg = fmt.Sprintf("Your payment %s was rejected: %s", ref, deref(pay.PaymentRejectReason))
	default:
		return
	}
	if err := s.Notifier.Notify(ctx, pay.PaymentAccountHolderID, kind, title, msg, &ref); err != nil {
		log.Printf("[WARN] notify payment %s: %v", ref, err)
	}
}
