package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hoa_backend/internals/features/finance/payments/model"
	"hoa_backend/internals/helpers/dbtime"
)

// POST /payment/account-details
//
// Zero year/through_month mean the current billing period.
type AccountDetailsRequest struct {
	Year         int `json:"year" validate:"omitempty,min=2000,max=2100"`
	ThroughMonth int `json:"through_month" validate:"omitempty,min=1,max=12"`
}

func (r *AccountDetailsRequest) Defaults() {
	y, m := dbtime.CurrentPeriod()
	if r.Year == 0 {
		r.Year = y
	}
	if r.ThroughMonth == 0 {
		r.ThroughMonth = m
	}
}

type OutstandingItem struct {
	FeeInstanceID uuid.UUID `json:"fee_instance_id"`
	FeeName       string    `json:"fee_name"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	Amount        string    `json:"amount"`
	Status        string    `json:"payment_status"`
	StatusLabel   string    `json:"payment_status_label"`
	RejectReason  *string   `json:"reject_reason,omitempty"`
}

type AccountDetailsResponse struct {
	AccountHolderID uuid.UUID         `json:"account_holder_id"`
	AccountNumber   *string           `json:"account_number,omitempty"`
	FullName        string            `json:"full_name"`
	Unit            string            `json:"unit"`
	Year            int               `json:"year"`
	ThroughMonth    int               `json:"through_month"`
	Items           []OutstandingItem `json:"items"`
	TotalDue        string            `json:"total_due"`
	HasPending      bool              `json:"has_pending_payment"`
	PendingRef      *string           `json:"pending_transaction_reference,omitempty"`
}

// POST /payment/transaction
//
// Either FeeInstanceIDs or (Year, ThroughMonth) selects what is paid.
type SubmitPaymentRequest struct {
	FeeInstanceIDs []uuid.UUID     `json:"fee_instance_ids"`
	Year           int             `json:"year" validate:"omitempty,min=2000,max=2100"`
	ThroughMonth   int             `json:"through_month" validate:"omitempty,min=1,max=12"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	ModeOfPayment  string          `json:"mode_of_payment" validate:"required"`
}

func (r *SubmitPaymentRequest) Normalize() {
	r.ModeOfPayment = strings.ToLower(strings.TrimSpace(r.ModeOfPayment))
	seen := make(map[uuid.UUID]struct{}, len(r.FeeInstanceIDs))
	ids := r.FeeInstanceIDs[:0]
	for _, id := range r.FeeInstanceIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	r.FeeInstanceIDs = ids
}

func (r SubmitPaymentRequest) HasSelection() bool {
	return len(r.FeeInstanceIDs) > 0 || (r.Year > 0 && r.ThroughMonth > 0)
}

type SubmitPaymentResponse struct {
	PaymentID            uuid.UUID `json:"payment_id"`
	TransactionReference string    `json:"transaction_reference"`
	Total                string    `json:"total"`
	AmountTendered       string    `json:"amount_tendered"`
	Balance              string    `json:"balance"`
	ModeOfPayment        string    `json:"mode_of_payment"`
	Status               string    `json:"payment_status"`
	ItemCount            int       `json:"item_count"`
	CheckoutURL          *string   `json:"checkout_url,omitempty"`
	CheckoutToken        *string   `json:"checkout_token,omitempty"`
}

// POST /payments/approve
type ApprovePaymentRequest struct {
	TransactionReference string `json:"transaction_reference" validate:"required,max=40"`
}

// POST /payments/reject
type RejectPaymentRequest struct {
	TransactionReference string `json:"transaction_reference" validate:"required,max=40"`
	RejectReason         string `json:"reject_reason" validate:"required,max=1000"`
}

type PaymentItemResponse struct {
	FeeInstanceID uuid.UUID `json:"fee_instance_id"`
	FeeName       string    `json:"fee_name"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	Amount        string    `json:"amount"`
}

type PaymentResponse struct {
	ID                   uuid.UUID             `json:"payment_id"`
	TransactionReference string                `json:"transaction_reference"`
	AccountHolderID      uuid.UUID             `json:"account_holder_id"`
	AccountHolderName    string                `json:"account_holder_name,omitempty"`
	AccountNumber        *string               `json:"account_number,omitempty"`
	Unit                 string                `json:"unit,omitempty"`
	Total                string                `json:"total"`
	AmountTendered       string                `json:"amount_tendered"`
	Balance              string                `json:"balance"`
	ModeOfPayment        model.PaymentMode     `json:"mode_of_payment"`
	Status               model.PaymentStatus   `json:"payment_status"`
	ProofOfPayment       *string               `json:"proof_of_payment,omitempty"`
	RejectReason         *string               `json:"reject_reason,omitempty"`
	ReviewedBy           *uuid.UUID            `json:"reviewed_by,omitempty"`
	CheckoutURL          *string               `json:"checkout_url,omitempty"`
	SubmittedAt          time.Time             `json:"submitted_at"`
	ApprovedAt           *time.Time            `json:"approved_at,omitempty"`
	RejectedAt           *time.Time            `json:"rejected_at,omitempty"`
	Items                []PaymentItemResponse `json:"items,omitempty"`
}

func ToPaymentResponse(p *model.PaymentModel, items []model.PaymentItemModel) PaymentResponse {
	out := PaymentResponse{
		ID:                   p.PaymentID,
		TransactionReference: p.PaymentTransactionReference,
		AccountHolderID:      p.PaymentAccountHolderID,
		Total:                p.PaymentAmountTotal.StringFixed(2),
		AmountTendered:       p.PaymentAmountTendered.StringFixed(2),
		Balance:              p.PaymentBalance.StringFixed(2),
		ModeOfPayment:        p.PaymentMode,
		Status:               p.PaymentStatus,
		ProofOfPayment:       p.PaymentProofOfPayment,
		RejectReason:         p.PaymentRejectReason,
		ReviewedBy:           p.PaymentReviewedBy,
		CheckoutURL:          p.PaymentCheckoutURL,
		SubmittedAt:          p.PaymentSubmittedAt,
		ApprovedAt:           p.PaymentApprovedAt,
		RejectedAt:           p.PaymentRejectedAt,
	}
	for _, it := range items {
		out.Items = append(out.Items, PaymentItemResponse{
			FeeInstanceID: it.PaymentItemFeeInstanceID,
			FeeName:       it.PaymentItemFeeName,
			Month:         it.PaymentItemMonth,
			Year:          it.PaymentItemYear,
			Amount:        it.PaymentItemAmount.StringFixed(2),
		})
	}
	return out
}
