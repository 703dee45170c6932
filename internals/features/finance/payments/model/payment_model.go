package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentModel groups the fee instances settled by one submission. At most one
// pending payment per account holder (uq_payments_one_pending_per_holder).
type PaymentModel struct {
	PaymentID                   uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`
	PaymentTransactionReference string    `gorm:"column:payment_transaction_reference;type:varchar(40);not null;uniqueIndex:uq_payments_reference" json:"payment_transaction_reference"`
	PaymentAccountHolderID      uuid.UUID `gorm:"column:payment_account_holder_id;type:uuid;not null;index:idx_payments_holder_status,priority:1" json:"payment_account_holder_id"`

	PaymentAmountTotal    decimal.Decimal `gorm:"column:payment_amount_total;type:numeric(12,2);not null" json:"payment_amount_total"`
	PaymentAmountTendered decimal.Decimal `gorm:"column:payment_amount_tendered;type:numeric(12,2);not null" json:"payment_amount_tendered"`
	PaymentBalance        decimal.Decimal `gorm:"column:payment_balance;type:numeric(12,2);not null" json:"payment_balance"`

	PaymentMode   PaymentMode   `gorm:"column:payment_mode;type:varchar(24);not null" json:"payment_mode"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(16);not null;index:idx_payments_holder_status,priority:2" json:"payment_status"`

	PaymentProofOfPayment *string    `gorm:"column:payment_proof_of_payment;type:text" json:"payment_proof_of_payment,omitempty"`
	PaymentRejectReason   *string    `gorm:"column:payment_reject_reason;type:text" json:"payment_reject_reason,omitempty"`
	PaymentReviewedBy     *uuid.UUID `gorm:"column:payment_reviewed_by;type:uuid" json:"payment_reviewed_by,omitempty"`

	PaymentSubmittedAt time.Time  `gorm:"column:payment_submitted_at;not null" json:"payment_submitted_at"`
	PaymentApprovedAt  *time.Time `gorm:"column:payment_approved_at" json:"payment_approved_at,omitempty"`
	PaymentRejectedAt  *time.Time `gorm:"column:payment_rejected_at" json:"payment_rejected_at,omitempty"`

	// online (gateway) checkout
	PaymentGatewayProvider  *PaymentGatewayProvider `gorm:"column:payment_gateway_provider;type:varchar(20)" json:"payment_gateway_provider,omitempty"`
	PaymentGatewayToken     *string                 `gorm:"column:payment_gateway_token;type:text" json:"payment_gateway_token,omitempty"`
	PaymentGatewayReference *string                 `gorm:"column:payment_gateway_reference;type:varchar(120)" json:"payment_gateway_reference,omitempty"`
	PaymentCheckoutURL      *string                 `gorm:"column:payment_checkout_url;type:text" json:"payment_checkout_url,omitempty"`

	PaymentMeta datatypes.JSON `gorm:"column:payment_meta" json:"payment_meta,omitempty"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (PaymentModel) TableName() string { return "payments" }

func (m *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentID == uuid.Nil {
		m.PaymentID = uuid.New()
	}
	if m.PaymentSubmittedAt.IsZero() {
		m.PaymentSubmittedAt = time.Now()
	}
	return nil
}
