package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeInstanceModel is one fee charged to one account holder for one month.
// (account holder, fee, month, year) is unique.
type FeeInstanceModel struct {
	FeeInstanceID uuid.UUID `gorm:"column:fee_instance_id;type:uuid;primaryKey" json:"fee_instance_id"`

	FeeInstanceAccountHolderID uuid.UUID `gorm:"column:fee_instance_account_holder_id;type:uuid;not null;uniqueIndex:uq_fee_instance_period,priority:1;index:idx_fee_instance_holder_status,priority:1" json:"fee_instance_account_holder_id"`
	FeeInstanceFeeID           uuid.UUID `gorm:"column:fee_instance_fee_id;type:uuid;not null;uniqueIndex:uq_fee_instance_period,priority:2;index" json:"fee_instance_fee_id"`
	FeeInstanceMonth           int       `gorm:"column:fee_instance_month;type:smallint;not null;uniqueIndex:uq_fee_instance_period,priority:3" json:"fee_instance_month"`
	FeeInstanceYear            int       `gorm:"column:fee_instance_year;type:smallint;not null;uniqueIndex:uq_fee_instance_period,priority:4;index" json:"fee_instance_year"`

	// snapshot of the catalog entry at assignment time
	FeeInstanceFeeName string          `gorm:"column:fee_instance_fee_name;type:varchar(120);not null" json:"fee_instance_fee_name"`
	FeeInstanceAmount  decimal.Decimal `gorm:"column:fee_instance_amount;type:numeric(12,2);not null" json:"fee_instance_amount"`

	FeeInstanceStatus PaymentStatus `gorm:"column:fee_instance_status;type:varchar(16);not null;default:'unpaid';index:idx_fee_instance_holder_status,priority:2" json:"fee_instance_status"`

	FeeInstanceModeOfPayment        *string    `gorm:"column:fee_instance_mode_of_payment;type:varchar(24)" json:"fee_instance_mode_of_payment,omitempty"`
	FeeInstanceProofOfPayment       *string    `gorm:"column:fee_instance_proof_of_payment;type:text" json:"fee_instance_proof_of_payment,omitempty"`
	FeeInstanceTransactionDate      *time.Time `gorm:"column:fee_instance_transaction_date" json:"fee_instance_transaction_date,omitempty"`
	FeeInstanceTransactionReference *string    `gorm:"column:fee_instance_transaction_reference;type:varchar(40);index" json:"fee_instance_transaction_reference,omitempty"`
	FeeInstancePaymentID            *uuid.UUID `gorm:"column:fee_instance_payment_id;type:uuid;index" json:"fee_instance_payment_id,omitempty"`
	FeeInstanceRejectReason         *string    `gorm:"column:fee_instance_reject_reason;type:text" json:"fee_instance_reject_reason,omitempty"`
	FeeInstancePaidAt               *time.Time `gorm:"column:fee_instance_paid_at" json:"fee_instance_paid_at,omitempty"`

	FeeInstanceCreatedAt time.Time `gorm:"column:fee_instance_created_at;autoCreateTime" json:"fee_instance_created_at"`
	FeeInstanceUpdatedAt time.Time `gorm:"column:fee_instance_updated_at;autoUpdateTime" json:"fee_instance_updated_at"`
}

func (FeeInstanceModel) TableName() string { return "fee_instances" }

func (m *FeeInstanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeInstanceID == uuid.Nil {
		m.FeeInstanceID = uuid.New()
	}
	if m.FeeInstanceStatus == "" {
		m.FeeInstanceStatus = StatusUnpaid
	}
	return nil
}

// DueThrough reports whether the instance counts towards the balance due as of
// (year, month): not yet paid and dated on or before that month. Arrears from
// earlier years carry forward.
func (m FeeInstanceModel) DueThrough(year, month int) bool {
	if m.FeeInstanceStatus == StatusPaid {
		return false
	}
	return m.FeeInstanceYear < year || (m.FeeInstanceYear == year && m.FeeInstanceMonth <= month)
}

// SumDueThrough totals the instances that are due as of (year, month).
func SumDueThrough(items []FeeInstanceModel, year, month int) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.DueThrough(year, month) {
			total = total.Add(it.FeeInstanceAmount)
		}
	}
	return total
}

// ScopeDueThrough is the SQL form of DueThrough.
func ScopeDueThrough(year, month int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fee_instance_status <> ?", StatusPaid).
			Where("(fee_instance_year < ? OR (fee_instance_year = ? AND fee_instance_month <= ?))", year, year, month)
	}
}
