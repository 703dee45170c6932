package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentItemModel links a payment to one fee instance, with the amount as
// charged at submission.
type PaymentItemModel struct {
	PaymentItemID            uuid.UUID `gorm:"column:payment_item_id;type:uuid;primaryKey" json:"payment_item_id"`
	PaymentItemPaymentID     uuid.UUID `gorm:"column:payment_item_payment_id;type:uuid;not null;index" json:"payment_item_payment_id"`
	PaymentItemFeeInstanceID uuid.UUID `gorm:"column:payment_item_fee_instance_id;type:uuid;not null;index" json:"payment_item_fee_instance_id"`

	PaymentItemFeeName string          `gorm:"column:payment_item_fee_name;type:varchar(120);not null" json:"payment_item_fee_name"`
	PaymentItemMonth   int             `gorm:"column:payment_item_month;type:smallint;not null" json:"payment_item_month"`
	PaymentItemYear    int             `gorm:"column:payment_item_year;type:smallint;not null" json:"payment_item_year"`
	PaymentItemAmount  decimal.Decimal `gorm:"column:payment_item_amount;type:numeric(12,2);not null" json:"payment_item_amount"`

	PaymentItemCreatedAt time.Time `gorm:"column:payment_item_created_at;autoCreateTime" json:"payment_item_created_at"`
}

func (PaymentItemModel) TableName() string { return "payment_items" }

func (m *PaymentItemModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentItemID == uuid.Nil {
		m.PaymentItemID = uuid.New()
	}
	return nil
}
