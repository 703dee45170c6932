package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeModel is a catalog entry (e.g. "Monthly dues", "Garbage collection").
// Assignments copy name+amount, so editing a fee never rewrites issued charges.
type FeeModel struct {
	FeeID          uuid.UUID       `gorm:"column:fee_id;type:uuid;primaryKey" json:"fee_id"`
	FeeName        string          `gorm:"column:fee_name;type:varchar(120);not null;index" json:"fee_name"`
	FeeDescription *string         `gorm:"column:fee_description;type:text" json:"fee_description,omitempty"`
	FeeAmount      decimal.Decimal `gorm:"column:fee_amount;type:numeric(12,2);not null" json:"fee_amount"`

	FeeCreatedAt time.Time      `gorm:"column:fee_created_at;autoCreateTime" json:"fee_created_at"`
	FeeUpdatedAt time.Time      `gorm:"column:fee_updated_at;autoUpdateTime" json:"fee_updated_at"`
	FeeDeletedAt gorm.DeletedAt `gorm:"column:fee_deleted_at;index" json:"-"`
}

func (FeeModel) TableName() string { return "fees" }

func (m *FeeModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeID == uuid.Nil {
		m.FeeID = uuid.New()
	}
	return nil
}
