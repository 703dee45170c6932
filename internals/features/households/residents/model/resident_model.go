package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResidentKind string

const (
	ResidentKindOwner  ResidentKind = "owner"
	ResidentKindMember ResidentKind = "member"
	ResidentKindTenant ResidentKind = "tenant"
)

func (k ResidentKind) Valid() bool {
	switch k {
	case ResidentKindOwner, ResidentKindMember, ResidentKindTenant:
		return true
	}
	return false
}

// ResidentModel is a person living at a (block, lot) unit. The unit itself is
// not a table: residents sharing block+lot form one household, and at most one
// of them is the account holder (enforced by uq_residents_one_holder_per_lot).
type ResidentModel struct {
	ResidentID uuid.UUID `gorm:"column:resident_id;type:uuid;primaryKey" json:"resident_id"`

	ResidentFirstName  string  `gorm:"column:resident_first_name;type:varchar(80);not null" json:"resident_first_name"`
	ResidentMiddleName *string `gorm:"column:resident_middle_name;type:varchar(80)" json:"resident_middle_name,omitempty"`
	ResidentLastName   string  `gorm:"column:resident_last_name;type:varchar(80);not null" json:"resident_last_name"`

	ResidentEmail *string `gorm:"column:resident_email;type:varchar(160)" json:"resident_email,omitempty"`
	ResidentPhone *string `gorm:"column:resident_phone;type:varchar(32)" json:"resident_phone,omitempty"`

	ResidentBlock string       `gorm:"column:resident_block;type:varchar(16);not null;index:idx_residents_block_lot,priority:1" json:"resident_block"`
	ResidentLot   string       `gorm:"column:resident_lot;type:varchar(16);not null;index:idx_residents_block_lot,priority:2" json:"resident_lot"`
	ResidentKind  ResidentKind `gorm:"column:resident_kind;type:varchar(16);not null" json:"resident_kind"`

	ResidentIsAccountHolder bool    `gorm:"column:resident_is_account_holder;not null" json:"resident_is_account_holder"`
	ResidentAccountNumber   *string `gorm:"column:resident_account_number;type:varchar(40);uniqueIndex:uq_residents_account_number" json:"resident_account_number,omitempty"`
	ResidentIsActive        bool    `gorm:"column:resident_is_active;not null;index" json:"resident_is_active"`

	ResidentCreatedAt time.Time `gorm:"column:resident_created_at;autoCreateTime" json:"resident_created_at"`
	ResidentUpdatedAt time.Time `gorm:"column:resident_updated_at;autoUpdateTime" json:"resident_updated_at"`
}

func (ResidentModel) TableName() string { return "residents" }

func (m *ResidentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ResidentID == uuid.Nil {
		m.ResidentID = uuid.New()
	}
	return nil
}

func (m ResidentModel) FullName() string {
	parts := []string{m.ResidentFirstName}
	if m.ResidentMiddleName != nil && strings.TrimSpace(*m.ResidentMiddleName) != "" {
		parts = append(parts, strings.TrimSpace(*m.ResidentMiddleName))
	}
	parts = append(parts, m.ResidentLastName)
	return strings.Join(parts, " ")
}

// Unit renders the household address, e.g. "Blk 3 Lot 12".
func (m ResidentModel) Unit() string {
	return "Blk " + m.ResidentBlock + " Lot " + m.ResidentLot
}
