package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationKindPaymentApproved NotificationKind = "payment_approved"
	NotificationKindPaymentRejected NotificationKind = "payment_rejected"
	NotificationKindFeeAssigned     NotificationKind = "fee_assigned"
	NotificationKindAnnouncement    NotificationKind = "announcement"
)

// NotificationModel holds the content; NotificationUserModel fans it out to residents.
type NotificationModel struct {
	NotificationID          uuid.UUID        `gorm:"column:notification_id;type:uuid;primaryKey" json:"notification_id"`
	NotificationTitle       string           `gorm:"column:notification_title;type:varchar(255);not null" json:"notification_title"`
	NotificationDescription string           `gorm:"column:notification_description;type:text" json:"notification_description"`
	NotificationKind        NotificationKind `gorm:"column:notification_kind;type:varchar(32);not null;index" json:"notification_kind"`
	NotificationRef         *string          `gorm:"column:notification_ref;type:varchar(80)" json:"notification_ref,omitempty"`
	NotificationCreatedAt   time.Time        `gorm:"column:notification_created_at;autoCreateTime" json:"notification_created_at"`
}

func (NotificationModel) TableName() string { return "notifications" }

func (m *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationID == uuid.Nil {
		m.NotificationID = uuid.New()
	}
	return nil
}

type NotificationUserModel struct {
	NotificationUserID             uuid.UUID  `gorm:"column:notification_users_id;type:uuid;primaryKey" json:"notification_users_id"`
	NotificationUserNotificationID uuid.UUID  `gorm:"column:notification_users_notification_id;type:uuid;not null;index" json:"notification_users_notification_id"`
	NotificationUserResidentID     uuid.UUID  `gorm:"column:notification_users_resident_id;type:uuid;not null;index" json:"notification_users_resident_id"`
	NotificationUserRead           bool       `gorm:"column:notification_users_read;not null" json:"notification_users_read"`
	NotificationUserSentAt         time.Time  `gorm:"column:notification_users_sent_at;not null" json:"notification_users_sent_at"`
	NotificationUserReadAt         *time.Time `gorm:"column:notification_users_read_at" json:"notification_users_read_at,omitempty"`

	Notification *NotificationModel `gorm:"foreignKey:NotificationUserNotificationID;references:NotificationID" json:"-"`
}

func (NotificationUserModel) TableName() string { return "notification_users" }

func (m *NotificationUserModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationUserID == uuid.Nil {
		m.NotificationUserID = uuid.New()
	}
	if m.NotificationUserSentAt.IsZero() {
		m.NotificationUserSentAt = time.Now()
	}
	return nil
}
