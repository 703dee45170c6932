package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnnouncementModel struct {
	AnnouncementID              uuid.UUID  `gorm:"type:uuid;primaryKey;column:announcement_id" json:"announcement_id"`
	AnnouncementCreatedByUserID *uuid.UUID `gorm:"type:uuid;column:announcement_created_by_user_id" json:"announcement_created_by_user_id,omitempty"`

	AnnouncementTitle   string    `gorm:"size:200;not null;column:announcement_title" json:"announcement_title"`
	AnnouncementDate    time.Time `gorm:"type:date;not null;column:announcement_date" json:"announcement_date"`
	AnnouncementContent string    `gorm:"type:text;not null;column:announcement_content" json:"announcement_content"`

	AnnouncementAttachmentURL *string `gorm:"type:text;column:announcement_attachment_url" json:"announcement_attachment_url,omitempty"`
	AnnouncementIsPublished   bool    `gorm:"not null;column:announcement_is_published;index" json:"announcement_is_published"`

	AnnouncementCreatedAt time.Time      `gorm:"column:announcement_created_at;autoCreateTime" json:"announcement_created_at"`
	AnnouncementUpdatedAt time.Time      `gorm:"column:announcement_updated_at;autoUpdateTime" json:"announcement_updated_at"`
	AnnouncementDeletedAt gorm.DeletedAt `gorm:"column:announcement_deleted_at;index" json:"-"`
}

func (AnnouncementModel) TableName() string { return "announcements" }

func (m *AnnouncementModel) BeforeCreate(tx *gorm.DB) error {
	if m.AnnouncementID == uuid.Nil {
		m.AnnouncementID = uuid.New()
	}
	return nil
}
