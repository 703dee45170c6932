package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"hoa_backend/internals/features/home/announcements/model"
)

/* ===================== REQUESTS ===================== */

type CreateAnnouncementRequest struct {
	AnnouncementTitle         string  `json:"announcement_title" validate:"required,min=3,max=200"`
	AnnouncementDate          string  `json:"announcement_date" validate:"required,datetime=2006-01-02"`
	AnnouncementContent       string  `json:"announcement_content" validate:"required,min=3"`
	AnnouncementAttachmentURL *string `json:"announcement_attachment_url" validate:"omitempty,url"`
	AnnouncementIsPublished   *bool   `json:"announcement_is_published"`
	// Notify broadcasts the announcement to every active resident when it is published.
	Notify bool `json:"notify"`
}

func (r CreateAnnouncementRequest) ToModel(createdBy *uuid.UUID) *model.AnnouncementModel {
	d, _ := time.Parse("2006-01-02", strings.TrimSpace(r.AnnouncementDate))
	m := &model.AnnouncementModel{
		AnnouncementCreatedByUserID: createdBy,
		AnnouncementTitle:           strings.TrimSpace(r.AnnouncementTitle),
		AnnouncementDate:            d,
		AnnouncementContent:         strings.TrimSpace(r.AnnouncementContent),
		AnnouncementIsPublished:     true,
		AnnouncementAttachmentURL:   trimOrNil(r.AnnouncementAttachmentURL),
	}
	if r.AnnouncementIsPublished != nil {
		m.AnnouncementIsPublished = *r.AnnouncementIsPublished
	}
	return m
}

type UpdateAnnouncementRequest struct {
	AnnouncementTitle         *string `json:"announcement_title" validate:"omitempty,min=3,max=200"`
	AnnouncementDate          *string `json:"announcement_date" validate:"omitempty,datetime=2006-01-02"`
	AnnouncementContent       *string `json:"announcement_content" validate:"omitempty,min=3"`
	AnnouncementAttachmentURL *string `json:"announcement_attachment_url"`
	AnnouncementIsPublished   *bool   `json:"announcement_is_published"`
	Notify                    bool    `json:"notify"`
}

// ApplyToModel applies only the fields that were sent.
func (r *UpdateAnnouncementRequest) ApplyToModel(m *model.AnnouncementModel) {
	if r.AnnouncementTitle != nil {
		m.AnnouncementTitle = strings.TrimSpace(*r.AnnouncementTitle)
	}
	if r.AnnouncementDate != nil {
		if parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*r.AnnouncementDate)); err == nil {
			m.AnnouncementDate = parsed
		}
	}
	if r.AnnouncementContent != nil {
		m.AnnouncementContent = strings.TrimSpace(*r.AnnouncementContent)
	}
	if r.AnnouncementAttachmentURL != nil {
		m.AnnouncementAttachmentURL = trimOrNil(r.AnnouncementAttachmentURL)
	}
	if r.AnnouncementIsPublished != nil {
		m.AnnouncementIsPublished = *r.AnnouncementIsPublished
	}
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

/* ===================== RESPONSES ===================== */

type AnnouncementResponse struct {
	AnnouncementID              uuid.UUID  `json:"announcement_id"`
	AnnouncementCreatedByUserID *uuid.UUID `json:"announcement_created_by_user_id,omitempty"`
	AnnouncementTitle           string     `json:"announcement_title"`
	AnnouncementDate            string     `json:"announcement_date"`
	AnnouncementContent         string     `json:"announcement_content"`
	AnnouncementAttachmentURL   *string    `json:"announcement_attachment_url,omitempty"`
	AnnouncementIsPublished     bool       `json:"announcement_is_published"`
	AnnouncementCreatedAt       time.Time  `json:"announcement_created_at"`
	AnnouncementUpdatedAt       time.Time  `json:"announcement_updated_at"`
	NotifiedResidents           *int       `json:"notified_residents,omitempty"`
}

func NewAnnouncementResponse(m *model.AnnouncementModel) AnnouncementResponse {
	return AnnouncementResponse{
		AnnouncementID:              m.AnnouncementID,
		AnnouncementCreatedByUserID: m.AnnouncementCreatedByUserID,
		AnnouncementTitle:           m.AnnouncementTitle,
		AnnouncementDate:            m.AnnouncementDate.Format("2006-01-02"),
		AnnouncementContent:         m.AnnouncementContent,
		AnnouncementAttachmentURL:   m.AnnouncementAttachmentURL,
		AnnouncementIsPublished:     m.AnnouncementIsPublished,
		AnnouncementCreatedAt:       m.AnnouncementCreatedAt,
		AnnouncementUpdatedAt:       m.AnnouncementUpdatedAt,
	}
}
