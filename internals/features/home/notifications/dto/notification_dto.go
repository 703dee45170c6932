package dto

import (
	"time"

	"github.com/google/uuid"

	"hoa_backend/internals/features/home/notifications/model"
)

type NotificationUserResponse struct {
	ID             uuid.UUID              `json:"notification_users_id"`
	NotificationID uuid.UUID              `json:"notification_id"`
	Title          string                 `json:"notification_title"`
	Description    string                 `json:"notification_description"`
	Kind           model.NotificationKind `json:"notification_kind"`
	Ref            *string                `json:"notification_ref,omitempty"`
	Read           bool                   `json:"notification_users_read"`
	SentAt         string                 `json:"notification_users_sent_at"`
	ReadAt         *string                `json:"notification_users_read_at,omitempty"`
}

func ToNotificationUserResponse(m *model.NotificationUserModel) NotificationUserResponse {
	var readAt *string
	if m.NotificationUserReadAt != nil {
		formatted := m.NotificationUserReadAt.Format(time.RFC3339)
		readAt = &formatted
	}
	out := NotificationUserResponse{
		ID:             m.NotificationUserID,
		NotificationID: m.NotificationUserNotificationID,
		Read:           m.NotificationUserRead,
		SentAt:         m.NotificationUserSentAt.Format(time.RFC3339),
		ReadAt:         readAt,
	}
	if m.Notification != nil {
		out.Title = m.Notification.NotificationTitle
		out.Description = m.Notification.NotificationDescription
		out.Kind = m.Notification.NotificationKind
		out.Ref = m.Notification.NotificationRef
	}
	return out
}

func ToNotificationUserResponseList(list []model.NotificationUserModel) []NotificationUserResponse {
	out := make([]NotificationUserResponse, 0, len(list))
	for i := range list {
		out = append(out, ToNotificationUserResponse(&list[i]))
	}
	return out
}
