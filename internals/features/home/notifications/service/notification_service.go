package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	residentModel "hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/features/home/notifications/model"
)

// Notifier is what the payment workflow depends on.
type Notifier interface {
	Notify(ctx context.Context, residentID uuid.UUID, kind model.NotificationKind, title, message string, ref *string) error
}

type NotificationService struct {
	DB     *gorm.DB
	Mailer Mailer
}

func NewNotificationService(db *gorm.DB, mailer Mailer) *NotificationService {
	return &NotificationService{DB: db, Mailer: mailer}
}

// Notify stores an in-app notification for one resident and, when a mailer is
// configured and the resident has an email, sends it by mail in the background.
func (s *NotificationService) Notify(ctx context.Context, residentID uuid.UUID, kind model.NotificationKind, title, message string, ref *string) error {
	n := model.NotificationModel{
		NotificationTitle:       title,
		NotificationDescription: message,
		NotificationKind:        kind,
		NotificationRef:         ref,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		return tx.Create(&model.NotificationUserModel{
			NotificationUserNotificationID: n.NotificationID,
			NotificationUserResidentID:     residentID,
			NotificationUserSentAt:         time.Now(),
		}).Error
	})
	if err != nil {
		log.Printf("[ERROR] notify resident=%s kind=%s: %v", residentID, kind, err)
		return err
	}

	if s.Mailer != nil {
		var r residentModel.ResidentModel
		if err := s.DB.WithContext(ctx).Select("resident_email").
			First(&r, "resident_id = ?", residentID).Error; err == nil &&
			r.ResidentEmail != nil && strings.TrimSpace(*r.ResidentEmail) != "" {
			to := strings.TrimSpace(*r.ResidentEmail)
			go func() { _ = s.Mailer.Send(to, title, message) }()
		}
	}
	return nil
}

// Broadcast sends one notification to every active resident and returns the
// number of recipients.
func (s *NotificationService) Broadcast(ctx context.Context, kind model.NotificationKind, title, message string, ref *string) (int, error) {
	var residentIDs []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&residentModel.ResidentModel{}).
		Where("resident_is_active = ?", true).
		Pluck("resident_id", &residentIDs).Error; err != nil {
		return 0, err
	}

	n := model.NotificationModel{
		NotificationTitle:       title,
		NotificationDescription: message,
		NotificationKind:        kind,
		NotificationRef:         ref,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		if len(residentIDs) == 0 {
			return nil
		}
		now := time.Now()
		rows := make([]model.NotificationUserModel, 0, len(residentIDs))
		for _, rid := range residentIDs {
			rows = append(rows, model.NotificationUserModel{
				NotificationUserNotificationID: n.NotificationID,
				NotificationUserResidentID:     rid,
				NotificationUserSentAt:         now,
			})
		}
		return tx.CreateInBatches(&rows, 500).Error
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[INFO] broadcast %q to %d residents", title, len(residentIDs))
	return len(residentIDs), nil
}
