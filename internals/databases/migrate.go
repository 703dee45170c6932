package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	feeInstanceModel "hoa_backend/internals/features/finance/fee_instances/model"
	feeModel "hoa_backend/internals/features/finance/fees/model"
	paymentModel "hoa_backend/internals/features/finance/payments/model"
	residentModel "hoa_backend/internals/features/households/residents/model"
	announcementModel "hoa_backend/internals/features/home/announcements/model"
	notificationModel "hoa_backend/internals/features/home/notifications/model"
)

// Partial indexes GORM tags cannot express. The syntax is shared by
// PostgreSQL and SQLite.
var partialIndexes = []string{
	// one account holder per household
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_residents_one_holder_per_lot
		ON residents (resident_block, resident_lot)
		WHERE resident_is_account_holder = TRUE`,
	// one in-flight payment per account holder
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_one_pending_per_holder
		ON payments (payment_account_holder_id)
		WHERE payment_status = 'pending'`,
}

// Migrate creates/updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&residentModel.ResidentModel{},
		&feeModel.FeeModel{},
		&feeInstanceModel.FeeInstanceModel{},
		&paymentModel.PaymentModel{},
		&paymentModel.PaymentItemModel{},
		&paymentModel.PaymentGatewayEventModel{},
		&notificationModel.NotificationModel{},
		&notificationModel.NotificationUserModel{},
		&announcementModel.AnnouncementModel{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("partial index: %w", err)
		}
	}
	log.Println("[INFO] migrations applied")
	return nil
}
