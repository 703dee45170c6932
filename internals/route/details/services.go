package details

import (
	"log"
	"time"

	"gorm.io/gorm"

	paymentService "hoa_backend/internals/features/finance/payments/service"
	notifService "hoa_backend/internals/features/home/notifications/service"
	"hoa_backend/internals/helpers/inflight"
	"hoa_backend/internals/helpers/oss"
	"hoa_backend/internals/helpers/txref"
)

// Services are shared by several route groups and must be single instances:
// one tracker for request state, one snowflake node.
type Services struct {
	Refs          *txref.Generator
	Tracker       *inflight.Tracker
	Notifications *notifService.NotificationService
	Payments      *paymentService.PaymentService
	Proofs        oss.ProofStore
}

type ServiceOptions struct {
	SnowflakeNode    int64
	Mailer           notifService.Mailer
	Gateway          paymentService.Gateway
	Proofs           oss.ProofStore
	TrackerRetention time.Duration
}

func NewServices(db *gorm.DB, opt ServiceOptions) (*Services, error) {
	refs, err := txref.New(opt.SnowflakeNode)
	if err != nil {
		return nil, err
	}
	if opt.TrackerRetention <= 0 {
		opt.TrackerRetention = 10 * time.Minute
	}
	tracker := inflight.New(opt.TrackerRetention)
	notifications := notifService.NewNotificationService(db, opt.Mailer)

	if opt.Gateway == nil {
		log.Println("[INFO] online payments disabled")
	}
	return &Services{
		Refs:          refs,
		Tracker:       tracker,
		Notifications: notifications,
		Payments:      paymentService.NewPaymentService(db, tracker, refs, notifications, opt.Gateway),
		Proofs:        opt.Proofs,
	}, nil
}
