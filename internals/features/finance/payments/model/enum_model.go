package model

type PaymentStatus string
type PaymentMode string
type PaymentGatewayProvider string
type GatewayEventStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

const (
	PaymentModeOverTheCounter PaymentMode = "over_the_counter"
	PaymentModeGCash          PaymentMode = "gcash"
	PaymentModeOnline         PaymentMode = "online"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeOverTheCounter, PaymentModeGCash, PaymentModeOnline:
		return true
	}
	return false
}

const (
	GatewayProviderMidtrans PaymentGatewayProvider = "midtrans"
)

const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusIgnored   GatewayEventStatus = "ignored"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"
)
