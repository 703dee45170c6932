package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"hoa_backend/internals/features/finance/payments/model"
)

// MidtransNotification is the HTTP notification body Midtrans posts after a
// Snap transaction changes state. Unknown fields are ignored.
type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	SettlementTime    string `json:"settlement_time"`
}

type GatewayEventResponse struct {
	ID          uuid.UUID                    `json:"gateway_event_id"`
	PaymentID   *uuid.UUID                   `json:"payment_id,omitempty"`
	Provider    model.PaymentGatewayProvider `json:"provider"`
	Type        *string                      `json:"type,omitempty"`
	ExternalID  *string                      `json:"external_id,omitempty"`
	ExternalRef *string                      `json:"external_ref,omitempty"`
	Payload     datatypes.JSON               `json:"payload,omitempty"`
	Status      model.GatewayEventStatus     `json:"status"`
	Error       *string                      `json:"error,omitempty"`
	ReceivedAt  time.Time                    `json:"received_at"`
	ProcessedAt *time.Time                   `json:"processed_at,omitempty"`
}

func ToGatewayEventResponses(list []model.PaymentGatewayEventModel) []GatewayEventResponse {
	out := make([]GatewayEventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, GatewayEventResponse{
			ID:          e.GatewayEventID,
			PaymentID:   e.GatewayEventPaymentID,
			Provider:    e.GatewayEventProvider,
			Type:        e.GatewayEventType,
			ExternalID:  e.GatewayEventExternalID,
			ExternalRef: e.GatewayEventExternalRef,
			Payload:     e.GatewayEventPayload,
			Status:      e.GatewayEventStatus,
			Error:       e.GatewayEventError,
			ReceivedAt:  e.GatewayEventReceivedAt,
			ProcessedAt: e.GatewayEventProcessedAt,
		})
	}
	return out
}
