package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hoa_backend/internals/features/finance/fee_instances/model"
)

type AssignFeeRequest struct {
	FeeID            uuid.UUID   `json:"fee_id" validate:"required"`
	AccountHolderIDs []uuid.UUID `json:"account_holder_ids" validate:"required,min=1,dive,required"`
	Months           []int       `json:"months" validate:"required,min=1,max=12,dive,min=1,max=12"`
	Year             int         `json:"year" validate:"required,min=2000,max=2100"`
}

// Normalize drops duplicate holders and months, keeping request order.
func (r *AssignFeeRequest) Normalize() error {
	seenH := make(map[uuid.UUID]struct{}, len(r.AccountHolderIDs))
	holders := r.AccountHolderIDs[:0]
	for _, id := range r.AccountHolderIDs {
		if id == uuid.Nil {
			return errors.New("account_holder_ids contains an empty id")
		}
		if _, ok := seenH[id]; ok {
			continue
		}
		seenH[id] = struct{}{}
		holders = append(holders, id)
	}
	r.AccountHolderIDs = holders

	seenM := make(map[int]struct{}, len(r.Months))
	months := r.Months[:0]
	for _, m := range r.Months {
		if m < 1 || m > 12 {
			return fmt.Errorf("month %d out of range", m)
		}
		if _, ok := seenM[m]; ok {
			continue
		}
		seenM[m] = struct{}{}
		months = append(months, m)
	}
	r.Months = months
	return nil
}

type AssignFeeResponse struct {
	FeeID             uuid.UUID             `json:"fee_id"`
	Year              int                   `json:"year"`
	Months            []int                 `json:"months"`
	Inserted          int                   `json:"inserted"`
	Skipped           int                   `json:"skipped"`
	RejectedHolderIDs []uuid.UUID           `json:"rejected_holder_ids"`
	Instances         []FeeInstanceResponse `json:"instances"`
}

type FeeInstanceResponse struct {
	ID                   uuid.UUID           `json:"fee_instance_id"`
	FeeID                uuid.UUID           `json:"fee_id"`
	AccountHolderID      uuid.UUID           `json:"account_holder_id"`
	AccountHolderName    string              `json:"account_holder_name,omitempty"`
	AccountNumber        *string             `json:"account_number,omitempty"`
	Unit                 string              `json:"unit,omitempty"`
	FeeName              string              `json:"fee_name"`
	Amount               string              `json:"amount"`
	Month                int                 `json:"month"`
	Year                 int                 `json:"year"`
	Status               model.PaymentStatus `json:"payment_status"`
	StatusLabel          string              `json:"payment_status_label"`
	ModeOfPayment        *string             `json:"mode_of_payment,omitempty"`
	ProofOfPayment       *string             `json:"proof_of_payment,omitempty"`
	TransactionDate      *time.Time          `json:"transaction_date,omitempty"`
	TransactionReference *string             `json:"transaction_reference,omitempty"`
	RejectReason         *string             `json:"reject_reason,omitempty"`
	PaidAt               *time.Time          `json:"paid_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
}

func ToFeeInstanceResponse(m *model.FeeInstanceModel) FeeInstanceResponse {
	return FeeInstanceResponse{
		ID:                   m.FeeInstanceID,
		FeeID:                m.FeeInstanceFeeID,
		AccountHolderID:      m.FeeInstanceAccountHolderID,
		FeeName:              m.FeeInstanceFeeName,
		Amount:               m.FeeInstanceAmount.StringFixed(2),
		Month:                m.FeeInstanceMonth,
		Year:                 m.FeeInstanceYear,
		Status:               m.FeeInstanceStatus,
		StatusLabel:          m.FeeInstanceStatus.Label(),
		ModeOfPayment:        m.FeeInstanceModeOfPayment,
		ProofOfPayment:       m.FeeInstanceProofOfPayment,
		TransactionDate:      m.FeeInstanceTransactionDate,
		TransactionReference: m.FeeInstanceTransactionReference,
		RejectReason:         m.FeeInstanceRejectReason,
		PaidAt:               m.FeeInstancePaidAt,
		CreatedAt:            m.FeeInstanceCreatedAt,
	}
}

func ToFeeInstanceResponses(list []model.FeeInstanceModel) []FeeInstanceResponse {
	out := make([]FeeInstanceResponse, 0, len(list))
	for i := range list {
		out = append(out, ToFeeInstanceResponse(&list[i]))
	}
	return out
}

// CandidateHolderResponse is one row of the assignment picker.
type CandidateHolderResponse struct {
	ID            uuid.UUID `json:"resident_id"`
	FullName      string    `json:"full_name"`
	AccountNumber *string   `json:"account_number,omitempty"`
	Block         string    `json:"block"`
	Lot           string    `json:"lot"`
}
