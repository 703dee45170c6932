package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hoa_backend/internals/features/finance/fees/model"
)

var maxFeeAmount = decimal.NewFromInt(10_000_000)

type CreateFeeRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=120"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Amount      decimal.Decimal `json:"amount"`
}

func (r CreateFeeRequest) Validate() error {
	return validateAmount(r.Amount)
}

func (r CreateFeeRequest) ToModel() *model.FeeModel {
	return &model.FeeModel{
		FeeName:        strings.TrimSpace(r.Name),
		FeeDescription: trimOrNil(r.Description),
		FeeAmount:      r.Amount.Round(2),
	}
}

type UpdateFeeRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Amount      *decimal.Decimal `json:"amount"`
}

func (r UpdateFeeRequest) Validate() error {
	if r.Amount != nil {
		return validateAmount(*r.Amount)
	}
	return nil
}

// ApplyFeeUpdate patches the catalog row only; issued fee instances keep
// their own snapshot.
func ApplyFeeUpdate(m *model.FeeModel, r UpdateFeeRequest) {
	if r.Name != nil {
		m.FeeName = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		m.FeeDescription = trimOrNil(r.Description)
	}
	if r.Amount != nil {
		m.FeeAmount = r.Amount.Round(2)
	}
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if a.GreaterThan(maxFeeAmount) {
		return errors.New("amount is too large")
	}
	if a.Exponent() < -2 && !a.Equal(a.Round(2)) {
		return errors.New("amount must have at most 2 decimal places")
	}
	return nil
}

type FeeResponse struct {
	ID          uuid.UUID `json:"fee_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToFeeResponse(m *model.FeeModel) FeeResponse {
	return FeeResponse{
		ID:          m.FeeID,
		Name:        m.FeeName,
		Description: m.FeeDescription,
		Amount:      m.FeeAmount.StringFixed(2),
		CreatedAt:   m.FeeCreatedAt,
		UpdatedAt:   m.FeeUpdatedAt,
	}
}

func ToFeeResponses(list []model.FeeModel) []FeeResponse {
	out := make([]FeeResponse, 0, len(list))
	for i := range list {
		out = append(out, ToFeeResponse(&list[i]))
	}
	return out
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
