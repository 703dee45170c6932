package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"hoa_backend/internals/features/households/residents/model"
)

type CreateResidentRequest struct {
	FirstName       string  `json:"first_name" validate:"required,max=80"`
	MiddleName      *string `json:"middle_name" validate:"omitempty,max=80"`
	LastName        string  `json:"last_name" validate:"required,max=80"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	Block           string  `json:"block" validate:"required,max=16"`
	Lot             string  `json:"lot" validate:"required,max=16"`
	Kind            string  `json:"kind" validate:"required,oneof=owner member tenant"`
	IsAccountHolder bool    `json:"is_account_holder"`
}

func (r CreateResidentRequest) ToModel() *model.ResidentModel {
	return &model.ResidentModel{
		ResidentFirstName:  strings.TrimSpace(r.FirstName),
		ResidentMiddleName: trimOrNil(r.MiddleName),
		ResidentLastName:   strings.TrimSpace(r.LastName),
		ResidentEmail:      trimOrNil(r.Email),
		ResidentPhone:      trimOrNil(r.Phone),
		ResidentBlock:      normalizeUnit(r.Block),
		ResidentLot:        normalizeUnit(r.Lot),
		ResidentKind:       model.ResidentKind(r.Kind),
		ResidentIsActive:   true,
	}
}

type UpdateResidentRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=80"`
	MiddleName *string `json:"middle_name" validate:"omitempty,max=80"`
	LastName   *string `json:"last_name" validate:"omitempty,max=80"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Kind       *string `json:"kind" validate:"omitempty,oneof=owner member tenant"`
}

// ApplyResidentUpdate patches contact details. Block/lot and the account holder
// flag are changed through dedicated operations.
func ApplyResidentUpdate(m *model.ResidentModel, r UpdateResidentRequest) {
	if r.FirstName != nil {
		m.ResidentFirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.MiddleName != nil {
		m.ResidentMiddleName = trimOrNil(r.MiddleName)
	}
	if r.LastName != nil {
		m.ResidentLastName = strings.TrimSpace(*r.LastName)
	}
	if r.Email != nil {
		m.ResidentEmail = trimOrNil(r.Email)
	}
	if r.Phone != nil {
		m.ResidentPhone = trimOrNil(r.Phone)
	}
	if r.Kind != nil {
		m.ResidentKind = model.ResidentKind(*r.Kind)
	}
}

type ResidentResponse struct {
	ID              uuid.UUID          `json:"resident_id"`
	FirstName       string             `json:"first_name"`
	MiddleName      *string            `json:"middle_name,omitempty"`
	LastName        string             `json:"last_name"`
	FullName        string             `json:"full_name"`
	Email           *string            `json:"email,omitempty"`
	Phone           *string            `json:"phone,omitempty"`
	Block           string             `json:"block"`
	Lot             string             `json:"lot"`
	Unit            string             `json:"unit"`
	Kind            model.ResidentKind `json:"kind"`
	IsAccountHolder bool               `json:"is_account_holder"`
	AccountNumber   *string            `json:"account_number,omitempty"`
	IsActive        bool               `json:"is_active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func ToResidentResponse(m *model.ResidentModel) ResidentResponse {
	return ResidentResponse{
		ID:              m.ResidentID,
		FirstName:       m.ResidentFirstName,
		MiddleName:      m.ResidentMiddleName,
		LastName:        m.ResidentLastName,
		FullName:        m.FullName(),
		Email:           m.ResidentEmail,
		Phone:           m.ResidentPhone,
		Block:           m.ResidentBlock,
		Lot:             m.ResidentLot,
		Unit:            m.Unit(),
		Kind:            m.ResidentKind,
		IsAccountHolder: m.ResidentIsAccountHolder,
		AccountNumber:   m.ResidentAccountNumber,
		IsActive:        m.ResidentIsActive,
		CreatedAt:       m.ResidentCreatedAt,
		UpdatedAt:       m.ResidentUpdatedAt,
	}
}

func ToResidentResponses(list []model.ResidentModel) []ResidentResponse {
	out := make([]ResidentResponse, 0, len(list))
	for i := range list {
		out = append(out, ToResidentResponse(&list[i]))
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

func normalizeUnit(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
