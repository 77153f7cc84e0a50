/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the API surface. These decouple the engine's domain
  model from the external contract.

NAMING CONVENTION:
  - *DTO:     Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry go-playground/validator tags; handlers run the
  validator before touching domain logic.
*/
package api

import (
	"time"

	"github.com/qalam/tuition-engine/billing"
	"github.com/qalam/tuition-engine/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// StudentDTO represents a roster entry in API responses.
type StudentDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BillingMode string `json:"billing_mode"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateStudentRequest is the request to create a student.
type CreateStudentRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// FamilyPaymentRequest is the request to create a family payment group.
//
// Amount is a pointer on purpose: absent means "standard pricing", a present
// zero means an explicit forgiven payment. The two must not be conflated.
type FamilyPaymentRequest struct {
	PrimaryStudentID  string   `json:"primary_student_id" validate:"required"`
	SiblingStudentIDs []string `json:"sibling_student_ids" validate:"omitempty,unique,dive,required"`
	BillingMode       string   `json:"billing_mode" validate:"required,oneof=semester monthly"`
	MonthsCount       int      `json:"months_count" validate:"omitempty,min=1"`
	PeriodStart       string   `json:"period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd         string   `json:"period_end" validate:"omitempty,datetime=2006-01-02,required_with=PeriodStart"`
	Amount            *int64   `json:"amount,omitempty" validate:"omitempty,min=0"`
	Notes             string   `json:"notes"`
}

// PaymentDTO represents one payment record.
type PaymentDTO struct {
	ID               string `json:"id"`
	StudentID        string `json:"student_id"`
	Amount           int64  `json:"amount"`
	BillingMode      string `json:"billing_mode"`
	MonthsCount      int    `json:"months_count,omitempty"`
	PeriodStart      string `json:"period_start"`
	PeriodEnd        string `json:"period_end"`
	Notes            string `json:"notes,omitempty"`
	SiblingNames     string `json:"sibling_names,omitempty"`
	SiblingStudentID string `json:"sibling_student_id,omitempty"`
	SiblingPaymentID string `json:"sibling_payment_id,omitempty"`
	Voided           bool   `json:"voided"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// PricingDTO exposes the effective pricing table.
type PricingDTO struct {
	SingleStudentFee     int64  `json:"single_student_fee"`
	AdditionalSiblingFee int64  `json:"additional_sibling_fee"`
	MonthlyFee           int64  `json:"monthly_fee"`
	MaxFamilySize        int    `json:"max_family_size"`
	SemesterStart        string `json:"semester_start"`
	SemesterEnd          string `json:"semester_end"`
}

// ConflictDTO describes one blocked student in an overlap rejection.
type ConflictDTO struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Period      string `json:"period"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code,omitempty"`
	Conflicts []ConflictDTO `json:"conflicts,omitempty"`
	Details   any           `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toStudentDTO(s sqlite.Student) StudentDTO {
	return StudentDTO{
		ID:          string(s.ID),
		Name:        s.Name,
		BillingMode: string(s.Mode),
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func toPaymentDTO(p billing.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ID:               string(p.ID),
		StudentID:        string(p.StudentID),
		Amount:           p.Amount,
		BillingMode:      string(p.Mode),
		MonthsCount:      p.MonthsCount,
		PeriodStart:      p.Period.Start.Format("2006-01-02"),
		PeriodEnd:        p.Period.End.Format("2006-01-02"),
		Notes:            p.Notes,
		SiblingNames:     p.SiblingNames,
		SiblingStudentID: string(p.SiblingStudentID),
		SiblingPaymentID: string(p.SiblingPaymentID),
		Voided:           p.Voided,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}

func toConflictDTOs(conflicts []billing.Conflict) []ConflictDTO {
	dtos := make([]ConflictDTO, len(conflicts))
	for i, c := range conflicts {
		dtos[i] = ConflictDTO{
			StudentID:   string(c.StudentID),
			StudentName: c.StudentName,
			Period:      c.Existing.String(),
		}
	}
	return dtos
}
