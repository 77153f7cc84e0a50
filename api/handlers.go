/*
handlers.go - HTTP handlers for the tuition payment API

PURPOSE:
  Exposes the payment engine over REST. Handlers parse and validate input,
  resolve student records, delegate to the engine, and map engine errors to
  HTTP statuses. No pricing or allocation logic lives here.

ENDPOINTS:
  Students:
    GET    /api/students                 List roster
    POST   /api/students                 Create student
    GET    /api/students/{id}            Get student
    GET    /api/students/{id}/payments   Payment history (voided flagged)

  Payments:
    POST   /api/payments/family          Create a family payment group
    GET    /api/payments/{id}            Get one payment record
    POST   /api/payments/{id}/void       Void (cascades from primary)

  Pricing:
    GET    /api/pricing                  Effective pricing table

ERROR MAPPING:
  400: malformed body, validation failure, InvalidGroupError
  404: unknown student or payment
  409: PeriodOverlapError (full conflict list in the response)
  500: everything else
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/qalam/tuition-engine/billing"
	"github.com/qalam/tuition-engine/logger"
	"github.com/qalam/tuition-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Builder *billing.Builder
	Pricing billing.PricingConfig

	log      *logger.Logger
	validate *validator.Validate
}

// NewHandler wires the API with its store, pricing table and logger.
func NewHandler(store *sqlite.Store, pricing billing.PricingConfig, log *logger.Logger) *Handler {
	return &Handler{
		Store:    store,
		Builder:  billing.NewBuilder(pricing, store, log),
		Pricing:  pricing,
		log:      log,
		validate: validator.New(),
	}
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns the roster.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStudent adds a student to the roster.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	student := sqlite.Student{
		ID:   billing.StudentID(req.ID),
		Name: req.Name,
	}
	if err := h.Store.SaveStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student", err)
		return
	}

	writeJSON(w, http.StatusCreated, StudentDTO{
		ID:          req.ID,
		Name:        req.Name,
		BillingMode: string(billing.ModeSemester),
	})
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := billing.StudentID(chi.URLParam(r, "id"))

	student, err := h.Store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*student))
}

// GetStudentPayments returns a student's full payment history, voided
// records included and flagged.
func (h *Handler) GetStudentPayments(w http.ResponseWriter, r *http.Request) {
	id := billing.StudentID(chi.URLParam(r, "id"))

	student, err := h.Store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}

	payments, err := h.Store.PaymentsByStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CreateFamilyPayment creates one payment group for a family.
func (h *Handler) CreateFamilyPayment(w http.ResponseWriter, r *http.Request) {
	var req FamilyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	intent, err := h.buildIntent(r, req)
	if err != nil {
		var notFound *studentNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to resolve students", err)
		return
	}

	primary, err := h.Builder.CreateFamilyPayment(r.Context(), *intent)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentDTO(*primary))
}

// buildIntent resolves the request's student IDs against the roster and
// assembles the engine intent.
func (h *Handler) buildIntent(r *http.Request, req FamilyPaymentRequest) (*billing.PaymentIntent, error) {
	resolve := func(id string) (billing.FamilyMember, error) {
		student, err := h.Store.GetStudent(r.Context(), billing.StudentID(id))
		if err != nil {
			return billing.FamilyMember{}, err
		}
		if student == nil {
			return billing.FamilyMember{}, errStudentNotFound(id)
		}
		return billing.FamilyMember{ID: student.ID, Name: student.Name}, nil
	}

	primary, err := resolve(req.PrimaryStudentID)
	if err != nil {
		return nil, err
	}
	siblings := make([]billing.FamilyMember, 0, len(req.SiblingStudentIDs))
	for _, id := range req.SiblingStudentIDs {
		member, err := resolve(id)
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, member)
	}

	var period billing.Period
	if req.PeriodStart != "" {
		start, _ := time.Parse("2006-01-02", req.PeriodStart)
		end, _ := time.Parse("2006-01-02", req.PeriodEnd)
		period = billing.NewPeriod(start, end)
	}

	amount := billing.StandardAmount()
	if req.Amount != nil {
		amount = billing.ExplicitAmount(*req.Amount)
	}

	return &billing.PaymentIntent{
		Primary:     primary,
		Siblings:    siblings,
		Mode:        billing.BillingMode(req.BillingMode),
		MonthsCount: req.MonthsCount,
		Period:      period,
		Amount:      amount,
		Notes:       req.Notes,
	}, nil
}

// GetPayment returns one payment record.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	payment, err := h.Store.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payment", err)
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*payment))
}

// VoidPayment soft-deletes a payment. Voiding a primary cascades to its
// linked sibling payments.
func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	payment, err := h.Store.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payment", err)
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}

	if err := h.Store.VoidPayment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to void payment", err)
		return
	}

	h.log.Infow("payment voided", "payment_id", id, "student_id", payment.StudentID)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRICING HANDLER
// =============================================================================

// GetPricing returns the effective pricing table.
func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	semester := h.Pricing.SemesterPeriod()
	writeJSON(w, http.StatusOK, PricingDTO{
		SingleStudentFee:     h.Pricing.SingleStudentFee,
		AdditionalSiblingFee: h.Pricing.AdditionalSiblingFee,
		MonthlyFee:           h.Pricing.MonthlyFee,
		MaxFamilySize:        h.Pricing.MaxFamilySize,
		SemesterStart:        semester.Start.Format("2006-01-02"),
		SemesterEnd:          semester.End.Format("2006-01-02"),
	})
}

// =============================================================================
// ERROR MAPPING & RESPONSE HELPERS
// =============================================================================

type studentNotFoundError struct{ id string }

func (e *studentNotFoundError) Error() string { return "student not found: " + e.id }

func errStudentNotFound(id string) error { return &studentNotFoundError{id: id} }

// writeEngineError maps engine errors onto HTTP responses. Overlap
// rejections carry the full per-student conflict list so the UI can show
// every blocked student, not just the first.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var overlapErr *billing.PeriodOverlapError
	if errors.As(err, &overlapErr) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     "Requested period overlaps existing payments",
			Code:      "period_overlap",
			Conflicts: toConflictDTOs(overlapErr.Conflicts),
		})
		return
	}

	var groupErr *billing.InvalidGroupError
	if errors.As(err, &groupErr) {
		writeError(w, http.StatusBadRequest, groupErr.Reason, nil)
		return
	}

	h.log.Errorw("family payment failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to create payment", err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
