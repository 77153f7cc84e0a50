/*
builder.go - Payment group builder (orchestration)

PURPOSE:
  Orchestrates one family payment from intent to persisted group:

    Validating -> Allocating -> Persisting -> Done
    Validating -> Rejected (terminal, on any period conflict)

  1. Validating:  shape-check the intent, then run the overlap validator for
     the primary and every sibling against their own non-voided histories.
     Any conflict rejects the whole group with the full conflict list.
  2. Allocating:  resolve the group total (explicit override, including an
     explicit 0 for forgiven payments, or standard pricing) and split it.
  3. Persisting:  construct the complete group in memory - primary plus
     linked siblings, identical period/mode/notes/siblingNames on every
     record - and hand it to the store as one atomic unit, together with
     each participant's billing-mode preference update.
  4. Done:        return the primary record; callers resolve siblings via
     the store when needed.

FAILURE SEMANTICS:
  Conflicts are reported, not retried. Store errors pass through unchanged.
  A store failure leaves no partial group (store contract).
*/
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/qalam/tuition-engine/logger"
)

// =============================================================================
// BUILDER
// =============================================================================

// Builder creates family payment groups. It is safe for concurrent use; the
// pricing table is immutable and each call is independent.
type Builder struct {
	pricing PricingConfig
	store   PaymentStore
	log     *logger.Logger

	now   func() time.Time
	newID func() PaymentID
}

// BuilderOption customizes a Builder (clock and ID generation, mainly for
// tests).
type BuilderOption func(*Builder)

func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

func WithIDGenerator(newID func() PaymentID) BuilderOption {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder wires a builder with its pricing table and store.
func NewBuilder(pricing PricingConfig, store PaymentStore, log *logger.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		pricing: pricing,
		store:   store,
		log:     log,
		now:     time.Now,
		newID:   func() PaymentID { return PaymentID(ulid.Make().String()) },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// =============================================================================
// CREATE FAMILY PAYMENT
// =============================================================================

// CreateFamilyPayment runs the full state machine for one intent and returns
// the primary payment record of the created group.
func (b *Builder) CreateFamilyPayment(ctx context.Context, intent PaymentIntent) (*PaymentRecord, error) {
	intent, err := b.normalizeIntent(intent)
	if err != nil {
		return nil, err
	}

	// Validating: every participant's history, every conflict reported.
	history, err := b.store.ActivePayments(ctx, intent.StudentIDs())
	if err != nil {
		return nil, err
	}
	if err := CheckGroup(intent.Period, intent.Members(), history); err != nil {
		b.log.Warnw("family payment rejected",
			"primary_student", intent.Primary.ID,
			"period", intent.Period.String(),
		)
		return nil, err
	}

	// Allocating.
	studentCount := 1 + len(intent.Siblings)
	total := b.resolveTotal(intent, studentCount)
	allocation, err := b.pricing.Allocate(total, studentCount, intent.Mode)
	if err != nil {
		return nil, err
	}
	if err := CheckAllocation(allocation, total, studentCount); err != nil {
		return nil, err
	}

	// Persisting: full group constructed up front, one atomic write.
	group := b.buildGroup(intent, allocation)
	if err := b.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	b.log.Infow("family payment created",
		"payment_id", group.Primary.ID,
		"primary_student", group.Primary.StudentID,
		"students", studentCount,
		"mode", intent.Mode,
		"total", total,
		"period", intent.Period.String(),
	)
	return &group.Primary, nil
}

// normalizeIntent shape-checks the intent and fills the default semester
// period when none was given.
func (b *Builder) normalizeIntent(intent PaymentIntent) (PaymentIntent, error) {
	if intent.Primary.ID == "" {
		return intent, &InvalidGroupError{Reason: "primary student is required"}
	}
	if !intent.Mode.Valid() {
		return intent, &InvalidGroupError{Reason: fmt.Sprintf("unknown billing mode %q", intent.Mode)}
	}

	seen := map[StudentID]bool{intent.Primary.ID: true}
	for _, s := range intent.Siblings {
		if s.ID == "" {
			return intent, &InvalidGroupError{Reason: "sibling student id is empty"}
		}
		if seen[s.ID] {
			return intent, &InvalidGroupError{Reason: fmt.Sprintf("student %s appears twice in the group", s.ID)}
		}
		seen[s.ID] = true
	}

	if intent.Mode == ModeMonthly && intent.MonthsCount < 1 {
		return intent, &InvalidGroupError{Reason: fmt.Sprintf("months count must be positive, got %d", intent.MonthsCount)}
	}
	if intent.Mode == ModeSemester && intent.Period.IsZero() {
		intent.Period = b.pricing.SemesterPeriod()
	}
	if !intent.Period.Valid() {
		return intent, &InvalidGroupError{Reason: fmt.Sprintf("period %s ends before it starts", intent.Period.String())}
	}
	return intent, nil
}

// resolveTotal picks the group total: an explicit override is used as-is
// (an explicit 0 is a forgiven payment, never replaced by standard pricing);
// otherwise standard pricing applies for the mode.
func (b *Builder) resolveTotal(intent PaymentIntent, studentCount int) int64 {
	if v, ok := intent.Amount.Explicit(); ok {
		return v
	}
	if intent.Mode == ModeMonthly {
		return b.pricing.MonthlyTotal(intent.MonthsCount, studentCount)
	}
	return b.pricing.FamilyTotal(studentCount)
}

// buildGroup materializes the full payment group in memory. All fields,
// including the joined participant names on every record, are known before
// anything is persisted.
func (b *Builder) buildGroup(intent PaymentIntent, allocation AllocationResult) PaymentGroup {
	createdAt := b.now()
	names := strings.Join(lo.Map(intent.Members(), func(m FamilyMember, _ int) string {
		return m.Name
	}), ", ")

	monthsCount := 0
	if intent.Mode == ModeMonthly {
		monthsCount = intent.MonthsCount
	}

	primary := PaymentRecord{
		ID:           b.newID(),
		StudentID:    intent.Primary.ID,
		Amount:       allocation.PrimaryAmount,
		Mode:         intent.Mode,
		MonthsCount:  monthsCount,
		Period:       intent.Period,
		Notes:        intent.Notes,
		SiblingNames: names,
		CreatedAt:    createdAt,
	}

	siblings := make([]PaymentRecord, len(intent.Siblings))
	for i, member := range intent.Siblings {
		siblings[i] = PaymentRecord{
			ID:               b.newID(),
			StudentID:        member.ID,
			Amount:           allocation.SiblingAmounts[i],
			Mode:             intent.Mode,
			MonthsCount:      monthsCount,
			Period:           intent.Period,
			Notes:            intent.Notes,
			SiblingNames:     names,
			SiblingStudentID: intent.Primary.ID,
			SiblingPaymentID: primary.ID,
			CreatedAt:        createdAt,
		}
	}

	return PaymentGroup{Primary: primary, Siblings: siblings}
}
