/*
Package billing provides the tuition payment engine.

PURPOSE:
  This package contains the core logic for family/sibling payment creation:
  computing a combined price with sibling discounts, splitting that total
  across the participating students, linking the resulting records into a
  payment group, and rejecting payments whose covered period overlaps an
  existing unvoided payment for any student in the group.

KEY CONCEPTS IN THIS FILE (types.go):
  - StudentID/PaymentID: Type-safe identifiers
  - BillingMode: Semester (tiered family pricing) vs monthly (flat per-student)
  - AmountSpec: Tagged "standard vs explicit" total, so an explicit 0 is a
    first-class forgiven payment and never falls back to standard pricing
  - PaymentRecord/PaymentGroup: One primary record plus linked sibling records

DESIGN PRINCIPLES:
  1. The group is constructed fully in memory, then persisted as one unit.
     No two-pass create-then-patch linkage.
  2. Amounts are whole IQD (int64). Fractional units do not exist in this
     domain; rounding only happens inside the allocator.
  3. Payments are never mutated after creation except by void, which is a
     store responsibility (cascade from primary to linked siblings).

SEE ALSO:
  - pricing.go: Pricing table and family total/breakdown
  - allocate.go: Proportional and even splitting
  - overlap.go: Period-overlap validation
  - builder.go: Orchestration of the above
*/
package billing

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StudentID string
type PaymentID string

// =============================================================================
// BILLING MODE
// =============================================================================

type BillingMode string

const (
	// ModeSemester bills the fixed academic term with tiered family pricing:
	// one single-student fee plus a discounted fee per additional sibling.
	ModeSemester BillingMode = "semester"

	// ModeMonthly bills per month at a flat per-student rate. There is no
	// sibling discount in monthly mode. The asymmetry with semester pricing
	// is intentional.
	ModeMonthly BillingMode = "monthly"
)

func (m BillingMode) Valid() bool {
	return m == ModeSemester || m == ModeMonthly
}

// =============================================================================
// AMOUNT SPEC - "standard pricing" vs explicit override
// =============================================================================

// AmountSpec distinguishes "no amount given, apply standard pricing" from
// "amount given", including an explicit zero (a forgiven payment). Callers
// must never encode a forgiven payment as an absent amount.
type AmountSpec struct {
	explicit bool
	value    int64
}

// StandardAmount means the builder computes the total from the pricing table.
func StandardAmount() AmountSpec { return AmountSpec{} }

// ExplicitAmount overrides standard pricing with the given total.
// ExplicitAmount(0) creates a free/forgiven payment group.
func ExplicitAmount(v int64) AmountSpec { return AmountSpec{explicit: true, value: v} }

// Explicit returns the override value and whether one was supplied.
func (a AmountSpec) Explicit() (int64, bool) { return a.value, a.explicit }

// =============================================================================
// FAMILY MEMBERS AND PAYMENT INTENT
// =============================================================================

// FamilyMember references a student by identifier plus display name.
// The engine only reads these; it does not own student records.
type FamilyMember struct {
	ID   StudentID
	Name string
}

// PaymentIntent is the input to the payment group builder.
//
// Siblings are ordered: allocation result order and display order follow the
// sibling order given here. IDs must be unique and must not repeat the primary.
type PaymentIntent struct {
	Primary  FamilyMember
	Siblings []FamilyMember
	Mode     BillingMode

	// MonthsCount applies in monthly mode only. Must be >= 1.
	MonthsCount int

	// Period is the inclusive span of service this payment covers.
	// Zero value in semester mode means "the configured semester bounds".
	Period Period

	// Amount selects standard pricing or an explicit total override.
	Amount AmountSpec

	Notes string
}

// Members returns all participants, primary first.
func (in PaymentIntent) Members() []FamilyMember {
	members := make([]FamilyMember, 0, 1+len(in.Siblings))
	members = append(members, in.Primary)
	return append(members, in.Siblings...)
}

// StudentIDs returns all participant IDs, primary first.
func (in PaymentIntent) StudentIDs() []StudentID {
	ids := make([]StudentID, 0, 1+len(in.Siblings))
	ids = append(ids, in.Primary.ID)
	for _, s := range in.Siblings {
		ids = append(ids, s.ID)
	}
	return ids
}

// =============================================================================
// ALLOCATION RESULT
// =============================================================================

// AllocationResult is the per-student split of a group total.
//
// INVARIANT: PrimaryAmount + sum(SiblingAmounts) == the allocated total,
// exactly. SiblingAmounts order matches the sibling order of the intent.
type AllocationResult struct {
	PrimaryAmount  int64
	SiblingAmounts []int64
}

// Total returns the exact sum of all allocated amounts.
func (r AllocationResult) Total() int64 {
	total := r.PrimaryAmount
	for _, a := range r.SiblingAmounts {
		total += a
	}
	return total
}

// =============================================================================
// PAYMENT RECORDS
// =============================================================================

// PaymentRecord is one persisted payment row. A primary record has empty
// SiblingStudentID/SiblingPaymentID; a sibling record carries the primary
// student's ID and the primary payment's ID.
type PaymentRecord struct {
	ID        PaymentID
	StudentID StudentID
	Amount    int64
	Mode      BillingMode

	// MonthsCount is retained for monthly payments (0 for semester).
	MonthsCount int

	Period Period
	Notes  string

	// SiblingNames is the joined display string of every participant in the
	// group, identical on all records including the primary.
	SiblingNames string

	SiblingStudentID StudentID
	SiblingPaymentID PaymentID

	// Voided payments are soft-deleted: excluded from overlap checks and
	// totals, retained for audit.
	Voided bool

	CreatedAt time.Time
}

// IsSibling reports whether this record is linked to a primary payment.
func (p PaymentRecord) IsSibling() bool { return p.SiblingPaymentID != "" }

// PaymentGroup is the complete output of one family payment: the primary
// record plus zero or more linked sibling records. Groups are persisted
// atomically; either all records exist or none do.
type PaymentGroup struct {
	Primary  PaymentRecord
	Siblings []PaymentRecord
}

// Records returns all records in the group, primary first.
func (g PaymentGroup) Records() []PaymentRecord {
	records := make([]PaymentRecord, 0, 1+len(g.Siblings))
	records = append(records, g.Primary)
	return append(records, g.Siblings...)
}

// Total returns the combined amount across the group.
func (g PaymentGroup) Total() int64 {
	total := g.Primary.Amount
	for _, s := range g.Siblings {
		total += s.Amount
	}
	return total
}

// StudentIDs returns the IDs of every student billed by this group.
func (g PaymentGroup) StudentIDs() []StudentID {
	ids := make([]StudentID, 0, 1+len(g.Siblings))
	ids = append(ids, g.Primary.StudentID)
	for _, s := range g.Siblings {
		ids = append(ids, s.StudentID)
	}
	return ids
}
