/*
pricing.go - Pricing table and family total/breakdown calculator

PURPOSE:
  Pure pricing arithmetic over an immutable PricingConfig. Semester pricing
  is tiered: the first student pays the full fee, every additional sibling
  pays the discounted sibling fee, capped at MaxFamilySize. Monthly pricing
  is flat per student with no family discount.

INVARIANTS:
  - sum(FamilyBreakdown(n)) == FamilyTotal(n) for all n
  - FamilyTotal(n) == FamilyTotal(MaxFamilySize) for n > MaxFamilySize
  - No side effects; the config is shared read-only by all invocations

CLAMPING:
  Counts below 1 price to zero; counts above MaxFamilySize are silently
  capped. Both are documented behavior, not errors.
*/
package billing

import "fmt"

// =============================================================================
// PRICING CONFIG
// =============================================================================

// PricingConfig is the process-wide pricing table. It is constructed once
// (normally from configuration) and injected into the calculator, allocator
// and builder; there is no package-level pricing state.
type PricingConfig struct {
	// SingleStudentFee is the semester fee for the first student in a family.
	SingleStudentFee int64

	// AdditionalSiblingFee is the semester fee for each further sibling.
	AdditionalSiblingFee int64

	// MonthlyFee is the flat per-student per-month fee in monthly mode.
	MonthlyFee int64

	// MaxFamilySize caps how many students a single family payment covers.
	MaxFamilySize int

	// Semester holds the fixed academic term bounds used when a semester
	// payment does not carry a custom period.
	Semester Period
}

// NewPricingConfig assembles a validated pricing table.
func NewPricingConfig(singleFee, siblingFee, monthlyFee int64, maxFamilySize int, semester Period) (PricingConfig, error) {
	cfg := PricingConfig{
		SingleStudentFee:     singleFee,
		AdditionalSiblingFee: siblingFee,
		MonthlyFee:           monthlyFee,
		MaxFamilySize:        maxFamilySize,
		Semester:             semester,
	}
	if err := cfg.Validate(); err != nil {
		return PricingConfig{}, err
	}
	return cfg, nil
}

// Validate enforces the config invariants: all fees >= 0, MaxFamilySize >= 1,
// and a well-formed semester period.
func (c PricingConfig) Validate() error {
	if c.SingleStudentFee < 0 || c.AdditionalSiblingFee < 0 || c.MonthlyFee < 0 {
		return fmt.Errorf("pricing fees must be non-negative")
	}
	if c.MaxFamilySize < 1 {
		return fmt.Errorf("max family size must be at least 1, got %d", c.MaxFamilySize)
	}
	if !c.Semester.Valid() {
		return fmt.Errorf("semester period %s is inverted", c.Semester.String())
	}
	return nil
}

// SemesterPeriod returns the configured academic term bounds.
func (c PricingConfig) SemesterPeriod() Period { return c.Semester }

// effectiveCount clamps a student count into [0, MaxFamilySize].
func (c PricingConfig) effectiveCount(studentCount int) int {
	if studentCount < 1 {
		return 0
	}
	if studentCount > c.MaxFamilySize {
		return c.MaxFamilySize
	}
	return studentCount
}

// =============================================================================
// FAMILY TOTAL & BREAKDOWN
// =============================================================================

// FamilyTotal returns the combined semester price for a family of the given
// size: one full fee plus a sibling fee per additional student. Counts are
// clamped (below 1 prices to 0, above MaxFamilySize caps silently).
func (c PricingConfig) FamilyTotal(studentCount int) int64 {
	n := c.effectiveCount(studentCount)
	if n == 0 {
		return 0
	}
	return c.SingleStudentFee + int64(n-1)*c.AdditionalSiblingFee
}

// FamilyBreakdown returns the per-student semester price shape: first element
// is the single-student fee, every subsequent element the sibling fee. Length
// equals the clamped count. sum(FamilyBreakdown(n)) == FamilyTotal(n) always.
func (c PricingConfig) FamilyBreakdown(studentCount int) []int64 {
	n := c.effectiveCount(studentCount)
	if n == 0 {
		return nil
	}
	breakdown := make([]int64, n)
	breakdown[0] = c.SingleStudentFee
	for i := 1; i < n; i++ {
		breakdown[i] = c.AdditionalSiblingFee
	}
	return breakdown
}

// MonthlyTotal returns the monthly-mode group price: months * fee * students.
// Even per-student pricing, no sibling discount. The asymmetry with semester
// pricing is intentional.
func (c PricingConfig) MonthlyTotal(monthsCount, studentCount int) int64 {
	if monthsCount < 1 || studentCount < 1 {
		return 0
	}
	return int64(monthsCount) * c.MonthlyFee * int64(studentCount)
}
