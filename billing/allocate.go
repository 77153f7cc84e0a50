/*
allocate.go - Proportional allocator

PURPOSE:
  Splits an arbitrary group total (which may differ from the standard family
  total because of manual overrides, forgiven payments, or custom amounts)
  across N students while preserving the shape of the standard breakdown.

EXACT-SUM GUARANTEE:
  primaryAmount + sum(siblingAmounts) == totalAmount, always.

  Semester mode rounds every intermediate share, then hands the LAST sibling
  whatever remains (totalAmount - distributed) instead of its own rounded
  share. Monthly mode floors an even split and hands the modulo to the
  primary student. Both remainder rules are load-bearing contract, not an
  implementation detail: callers and historical records depend on these
  exact amounts.

ROUNDING:
  Intermediate semester shares round half away from zero (decimal.Round).
  Amounts are whole IQD, so the choice only matters at the half boundary;
  the exact-sum invariant holds regardless via the remainder rule.
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ALLOCATION
// =============================================================================

// Allocate splits totalAmount across studentCount students for the given
// billing mode. The first share belongs to the primary student; the rest
// follow sibling order.
func (c PricingConfig) Allocate(totalAmount int64, studentCount int, mode BillingMode) (AllocationResult, error) {
	if studentCount < 1 {
		return AllocationResult{}, &InvalidGroupError{Reason: "allocation requires at least one student"}
	}
	if totalAmount < 0 {
		return AllocationResult{}, &InvalidGroupError{Reason: fmt.Sprintf("total amount %d is negative", totalAmount)}
	}

	switch mode {
	case ModeMonthly:
		return c.allocateEven(totalAmount, studentCount), nil
	case ModeSemester:
		return c.allocateProportional(totalAmount, studentCount), nil
	default:
		return AllocationResult{}, &InvalidGroupError{Reason: fmt.Sprintf("unknown billing mode %q", mode)}
	}
}

// allocateEven splits the total evenly. Monthly payments have no discount
// tiers to preserve, so the split is a plain floor division with the
// remainder absorbed by the primary student.
func (c PricingConfig) allocateEven(totalAmount int64, studentCount int) AllocationResult {
	perStudent := totalAmount / int64(studentCount)
	remainder := totalAmount % int64(studentCount)

	siblings := make([]int64, studentCount-1)
	for i := range siblings {
		siblings[i] = perStudent
	}
	return AllocationResult{
		PrimaryAmount:  perStudent + remainder,
		SiblingAmounts: siblings,
	}
}

// allocateProportional splits the total preserving the standard semester
// breakdown ratio. Each share except the last sibling's is rounded
// independently; the last sibling receives everything not yet distributed,
// which carries the exact-sum invariant.
func (c PricingConfig) allocateProportional(totalAmount int64, studentCount int) AllocationResult {
	shape := c.allocationShape(studentCount)
	standardTotal := int64(0)
	for _, s := range shape {
		standardTotal += s
	}

	siblings := make([]int64, studentCount-1)

	// Degenerate zero-price configuration: no ratio to preserve, the primary
	// carries the whole total.
	if standardTotal == 0 {
		return AllocationResult{PrimaryAmount: totalAmount, SiblingAmounts: siblings}
	}

	totalDec := decimal.NewFromInt(totalAmount)
	standardDec := decimal.NewFromInt(standardTotal)
	share := func(standard int64) int64 {
		return decimal.NewFromInt(standard).Mul(totalDec).Div(standardDec).Round(0).IntPart()
	}

	primary := share(shape[0])
	distributed := primary
	for i := 0; i < len(siblings); i++ {
		if i == len(siblings)-1 {
			siblings[i] = totalAmount - distributed
			break
		}
		siblings[i] = share(shape[i+1])
		distributed += siblings[i]
	}

	// Single student: shape[0] == standardTotal, so primary == totalAmount.
	return AllocationResult{PrimaryAmount: primary, SiblingAmounts: siblings}
}

// allocationShape is the standard breakdown extended to the full student
// count. Family pricing clamps at MaxFamilySize, but every student in the
// group still needs a share; students past the cap extend the ratio at the
// sibling fee.
func (c PricingConfig) allocationShape(studentCount int) []int64 {
	shape := c.FamilyBreakdown(studentCount)
	for len(shape) < studentCount {
		shape = append(shape, c.AdditionalSiblingFee)
	}
	return shape
}

// CheckAllocation verifies the exact-sum invariant after allocation. A
// failure here is an allocator bug and is treated as fatal by callers.
func CheckAllocation(result AllocationResult, totalAmount int64, studentCount int) error {
	if allocated := result.Total(); allocated != totalAmount {
		return &AllocationInvariantError{
			Total:        totalAmount,
			Allocated:    allocated,
			StudentCount: studentCount,
		}
	}
	return nil
}
