/*
overlap.go - Period overlap validation

PURPOSE:
  Prevents double-billing any student for a time range already covered by a
  non-voided payment. Validation runs independently per student in the
  requested group; a single conflict anywhere rejects the entire group, and
  the rejection reports EVERY conflict found, never just the first.

COMPARISON SEMANTICS:
  Periods are compared at calendar-day granularity with strict inequality
  (see Period.Overlaps). A payment may begin the calendar day a prior
  payment ends. Preserve this comparison exactly; do not "fix" the boundary
  behavior without product confirmation.
*/
package billing

// =============================================================================
// EXISTING PAYMENT HISTORY
// =============================================================================

// ExistingPayment is the read-only slice of a student's payment history the
// validator needs. Voided records never participate in overlap checks.
type ExistingPayment struct {
	StudentID StudentID
	Period    Period
	Voided    bool
}

// =============================================================================
// OVERLAP VALIDATION
// =============================================================================

// FindOverlaps returns the periods of every non-voided existing payment that
// conflicts with the candidate period. Empty means no conflict.
func FindOverlaps(candidate Period, existing []ExistingPayment) []Period {
	var conflicts []Period
	for _, e := range existing {
		if e.Voided {
			continue
		}
		if candidate.Overlaps(e.Period) {
			conflicts = append(conflicts, e.Period)
		}
	}
	return conflicts
}

// CheckGroup validates the candidate period for every member of the group
// against that member's own history. If any member has any conflict the
// whole group is rejected with a PeriodOverlapError carrying the full
// conflict list.
func CheckGroup(candidate Period, members []FamilyMember, history map[StudentID][]ExistingPayment) error {
	var conflicts []Conflict
	for _, m := range members {
		for _, p := range FindOverlaps(candidate, history[m.ID]) {
			conflicts = append(conflicts, Conflict{
				StudentID:   m.ID,
				StudentName: m.Name,
				Existing:    p,
			})
		}
	}
	if len(conflicts) > 0 {
		return &PeriodOverlapError{Requested: candidate, Conflicts: conflicts}
	}
	return nil
}
