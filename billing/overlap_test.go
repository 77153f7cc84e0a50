package billing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam/tuition-engine/billing"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func period(startYear int, startMonth time.Month, startDay, endYear int, endMonth time.Month, endDay int) billing.Period {
	return billing.NewDayPeriod(startYear, startMonth, startDay, endYear, endMonth, endDay)
}

func paid(studentID string, p billing.Period) billing.ExistingPayment {
	return billing.ExistingPayment{StudentID: billing.StudentID(studentID), Period: p}
}

func voided(studentID string, p billing.Period) billing.ExistingPayment {
	return billing.ExistingPayment{StudentID: billing.StudentID(studentID), Period: p, Voided: true}
}

// =============================================================================
// OVERLAP DETECTION
// =============================================================================

func TestFindOverlaps_FullOverlapRejected(t *testing.T) {
	// GIVEN: An existing payment covering Jan 1 - Jul 1
	// WHEN: Requesting Feb 1 - Mar 1 for the same student
	// THEN: Conflict (the new period sits inside the existing coverage)

	existing := []billing.ExistingPayment{
		paid("std-1", period(2026, time.January, 1, 2026, time.July, 1)),
	}
	candidate := period(2026, time.February, 1, 2026, time.March, 1)

	conflicts := billing.FindOverlaps(candidate, existing)
	require.Len(t, conflicts, 1)
	assert.Equal(t, existing[0].Period, conflicts[0])
}

func TestFindOverlaps_AdjacentPeriodsAllowed(t *testing.T) {
	// GIVEN: An existing payment covering Jan 1 - Feb 1
	// WHEN: Requesting Feb 1 - Mar 1 (starts the day the prior one ends)
	// THEN: No conflict. The same-day handoff is intentional.

	existing := []billing.ExistingPayment{
		paid("std-1", period(2026, time.January, 1, 2026, time.February, 1)),
	}
	candidate := period(2026, time.February, 1, 2026, time.March, 1)

	assert.Empty(t, billing.FindOverlaps(candidate, existing))
}

func TestFindOverlaps_EndingOnExistingStartAllowed(t *testing.T) {
	// Symmetric case: the new period may END the calendar day an existing
	// period begins.

	existing := []billing.ExistingPayment{
		paid("std-1", period(2026, time.March, 1, 2026, time.April, 1)),
	}
	candidate := period(2026, time.February, 1, 2026, time.March, 1)

	assert.Empty(t, billing.FindOverlaps(candidate, existing))
}

func TestFindOverlaps_OneDayIntrusionRejected(t *testing.T) {
	// Overlapping by a single day (ending the day AFTER the next period
	// starts) is a conflict.

	existing := []billing.ExistingPayment{
		paid("std-1", period(2026, time.March, 1, 2026, time.April, 1)),
	}
	candidate := period(2026, time.February, 1, 2026, time.March, 2)

	assert.Len(t, billing.FindOverlaps(candidate, existing), 1)
}

func TestFindOverlaps_IgnoresTimeOfDay(t *testing.T) {
	// Comparison runs on calendar days, never clock times. An existing
	// record stored with odd timestamps behaves exactly like its day span.

	// Day span: Jan 1 - Feb 2.
	existing := []billing.ExistingPayment{
		paid("std-1", billing.NewPeriod(
			time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2026, time.February, 2, 22, 15, 0, 0, time.UTC))),
	}

	// Starts a day inside the existing coverage: conflict, even though the
	// clock times alone would not collide.
	intruding := billing.NewPeriod(
		time.Date(2026, time.February, 1, 23, 30, 0, 0, time.UTC),
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, billing.FindOverlaps(intruding, existing), 1,
		"day-level intrusion must conflict regardless of clock time")

	// Starts on the existing end day: the same-day handoff applies even
	// though 06:00 is earlier than the stored 22:15 end.
	handoff := billing.NewPeriod(
		time.Date(2026, time.February, 2, 6, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, billing.FindOverlaps(handoff, existing))
}

func TestFindOverlaps_VoidedPaymentsExcluded(t *testing.T) {
	// GIVEN: A voided payment covering the requested period
	// THEN: No conflict; voided records never participate in overlap checks

	existing := []billing.ExistingPayment{
		voided("std-1", period(2026, time.January, 1, 2026, time.July, 1)),
	}
	candidate := period(2026, time.February, 1, 2026, time.March, 1)

	assert.Empty(t, billing.FindOverlaps(candidate, existing))
}

func TestFindOverlaps_ReportsEveryConflict(t *testing.T) {
	// A long candidate period crossing two existing payments reports both.

	existing := []billing.ExistingPayment{
		paid("std-1", period(2026, time.January, 1, 2026, time.February, 1)),
		paid("std-1", period(2026, time.March, 1, 2026, time.April, 1)),
	}
	candidate := period(2026, time.January, 15, 2026, time.March, 15)

	assert.Len(t, billing.FindOverlaps(candidate, existing), 2)
}

// =============================================================================
// GROUP-LEVEL VALIDATION
// =============================================================================

func TestCheckGroup_SingleConflictRejectsWholeGroup(t *testing.T) {
	// GIVEN: A 3-student family where only student #2 has prior coverage
	// WHEN: Validating the group for an overlapping period
	// THEN: The group is rejected and the conflict names student #2
	//       specifically, with a human-readable period

	members := []billing.FamilyMember{
		{ID: "std-1", Name: "Ahmed"},
		{ID: "std-2", Name: "Sara"},
		{ID: "std-3", Name: "Omar"},
	}
	history := map[billing.StudentID][]billing.ExistingPayment{
		"std-2": {paid("std-2", period(2026, time.January, 1, 2026, time.July, 1))},
	}
	candidate := period(2026, time.February, 1, 2026, time.March, 1)

	err := billing.CheckGroup(candidate, members, history)
	require.Error(t, err)
	assert.True(t, errors.Is(err, billing.ErrPeriodOverlap))

	var overlapErr *billing.PeriodOverlapError
	require.ErrorAs(t, err, &overlapErr)
	require.Len(t, overlapErr.Conflicts, 1)
	assert.Equal(t, billing.StudentID("std-2"), overlapErr.Conflicts[0].StudentID)
	assert.Equal(t, "Sara", overlapErr.Conflicts[0].StudentName)
	assert.Contains(t, overlapErr.Conflicts[0].Description(), "Sara")
	assert.Contains(t, overlapErr.Conflicts[0].Description(), "2026-01-01")
}

func TestCheckGroup_AllConflictsReported(t *testing.T) {
	// Two blocked students -> two conflicts, never just the first.

	members := []billing.FamilyMember{
		{ID: "std-1", Name: "Ahmed"},
		{ID: "std-2", Name: "Sara"},
	}
	covering := period(2026, time.January, 1, 2026, time.July, 1)
	history := map[billing.StudentID][]billing.ExistingPayment{
		"std-1": {paid("std-1", covering)},
		"std-2": {paid("std-2", covering)},
	}

	err := billing.CheckGroup(period(2026, time.February, 1, 2026, time.March, 1), members, history)

	var overlapErr *billing.PeriodOverlapError
	require.ErrorAs(t, err, &overlapErr)
	assert.Len(t, overlapErr.Conflicts, 2)
	assert.ElementsMatch(t,
		[]billing.StudentID{"std-1", "std-2"}, overlapErr.BlockedStudents())
}

func TestCheckGroup_CleanHistoryPasses(t *testing.T) {
	members := []billing.FamilyMember{{ID: "std-1", Name: "Ahmed"}}
	history := map[billing.StudentID][]billing.ExistingPayment{
		"std-1": {paid("std-1", period(2025, time.September, 1, 2025, time.December, 31))},
	}

	err := billing.CheckGroup(period(2026, time.January, 1, 2026, time.July, 1), members, history)
	assert.NoError(t, err)
}
