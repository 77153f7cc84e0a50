package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam/tuition-engine/billing"
	"github.com/qalam/tuition-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedStudents(t *testing.T, s *sqlite.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		err := s.SaveStudent(context.Background(), sqlite.Student{
			ID:   billing.StudentID(id),
			Name: "Student " + id,
		})
		require.NoError(t, err)
	}
}

func semesterPeriod() billing.Period {
	return billing.NewDayPeriod(2026, time.January, 1, 2026, time.July, 1)
}

func record(paymentID, studentID string, amount int64, p billing.Period) billing.PaymentRecord {
	return billing.PaymentRecord{
		ID:        billing.PaymentID(paymentID),
		StudentID: billing.StudentID(studentID),
		Amount:    amount,
		Mode:      billing.ModeSemester,
		Period:    p,
		CreatedAt: time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC),
	}
}

func familyGroup(primaryPaymentID, primaryStudent string, siblingStudents ...string) billing.PaymentGroup {
	p := semesterPeriod()
	primary := record(primaryPaymentID, primaryStudent, 25000, p)
	primary.SiblingNames = "family"

	var siblings []billing.PaymentRecord
	for _, student := range siblingStudents {
		sibling := record(primaryPaymentID+"-sib-"+student, student, 20000, p)
		sibling.SiblingNames = "family"
		sibling.SiblingStudentID = primary.StudentID
		sibling.SiblingPaymentID = primary.ID
		siblings = append(siblings, sibling)
	}
	return billing.PaymentGroup{Primary: primary, Siblings: siblings}
}

// =============================================================================
// STUDENTS
// =============================================================================

func TestStudentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveStudent(ctx, sqlite.Student{ID: "std-1", Name: "Ahmed"}))

	student, err := s.GetStudent(ctx, "std-1")
	require.NoError(t, err)
	require.NotNil(t, student)
	assert.Equal(t, "Ahmed", student.Name)
	assert.Equal(t, billing.ModeSemester, student.Mode, "billing mode defaults to semester")

	// Saving again updates the name, keeps the mode.
	require.NoError(t, s.SaveStudent(ctx, sqlite.Student{ID: "std-1", Name: "Ahmed K."}))
	student, err = s.GetStudent(ctx, "std-1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmed K.", student.Name)

	missing, err := s.GetStudent(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListStudentsOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveStudent(ctx, sqlite.Student{ID: "std-1", Name: "Zainab"}))
	require.NoError(t, s.SaveStudent(ctx, sqlite.Student{ID: "std-2", Name: "Ali"}))

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ali", students[0].Name)
	assert.Equal(t, "Zainab", students[1].Name)
}

// =============================================================================
// GROUP PERSISTENCE
// =============================================================================

func TestCreateGroupPersistsAllRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStudents(t, s, "std-1", "std-2")

	group := familyGroup("pay-1", "std-1", "std-2")
	require.NoError(t, s.CreateGroup(ctx, group))

	primary, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, int64(25000), primary.Amount)
	assert.False(t, primary.IsSibling())
	assert.Equal(t, "2026-01-01", primary.Period.Start.Format("2006-01-02"))
	assert.Equal(t, "2026-07-01", primary.Period.End.Format("2006-01-02"))

	siblings, err := s.PaymentsByStudent(ctx, "std-2")
	require.NoError(t, err)
	require.Len(t, siblings, 1)
	assert.Equal(t, billing.PaymentID("pay-1"), siblings[0].SiblingPaymentID)
	assert.Equal(t, billing.StudentID("std-1"), siblings[0].SiblingStudentID)
}

func TestCreateGroupIsAtomic(t *testing.T) {
	// GIVEN: A group whose sibling references a student that does not exist
	// WHEN: Persisting the group (sibling insert fails the foreign key)
	// THEN: The whole transaction rolls back, including the primary record

	s := newTestStore(t)
	ctx := context.Background()
	seedStudents(t, s, "std-1")

	group := familyGroup("pay-1", "std-1", "ghost")
	err := s.CreateGroup(ctx, group)
	require.Error(t, err)

	primary, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Nil(t, primary, "primary must not survive a failed group write")
}

func TestCreateGroupUpdatesBillingModePreference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStudents(t, s, "std-1", "std-2")

	group := familyGroup("pay-1", "std-1", "std-2")
	group.Primary.Mode = billing.ModeMonthly
	group.Primary.MonthsCount = 3
	for i := range group.Siblings {
		group.Siblings[i].Mode = billing.ModeMonthly
		group.Siblings[i].MonthsCount = 3
	}
	require.NoError(t, s.CreateGroup(ctx, group))

	for _, id := range []billing.StudentID{"std-1", "std-2"} {
		student, err := s.GetStudent(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, student)
		assert.Equal(t, billing.ModeMonthly, student.Mode)
	}
}

// =============================================================================
// OVERLAP HISTORY
// =============================================================================

func TestActivePaymentsExcludesVoided(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStudents(t, s, "std-1")

	first := billing.PaymentGroup{Primary: record("pay-1", "std-1", 25000,
		billing.NewDayPeriod(2026, time.January, 1, 2026, time.February, 1))}
	second := billing.PaymentGroup{Primary: record("pay-2", "std-1", 25000,
		billing.NewDayPeriod(2026, time.February, 1, 2026, time.March, 1))}
	require.NoError(t, s.CreateGroup(ctx, first))
	require.NoError(t, s.CreateGroup(ctx, second))

	require.NoError(t, s.VoidPayment(ctx, "pay-1"))

	history, err := s.ActivePayments(ctx, []billing.StudentID{"std-1"})
	require.NoError(t, err)
	require.Len(t, history["std-1"], 1)
	assert.Equal(t, "2026-02-01", history["std-1"][0].Period.Start.Format("2006-01-02"))
}

func TestActivePaymentsEmptyInput(t *testing.T) {
	s := newTestStore(t)

	history, err := s.ActivePayments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// =============================================================================
// VOIDING
// =============================================================================

func TestVoidPrimaryCascadesToSiblings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStudents(t, s, "std-1", "std-2", "std-3")

	group := familyGroup("pay-1", "std-1", "std-2", "std-3")
	require.NoError(t, s.CreateGroup(ctx, group))

	require.NoError(t, s.VoidPayment(ctx, "pay-1"))

	for _, id := range []billing.StudentID{"std-1", "std-2", "std-3"} {
		payments, err := s.PaymentsByStudent(ctx, id)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.True(t, payments[0].Voided, "record for %s must be voided", id)
	}
}

func TestVoidSiblingDoesNotCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStudents(t, s, "std-1", "std-2")

	group := familyGroup("pay-1", "std-1", "std-2")
	require.NoError(t, s.CreateGroup(ctx, group))

	require.NoError(t, s.VoidPayment(ctx, group.Siblings[0].ID))

	primary, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.False(t, primary.Voided, "voiding a sibling leaves the primary active")

	sibling, err := s.GetPayment(ctx, group.Siblings[0].ID)
	require.NoError(t, err)
	require.NotNil(t, sibling)
	assert.True(t, sibling.Voided)
}

func TestVoidMissingPaymentFails(t *testing.T) {
	s := newTestStore(t)

	err := s.VoidPayment(context.Background(), "nope")
	assert.Error(t, err)
}
