/*
errors.go - Centralized error types for the payment engine

PURPOSE:
  All engine error types in one place. Callers branch with errors.Is/As.

ERROR CATEGORIES:
  1. Overlap errors     - The requested period double-bills a student
  2. Group errors       - Malformed payment intent (caller mistake)
  3. Invariant errors   - Allocator bug; fatal, never user-facing

Persistence failures are passed through unchanged; the engine never wraps
or reinterprets store errors.
*/
package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPeriodOverlap is returned when one or more participants already have
	// a non-voided payment covering part of the requested period.
	ErrPeriodOverlap = errors.New("requested period overlaps an existing payment")

	// ErrInvalidGroup is returned for malformed intents: empty group,
	// duplicate participants, non-positive months count in monthly mode,
	// or an inverted period.
	ErrInvalidGroup = errors.New("invalid payment group")

	// ErrAllocationInvariant indicates the allocator produced amounts that do
	// not sum to the requested total. This is a bug, not a user error.
	ErrAllocationInvariant = errors.New("allocation does not sum to total")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// Conflict identifies one blocked student and the existing period that
// collides with the request.
type Conflict struct {
	StudentID   StudentID
	StudentName string
	Existing    Period
}

// Description renders the conflict for display: "Name: 2026-01-01 to 2026-07-01".
func (c Conflict) Description() string {
	return fmt.Sprintf("%s: %s", c.StudentName, c.Existing.String())
}

// PeriodOverlapError rejects a whole group payment. It always carries the
// FULL list of conflicts, one entry per blocking existing period, never just
// the first. Recoverable: the caller can adjust the period or drop the
// conflicting students.
type PeriodOverlapError struct {
	Requested Period
	Conflicts []Conflict
}

func (e *PeriodOverlapError) Error() string {
	return fmt.Sprintf("period %s conflicts with existing payments: %s",
		e.Requested.String(), strings.Join(e.Descriptions(), "; "))
}

func (e *PeriodOverlapError) Unwrap() error { return ErrPeriodOverlap }

// BlockedStudents returns the distinct students with at least one conflict.
func (e *PeriodOverlapError) BlockedStudents() []StudentID {
	return lo.Uniq(lo.Map(e.Conflicts, func(c Conflict, _ int) StudentID {
		return c.StudentID
	}))
}

// Descriptions returns one human-readable line per conflict.
func (e *PeriodOverlapError) Descriptions() []string {
	return lo.Map(e.Conflicts, func(c Conflict, _ int) string {
		return c.Description()
	})
}

// InvalidGroupError reports a malformed payment intent. Surfaced before any
// work is performed.
type InvalidGroupError struct {
	Reason string
}

func (e *InvalidGroupError) Error() string {
	return fmt.Sprintf("invalid payment group: %s", e.Reason)
}

func (e *InvalidGroupError) Unwrap() error { return ErrInvalidGroup }

// AllocationInvariantError reports a broken exact-sum invariant after
// allocation. Defensive only; correct allocator code never produces it.
type AllocationInvariantError struct {
	Total        int64
	Allocated    int64
	StudentCount int
}

func (e *AllocationInvariantError) Error() string {
	return fmt.Sprintf("allocated %d of %d across %d students",
		e.Allocated, e.Total, e.StudentCount)
}

func (e *AllocationInvariantError) Unwrap() error { return ErrAllocationInvariant }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to caller input and the
// caller can recover by resubmitting a corrected request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPeriodOverlap) || errors.Is(err, ErrInvalidGroup)
}
