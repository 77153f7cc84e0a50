/*
store.go - Persistence interface for payment groups

PURPOSE:
  Defines the contract between the payment engine and the database. The
  engine computes; the store persists. Different implementations back this
  with SQLite or in-memory storage.

ATOMICITY CONTRACT:
  CreateGroup is all-or-nothing. A group of 1 primary + N sibling records
  plus N+1 billing-mode preference updates either fully persists or leaves
  no trace. The engine never retries store failures and never sees partial
  groups.

CONSISTENCY CONTRACT:
  ActivePayments must return each student's full non-voided history as of
  the call. If the surrounding system allows concurrent submissions for the
  same student, serializing writes per student is the store's concern (row
  locks, unique constraints, retry-on-conflict); the engine assumes a
  consistent snapshot and takes no locks of its own.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - billing/store/memory.go: In-memory for tests
*/
package billing

import "context"

// =============================================================================
// PAYMENT STORE
// =============================================================================

// PaymentStore is what the payment group builder needs from persistence.
type PaymentStore interface {
	// ActivePayments returns every non-voided payment for each of the given
	// students, keyed by student. Students with no history map to nil.
	ActivePayments(ctx context.Context, studentIDs []StudentID) (map[StudentID][]ExistingPayment, error)

	// CreateGroup persists a complete payment group atomically and updates
	// each participating student's billing-mode preference to the group's
	// mode in the same unit of work. Either everything persists or nothing.
	CreateGroup(ctx context.Context, group PaymentGroup) error
}

// Voider is the soft-delete surface. Voiding a primary payment cascades to
// every linked sibling payment; voiding a sibling affects only that record.
type Voider interface {
	VoidPayment(ctx context.Context, id PaymentID) error
}
