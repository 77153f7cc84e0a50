// Package store provides PaymentStore implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/qalam/tuition-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements billing.PaymentStore and billing.Voider in memory.
// Insertion order is preserved per student so listings are chronological.
type Memory struct {
	mu       sync.RWMutex
	payments map[billing.PaymentID]*billing.PaymentRecord
	order    []billing.PaymentID
	modes    map[billing.StudentID]billing.BillingMode
}

func NewMemory() *Memory {
	return &Memory{
		payments: make(map[billing.PaymentID]*billing.PaymentRecord),
		modes:    make(map[billing.StudentID]billing.BillingMode),
	}
}

// ActivePayments returns each student's non-voided history.
func (m *Memory) ActivePayments(_ context.Context, studentIDs []billing.StudentID) (map[billing.StudentID][]billing.ExistingPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[billing.StudentID]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}

	result := make(map[billing.StudentID][]billing.ExistingPayment, len(studentIDs))
	for _, id := range m.order {
		p := m.payments[id]
		if p.Voided || !wanted[p.StudentID] {
			continue
		}
		result[p.StudentID] = append(result[p.StudentID], billing.ExistingPayment{
			StudentID: p.StudentID,
			Period:    p.Period,
			Voided:    p.Voided,
		})
	}
	return result, nil
}

// CreateGroup persists the group atomically: all duplicate checks run before
// the first write, so a failure leaves the store untouched.
func (m *Memory) CreateGroup(_ context.Context, group billing.PaymentGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := group.Records()
	for _, r := range records {
		if _, exists := m.payments[r.ID]; exists {
			return fmt.Errorf("payment %s already exists", r.ID)
		}
	}

	for _, r := range records {
		stored := r
		m.payments[r.ID] = &stored
		m.order = append(m.order, r.ID)
		m.modes[r.StudentID] = r.Mode
	}
	return nil
}

// VoidPayment soft-deletes a payment. Voiding a primary cascades to every
// linked sibling record; voiding a sibling affects only that record.
func (m *Memory) VoidPayment(_ context.Context, id billing.PaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[id]
	if !ok {
		return fmt.Errorf("payment %s not found", id)
	}
	p.Voided = true

	if !p.IsSibling() {
		for _, other := range m.payments {
			if other.SiblingPaymentID == id {
				other.Voided = true
			}
		}
	}
	return nil
}

// PaymentsByStudent returns every payment for a student, voided included.
func (m *Memory) PaymentsByStudent(_ context.Context, studentID billing.StudentID) ([]billing.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.PaymentRecord
	for _, id := range m.order {
		if p := m.payments[id]; p.StudentID == studentID {
			result = append(result, *p)
		}
	}
	return result, nil
}

// Get returns one payment record by ID.
func (m *Memory) Get(_ context.Context, id billing.PaymentID) (*billing.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	record := *p
	return &record, nil
}

// Mode returns the stored billing-mode preference for a student.
func (m *Memory) Mode(_ context.Context, studentID billing.StudentID) (billing.BillingMode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mode, ok := m.modes[studentID]
	return mode, ok
}
