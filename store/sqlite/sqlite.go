/*
Package sqlite provides the SQLite-backed implementation of the billing
storage interfaces.

PURPOSE:
  Implements billing.PaymentStore and billing.Voider plus the student roster
  the API layer needs. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

ATOMICITY:
  CreateGroup writes the primary record, every sibling record, and every
  participant's billing-mode preference inside ONE sql transaction. A
  failure anywhere rolls back everything; no partial groups exist.
  VoidPayment and its sibling cascade run the same way.

SOFT DELETE:
  Payments are never deleted. Voiding sets voided=1; voided rows are
  excluded from overlap history but retained for audit.

KEY TABLES:
  students:  Roster plus per-student billing-mode preference
  payments:  One row per payment record, sibling rows linked to the primary
             via sibling_payment_id

INDEXES:
  idx_payments_student_active: Non-voided period lookups (overlap hot path)
  idx_payments_sibling:        Void cascade from primary to siblings

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/tuition.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/qalam/tuition-engine/billing"
)

const dayFormat = "2006-01-02"

// Store implements the billing storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		billing_mode TEXT NOT NULL DEFAULT 'semester',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES students(id),
		amount INTEGER NOT NULL,
		billing_mode TEXT NOT NULL,
		months_count INTEGER NOT NULL DEFAULT 0,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		sibling_names TEXT NOT NULL DEFAULT '',
		sibling_student_id TEXT NOT NULL DEFAULT '',
		sibling_payment_id TEXT NOT NULL DEFAULT '',
		voided INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Overlap validation hot path: non-voided history per student.
	CREATE INDEX IF NOT EXISTS idx_payments_student_active
		ON payments(student_id, period_start, period_end)
		WHERE voided = 0;

	-- Void cascade from a primary payment to its linked siblings.
	CREATE INDEX IF NOT EXISTS idx_payments_sibling
		ON payments(sibling_payment_id)
		WHERE sibling_payment_id != '';

	CREATE INDEX IF NOT EXISTS idx_payments_student
		ON payments(student_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STUDENTS
// =============================================================================

// Student is a roster record with its current billing-mode preference.
type Student struct {
	ID        billing.StudentID
	Name      string
	Mode      billing.BillingMode
	CreatedAt time.Time
}

// SaveStudent inserts a student or updates their name.
func (s *Store) SaveStudent(ctx context.Context, student Student) error {
	if student.Mode == "" {
		student.Mode = billing.ModeSemester
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, name, billing_mode, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		string(student.ID), student.Name, string(student.Mode),
		student.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// GetStudent returns a student or nil when none exists.
func (s *Store) GetStudent(ctx context.Context, id billing.StudentID) (*Student, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, billing_mode, created_at FROM students WHERE id = ?`,
		string(id),
	)
	student, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}

// ListStudents returns the full roster ordered by name.
func (s *Store) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, billing_mode, created_at FROM students ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}
	return students, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*Student, error) {
	var student Student
	var id, mode, createdAt string
	if err := row.Scan(&id, &student.Name, &mode, &createdAt); err != nil {
		return nil, err
	}
	student.ID = billing.StudentID(id)
	student.Mode = billing.BillingMode(mode)
	student.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &student, nil
}

// =============================================================================
// PAYMENT HISTORY (billing.PaymentStore)
// =============================================================================

// ActivePayments returns every non-voided payment for the given students,
// keyed by student.
func (s *Store) ActivePayments(ctx context.Context, studentIDs []billing.StudentID) (map[billing.StudentID][]billing.ExistingPayment, error) {
	result := make(map[billing.StudentID][]billing.ExistingPayment, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(studentIDs)), ",")
	args := make([]any, len(studentIDs))
	for i, id := range studentIDs {
		args[i] = string(id)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT student_id, period_start, period_end
		FROM payments
		WHERE voided = 0 AND student_id IN (%s)
		ORDER BY period_start`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var studentID, start, end string
		if err := rows.Scan(&studentID, &start, &end); err != nil {
			return nil, err
		}
		period, err := parsePeriod(start, end)
		if err != nil {
			return nil, err
		}
		id := billing.StudentID(studentID)
		result[id] = append(result[id], billing.ExistingPayment{
			StudentID: id,
			Period:    period,
		})
	}
	return result, rows.Err()
}

// CreateGroup persists the complete group and the participants' billing-mode
// preference updates in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group billing.PaymentGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, record := range group.Records() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments (
				id, student_id, amount, billing_mode, months_count,
				period_start, period_end, notes, sibling_names,
				sibling_student_id, sibling_payment_id, voided, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			string(record.ID), string(record.StudentID), record.Amount,
			string(record.Mode), record.MonthsCount,
			record.Period.Start.Format(dayFormat), record.Period.End.Format(dayFormat),
			record.Notes, record.SiblingNames,
			string(record.SiblingStudentID), string(record.SiblingPaymentID),
			record.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert payment %s: %w", record.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE students SET billing_mode = ? WHERE id = ?`,
			string(record.Mode), string(record.StudentID),
		); err != nil {
			return fmt.Errorf("failed to update billing mode for %s: %w", record.StudentID, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// VOIDING (billing.Voider)
// =============================================================================

// VoidPayment soft-deletes a payment. Voiding a primary also voids every
// linked sibling payment, in the same transaction.
func (s *Store) VoidPayment(ctx context.Context, id billing.PaymentID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var siblingPaymentID string
	err = tx.QueryRowContext(ctx, `
		SELECT sibling_payment_id FROM payments WHERE id = ?`, string(id),
	).Scan(&siblingPaymentID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("payment %s not found", id)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE payments SET voided = 1 WHERE id = ?`, string(id)); err != nil {
		return err
	}

	// Primary payments cascade to their linked siblings.
	if siblingPaymentID == "" {
		if _, err := tx.ExecContext(ctx, `
			UPDATE payments SET voided = 1 WHERE sibling_payment_id = ?`, string(id)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// PAYMENT QUERIES
// =============================================================================

const paymentSelect = `
	SELECT id, student_id, amount, billing_mode, months_count,
	       period_start, period_end, notes, sibling_names,
	       sibling_student_id, sibling_payment_id, voided, created_at
	FROM payments`

// GetPayment returns one payment record or nil when none exists.
func (s *Store) GetPayment(ctx context.Context, id billing.PaymentID) (*billing.PaymentRecord, error) {
	row := s.db.QueryRowContext(ctx, paymentSelect+` WHERE id = ?`, string(id))
	record, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// PaymentsByStudent returns every payment for a student, voided included,
// ordered by period start.
func (s *Store) PaymentsByStudent(ctx context.Context, studentID billing.StudentID) ([]billing.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, paymentSelect+`
		WHERE student_id = ? ORDER BY period_start, created_at`, string(studentID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []billing.PaymentRecord
	for rows.Next() {
		record, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *record)
	}
	return payments, rows.Err()
}

func scanPayment(row scanner) (*billing.PaymentRecord, error) {
	var record billing.PaymentRecord
	var id, studentID, mode, start, end, siblingStudentID, siblingPaymentID, createdAt string
	var voided int
	if err := row.Scan(
		&id, &studentID, &record.Amount, &mode, &record.MonthsCount,
		&start, &end, &record.Notes, &record.SiblingNames,
		&siblingStudentID, &siblingPaymentID, &voided, &createdAt,
	); err != nil {
		return nil, err
	}

	period, err := parsePeriod(start, end)
	if err != nil {
		return nil, err
	}

	record.ID = billing.PaymentID(id)
	record.StudentID = billing.StudentID(studentID)
	record.Mode = billing.BillingMode(mode)
	record.Period = period
	record.SiblingStudentID = billing.StudentID(siblingStudentID)
	record.SiblingPaymentID = billing.PaymentID(siblingPaymentID)
	record.Voided = voided != 0
	record.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &record, nil
}

func parsePeriod(start, end string) (billing.Period, error) {
	startTime, err := time.Parse(dayFormat, start)
	if err != nil {
		return billing.Period{}, fmt.Errorf("invalid period start %q: %w", start, err)
	}
	endTime, err := time.Parse(dayFormat, end)
	if err != nil {
		return billing.Period{}, fmt.Errorf("invalid period end %q: %w", end, err)
	}
	return billing.NewPeriod(startTime, endTime), nil
}
