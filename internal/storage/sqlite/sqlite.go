// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// codeAttempts bounds retries when a generated join code collides.
const codeAttempts = 5

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys are a per-connection setting, so they go in the DSN.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations applies the embedded schema migrations.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBill persists a new bill, generating a unique join code.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = bill.CreatedAt

	for attempt := 0; attempt < codeAttempts; attempt++ {
		if bill.Code == "" || attempt > 0 {
			bill.Code = newJoinCode()
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO bills (id, host_id, code, name, archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			bill.ID, bill.HostID, bill.Code, bill.Name, bill.Archived, bill.CreatedAt, bill.UpdatedAt,
		)
		if isUniqueViolation(err, "bills.code") {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to insert bill: %w", err)
		}
		return nil
	}

	return fmt.Errorf("failed to generate a unique join code after %d attempts", codeAttempts)
}

const billColumns = "id, host_id, code, name, archived, created_at, updated_at"

// GetBill retrieves a bill by ID.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", billID)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("bill", billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// GetBillByCode retrieves a bill by its join code. Codes are matched
// case-insensitively.
func (s *SQLiteStore) GetBillByCode(ctx context.Context, code string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE code = ?", strings.ToUpper(code))
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("bill", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill by code: %w", err)
	}
	return bill, nil
}

// ListBillsForUser returns the bills a user hosts or has joined.
func (s *SQLiteStore) ListBillsForUser(ctx context.Context, userID string, archived bool) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+billColumns+`
		FROM bills b
		WHERE b.archived = ?
		  AND (b.host_id = ? OR EXISTS (
			SELECT 1 FROM bill_participants p
			WHERE p.bill_id = b.id AND p.user_id = ? AND p.accepted = 1
		  ))
		ORDER BY b.created_at DESC, b.rowid DESC`,
		archived, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	return bills, nil
}

// UpdateBill saves the name and archived flag of a bill.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill) error {
	bill.UpdatedAt = time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		"UPDATE bills SET name = ?, archived = ?, updated_at = ? WHERE id = ?",
		bill.Name, bill.Archived, bill.UpdatedAt, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return expectOneRow(result, "bill", bill.ID)
}

// RegenerateCode replaces the join code of a bill.
func (s *SQLiteStore) RegenerateCode(ctx context.Context, billID string) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := newJoinCode()
		result, err := s.db.ExecContext(ctx,
			"UPDATE bills SET code = ?, updated_at = ? WHERE id = ?",
			code, time.Now().Unix(), billID,
		)
		if isUniqueViolation(err, "bills.code") {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to regenerate code: %w", err)
		}
		if err := expectOneRow(result, "bill", billID); err != nil {
			return "", err
		}
		return code, nil
	}

	return "", fmt.Errorf("failed to generate a unique join code after %d attempts", codeAttempts)
}

// DeleteBill removes a bill. Participants and expenses cascade.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return expectOneRow(result, "bill", billID)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	bill := &models.Bill{}
	err := row.Scan(&bill.ID, &bill.HostID, &bill.Code, &bill.Name, &bill.Archived, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// newJoinCode returns 8 random upper-case alphanumerics.
func newJoinCode() string {
	return rand.Text()[:8]
}

func expectOneRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure whose
// message names target (e.g. "bills.code").
func isUniqueViolation(err error, target string) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(se.Error(), target)
}
