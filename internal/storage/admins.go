package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrylevesque/sectorgate/internal/models"
)

// CreateAdmin inserts an admin. ID and CreatedAt are filled when empty.
func (s *Store) CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	admin.Username = strings.TrimSpace(admin.Username)
	if admin.Username == "" {
		return models.Admin{}, fmt.Errorf("username is required")
	}
	if admin.PasswordHash == "" {
		return models.Admin{}, fmt.Errorf("password hash is required")
	}
	if admin.ID == "" {
		admin.ID = "adm--" + uuid.New().String()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, ghost_clearance, created_at) VALUES (?, ?, ?, ?, ?)`,
		admin.ID, admin.Username, admin.PasswordHash, boolToInt(admin.GhostClearance), toMillis(admin.CreatedAt),
	)
	if isUniqueViolation(err) {
		return models.Admin{}, fmt.Errorf("admin %q: %w", admin.Username, ErrConflict)
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("insert admin: %w", err)
	}
	return admin, nil
}

func (s *Store) AdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, ghost_clearance, created_at FROM admins WHERE username = ?`,
		strings.TrimSpace(username))
	return scanAdmin(row)
}

func (s *Store) AdminByID(ctx context.Context, id string) (models.Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, ghost_clearance, created_at FROM admins WHERE id = ?`, id)
	return scanAdmin(row)
}

// SetGhostClearance grants or revokes ghost clearance.
func (s *Store) SetGhostClearance(ctx context.Context, username string, ghost bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET ghost_clearance = ? WHERE username = ?`, boolToInt(ghost), strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("admin %q: %w", username, ErrNotFound)
	}
	return nil
}

func scanAdmin(row *sql.Row) (models.Admin, error) {
	var a models.Admin
	var ghost int
	var created int64
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &ghost, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Admin{}, ErrNotFound
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("scan admin: %w", err)
	}
	a.GhostClearance = ghost != 0
	a.CreatedAt = fromMillis(created)
	return a, nil
}
