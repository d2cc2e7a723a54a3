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

func (s *Store) CreateVendor(ctx context.Context, name string) (models.Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Vendor{}, fmt.Errorf("vendor name is required")
	}
	v := models.Vendor{
		ID:        "vnd--" + uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vendors (id, name, created_at) VALUES (?, ?, ?)`, v.ID, v.Name, toMillis(v.CreatedAt))
	if isUniqueViolation(err) {
		return models.Vendor{}, fmt.Errorf("vendor %q: %w", name, ErrConflict)
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("insert vendor: %w", err)
	}
	return v, nil
}

func (s *Store) VendorByID(ctx context.Context, id string) (models.Vendor, error) {
	var v models.Vendor
	var created int64
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM vendors WHERE id = ?`, id).
		Scan(&v.ID, &v.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vendor{}, ErrNotFound
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("scan vendor: %w", err)
	}
	v.CreatedAt = fromMillis(created)
	return v, nil
}

// RecordHeartbeat upserts the vendor's last-seen row. Repeated and
// overlapping calls are harmless; the latest timestamp wins.
func (s *Store) RecordHeartbeat(ctx context.Context, vendorID string, at time.Time, remoteAddr string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vendor_heartbeats (vendor_id, last_seen, remote_addr, beats) VALUES (?, ?, ?, 1)
		 ON CONFLICT(vendor_id) DO UPDATE SET
		   last_seen = MAX(last_seen, excluded.last_seen),
		   remote_addr = excluded.remote_addr,
		   beats = beats + 1`,
		vendorID, toMillis(at), remoteAddr)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("vendor %q: %w", vendorID, ErrNotFound)
		}
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

// VendorPresence lists every vendor with its last heartbeat. Online is left
// for the caller to compute against its staleness window.
func (s *Store) VendorPresence(ctx context.Context) ([]models.VendorPresence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT v.id, v.name, v.created_at, h.last_seen, COALESCE(h.remote_addr, '')
		 FROM vendors v LEFT JOIN vendor_heartbeats h ON h.vendor_id = v.id
		 ORDER BY v.name`)
	if err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}
	defer rows.Close()

	var out []models.VendorPresence
	for rows.Next() {
		var p models.VendorPresence
		var created int64
		var lastSeen sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &created, &lastSeen, &p.RemoteAddr); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		p.CreatedAt = fromMillis(created)
		if lastSeen.Valid {
			t := fromMillis(lastSeen.Int64)
			p.LastSeen = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
