package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrylevesque/sectorgate/internal/models"
)

func (s *Store) RecordSMSTest(ctx context.Context, t models.SMSTest) (models.SMSTest, error) {
	if t.ID == "" {
		t.ID = "sms--" + uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sms_tests (id, recipient, admin_id, provider_id, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.To, t.AdminID, t.ProviderID, t.Status, t.Error, toMillis(t.CreatedAt))
	if err != nil {
		return models.SMSTest{}, fmt.Errorf("insert sms test: %w", err)
	}
	return t, nil
}

// RecentSMSTests returns the newest limit results.
func (s *Store) RecentSMSTests(ctx context.Context, limit int) ([]models.SMSTest, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient, admin_id, provider_id, status, error, created_at
		 FROM sms_tests ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sms tests: %w", err)
	}
	defer rows.Close()

	var out []models.SMSTest
	for rows.Next() {
		var t models.SMSTest
		var created int64
		if err := rows.Scan(&t.ID, &t.To, &t.AdminID, &t.ProviderID, &t.Status, &t.Error, &created); err != nil {
			return nil, fmt.Errorf("scan sms test: %w", err)
		}
		t.CreatedAt = fromMillis(created)
		out = append(out, t)
	}
	return out, rows.Err()
}
