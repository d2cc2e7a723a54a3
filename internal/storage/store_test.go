package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrylevesque/sectorgate/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenFileAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		s, err := Open(ctx, path)
		if err != nil {
			t.Fatalf("Open() #%d error: %v", i, err)
		}
		counts, err := s.Check(ctx)
		if err != nil {
			t.Fatalf("Check() error: %v", err)
		}
		for _, c := range counts {
			if c.Table == migrationTable && c.Rows != 1 {
				t.Fatalf("migrations recorded = %d, want 1", c.Rows)
			}
		}
		s.Close()
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAdminLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateAdmin(ctx, models.Admin{Username: " warden ", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateAdmin() error: %v", err)
	}
	if created.ID == "" || created.Username != "warden" {
		t.Fatalf("created = %+v", created)
	}

	if _, err := s.CreateAdmin(ctx, models.Admin{Username: "warden", PasswordHash: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}

	if err := s.SetGhostClearance(ctx, "warden", true); err != nil {
		t.Fatalf("SetGhostClearance() error: %v", err)
	}
	got, err := s.AdminByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("AdminByID() error: %v", err)
	}
	if !got.GhostClearance {
		t.Fatal("expected ghost clearance")
	}

	if _, err := s.AdminByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.SetGhostClearance(ctx, "nobody", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHeartbeatUpsertKeepsLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.CreateVendor(ctx, "relay-7")
	if err != nil {
		t.Fatalf("CreateVendor() error: %v", err)
	}
	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Minute)

	if err := s.RecordHeartbeat(ctx, v.ID, later, "10.0.0.1:5000"); err != nil {
		t.Fatalf("RecordHeartbeat() error: %v", err)
	}
	// a delayed overlapping ping must not move last_seen backwards
	if err := s.RecordHeartbeat(ctx, v.ID, earlier, "10.0.0.2:5000"); err != nil {
		t.Fatalf("RecordHeartbeat() error: %v", err)
	}

	presence, err := s.VendorPresence(ctx)
	if err != nil {
		t.Fatalf("VendorPresence() error: %v", err)
	}
	if len(presence) != 1 || presence[0].LastSeen == nil {
		t.Fatalf("presence = %+v", presence)
	}
	if !presence[0].LastSeen.Equal(later) {
		t.Fatalf("LastSeen = %v, want %v", presence[0].LastSeen, later)
	}
}

func TestHeartbeatUnknownVendor(t *testing.T) {
	s := openTestStore(t)
	err := s.RecordHeartbeat(context.Background(), "vnd--missing", time.Now(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPresenceWithoutHeartbeat(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateVendor(ctx, "quiet"); err != nil {
		t.Fatalf("CreateVendor() error: %v", err)
	}
	presence, err := s.VendorPresence(ctx)
	if err != nil {
		t.Fatalf("VendorPresence() error: %v", err)
	}
	if len(presence) != 1 || presence[0].LastSeen != nil {
		t.Fatalf("presence = %+v", presence)
	}
}

func TestRecentSMSTestsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, to := range []string{"+15550000001", "+15550000002", "+15550000003"} {
		if _, err := s.RecordSMSTest(ctx, models.SMSTest{To: to, AdminID: "a", Status: "sent", CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("RecordSMSTest() error: %v", err)
		}
	}
	got, err := s.RecentSMSTests(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSMSTests() error: %v", err)
	}
	if len(got) != 2 || got[0].To != "+15550000003" || got[1].To != "+15550000002" {
		t.Fatalf("got = %+v", got)
	}
}
