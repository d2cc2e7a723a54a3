// Package heartbeat tracks vendor presence. Vendors ping on a fixed period;
// a vendor is online while its last ping is within the staleness window.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrylevesque/sectorgate/internal/models"
	"github.com/harrylevesque/sectorgate/internal/storage"
)

// ErrVendorUnknown is returned when a ping names a vendor that does not exist.
var ErrVendorUnknown = errors.New("unknown vendor")

// Store is the persistence the service needs.
type Store interface {
	RecordHeartbeat(ctx context.Context, vendorID string, at time.Time, remoteAddr string) error
	VendorPresence(ctx context.Context) ([]models.VendorPresence, error)
}

type Service struct {
	store      Store
	staleAfter time.Duration
	now        func() time.Time
}

func NewService(store Store, staleAfter time.Duration) *Service {
	return &Service{store: store, staleAfter: staleAfter, now: time.Now}
}

// Ping records a heartbeat and returns its timestamp.
func (s *Service) Ping(ctx context.Context, vendorID, remoteAddr string) (time.Time, error) {
	at := s.now().UTC()
	if err := s.store.RecordHeartbeat(ctx, vendorID, at, remoteAddr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return time.Time{}, ErrVendorUnknown
		}
		return time.Time{}, fmt.Errorf("record heartbeat: %w", err)
	}
	return at, nil
}

// Presence lists vendors with Online computed against the staleness window.
func (s *Service) Presence(ctx context.Context) ([]models.VendorPresence, error) {
	list, err := s.store.VendorPresence(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for i := range list {
		if list[i].LastSeen != nil {
			list[i].Online = now.Sub(*list[i].LastSeen) <= s.staleAfter
		}
	}
	return list, nil
}
