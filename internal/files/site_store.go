package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteSettings is the on-disk site document. MaintenanceMode is a pointer so
// an absent key is distinguishable from an explicit false; both mean off.
type SiteSettings struct {
	MaintenanceMode   *bool     `yaml:"maintenance_mode"`
	LockdownTitle     string    `yaml:"lockdown_title,omitempty"`
	LockdownMessage   string    `yaml:"lockdown_message,omitempty"`
	RetryAfterSeconds int       `yaml:"retry_after_seconds,omitempty"`
	UpdatedBy         string    `yaml:"updated_by,omitempty"`
	UpdatedAt         time.Time `yaml:"updated_at,omitempty"`
}

// Maintenance returns the flag with undefined treated as false.
func (s SiteSettings) Maintenance() bool {
	return s.MaintenanceMode != nil && *s.MaintenanceMode
}

// SiteStore holds the current site settings in memory and persists changes
// to a YAML file.
type SiteStore struct {
	filePath   string
	failClosed bool

	mu       sync.RWMutex
	current  SiteSettings
	healthy  bool
	lastErr  error
	onChange func(SiteSettings)
}

// NewSiteStore creates a store for filePath and performs the first load.
// The returned error is informational: the store is usable either way and
// reports maintenance according to failClosed until a good load happens.
func NewSiteStore(filePath string, failClosed bool) (*SiteStore, error) {
	s := &SiteStore{filePath: filePath, failClosed: failClosed}
	return s, s.Reload()
}

// Path returns the backing file path.
func (s *SiteStore) Path() string { return s.filePath }

// OnChange registers fn to run after every successful reload or write.
func (s *SiteStore) OnChange(fn func(SiteSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Reload re-reads the file. A missing file is an empty document, unless the
// store is fail-closed, in which case it counts as unreadable.
func (s *SiteStore) Reload() error {
	settings, err := s.read()

	s.mu.Lock()
	if err != nil {
		s.healthy = false
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.current = settings
	s.healthy = true
	s.lastErr = nil
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(settings)
	}
	return nil
}

func (s *SiteStore) read() (SiteSettings, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !s.failClosed {
			return SiteSettings{}, nil // File doesn't exist, that's fine
		}
		return SiteSettings{}, fmt.Errorf("read site settings: %w", err)
	}
	var settings SiteSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return SiteSettings{}, fmt.Errorf("parse site settings %s: %w", s.filePath, err)
	}
	return settings, nil
}

// Snapshot returns a copy of the last good settings.
func (s *SiteStore) Snapshot() SiteSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	if out.MaintenanceMode != nil {
		v := *out.MaintenanceMode
		out.MaintenanceMode = &v
	}
	return out
}

// MaintenanceActive reports the effective maintenance flag. While the file is
// unreadable a fail-closed store reports true; otherwise the last good value
// stands (false if there never was one).
func (s *SiteStore) MaintenanceActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.healthy && s.failClosed {
		return true
	}
	return s.current.Maintenance()
}

// Err returns the last load error, nil when healthy.
func (s *SiteStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SetMaintenance flips the flag and persists the document atomically.
func (s *SiteStore) SetMaintenance(active bool, by string) (SiteSettings, error) {
	s.mu.Lock()
	next := s.current
	next.MaintenanceMode = &active
	next.UpdatedBy = by
	next.UpdatedAt = time.Now().UTC()
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return SiteSettings{}, err
	}
	s.current = next
	s.healthy = true
	s.lastErr = nil
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next, nil
}

func (s *SiteStore) write(settings SiteSettings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode site settings: %w", err)
	}
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create site settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".site-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp site settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write site settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close site settings: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace site settings: %w", err)
	}
	return nil
}
