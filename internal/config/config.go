// Package config loads server configuration from SECTORGATE_* environment
// variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/harrylevesque/sectorgate/internal/utils"
)

type Config struct {
	Addr          string        `env:"SECTORGATE_ADDR" envDefault:":8080"`
	DataDir       string        `env:"SECTORGATE_DATA_DIR"`
	DBPath        string        `env:"SECTORGATE_DB_PATH"`
	SiteFile      string        `env:"SECTORGATE_SITE_FILE"`
	MasterKeyHex  string        `env:"SECTORGATE_MASTER_KEY_HEX"`
	SessionTTL    time.Duration `env:"SECTORGATE_SESSION_TTL" envDefault:"12h"`
	SecureCookies bool          `env:"SECTORGATE_SECURE_COOKIES"`
	TLSCert       string        `env:"SECTORGATE_TLS_CERT"`
	TLSKey        string        `env:"SECTORGATE_TLS_KEY"`

	// MaintenanceFailClosed treats an unreadable site file as maintenance
	// active. Off by default: unknown maintenance state lets viewers through.
	MaintenanceFailClosed bool `env:"SECTORGATE_MAINTENANCE_FAIL_CLOSED"`

	HeartbeatStaleAfter time.Duration `env:"SECTORGATE_HEARTBEAT_STALE_AFTER" envDefault:"2m"`
	VendorTokenTTL      time.Duration `env:"SECTORGATE_VENDOR_TOKEN_TTL" envDefault:"720h"`

	SMSProviderURL string `env:"SECTORGATE_SMS_PROVIDER_URL" envDefault:"https://api.twilio.com/2010-04-01"`
	SMSAccountSID  string `env:"SECTORGATE_SMS_ACCOUNT_SID"`
	SMSAuthToken   string `env:"SECTORGATE_SMS_AUTH_TOKEN"`
	SMSFrom        string `env:"SECTORGATE_SMS_FROM"`

	MapboxToken string `env:"SECTORGATE_MAPBOX_TOKEN"`
	MapboxStyle string `env:"SECTORGATE_MAPBOX_STYLE" envDefault:"mapbox://styles/mapbox/dark-v11"`

	LogLevel  string `env:"SECTORGATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SECTORGATE_LOG_FORMAT" envDefault:"console"`
}

// Load parses the environment, fills path defaults and validates.
func Load() (Config, error) {
	cfg, err := LoadUnchecked()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadUnchecked is Load without Validate, for offline tools that only need
// some of the settings.
func LoadUnchecked() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = utils.GetDataDir()
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = filepath.Join(c.DataDir, "sectorgate.db")
	}
	if strings.TrimSpace(c.SiteFile) == "" {
		c.SiteFile = filepath.Join(c.DataDir, "site.yaml")
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.MasterKey(); err != nil {
		errs = append(errs, err)
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SECTORGATE_SESSION_TTL must be positive"))
	}
	if c.HeartbeatStaleAfter <= 0 {
		errs = append(errs, fmt.Errorf("SECTORGATE_HEARTBEAT_STALE_AFTER must be positive"))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, fmt.Errorf("SECTORGATE_TLS_CERT and SECTORGATE_TLS_KEY must be set together"))
	}
	return errors.Join(errs...)
}

// MasterKey decodes the hex master key (32 bytes).
func (c Config) MasterKey() ([]byte, error) {
	hexk := strings.TrimSpace(c.MasterKeyHex)
	if hexk == "" {
		return nil, fmt.Errorf("SECTORGATE_MASTER_KEY_HEX not set")
	}
	b, err := hex.DecodeString(hexk)
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("master key length must be 32 bytes (hex 64 chars)")
	}
	return b, nil
}

// TLSEnabled reports whether the server should listen with TLS.
func (c Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// SMSConfigured reports whether the SMS provider credentials are present.
func (c Config) SMSConfigured() bool {
	return c.SMSAccountSID != "" && c.SMSAuthToken != "" && c.SMSFrom != ""
}
