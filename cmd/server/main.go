package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/harrylevesque/sectorgate/internal/api"
	"github.com/harrylevesque/sectorgate/internal/auth"
	"github.com/harrylevesque/sectorgate/internal/certs"
	"github.com/harrylevesque/sectorgate/internal/config"
	"github.com/harrylevesque/sectorgate/internal/crypto"
	"github.com/harrylevesque/sectorgate/internal/files"
	"github.com/harrylevesque/sectorgate/internal/heartbeat"
	"github.com/harrylevesque/sectorgate/internal/mapbox"
	"github.com/harrylevesque/sectorgate/internal/metrics"
	"github.com/harrylevesque/sectorgate/internal/sms"
	"github.com/harrylevesque/sectorgate/internal/storage"
	"github.com/harrylevesque/sectorgate/internal/utils"
)

const (
	shutdownTimeout = 10 * time.Second
	certWarnWindow  = 14 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := utils.InitLogger("sectorgate", "info", "console")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := utils.InitLogger("sectorgate", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("path", cfg.DBPath).Msg("database ready")

	m := metrics.New()

	if err := os.MkdirAll(filepath.Dir(cfg.SiteFile), 0o755); err != nil {
		return err
	}
	site, err := files.NewSiteStore(cfg.SiteFile, cfg.MaintenanceFailClosed)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.SiteFile).Bool("fail_closed", cfg.MaintenanceFailClosed).Msg("site settings unreadable")
	}
	m.SetMaintenance(site.MaintenanceActive())
	site.OnChange(func(s files.SiteSettings) {
		m.SetMaintenance(site.MaintenanceActive())
		logger.Info().Bool("maintenance", s.Maintenance()).Str("updated_by", s.UpdatedBy).Msg("site settings loaded")
	})
	watcher, err := files.NewWatcher(site, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("site watcher stopped")
		}
	}()

	master, err := cfg.MasterKey()
	if err != nil {
		return err
	}
	keys, err := crypto.DeriveKeys(master)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Auth:      auth.New(store, auth.NewCookieStore(keys, cfg.SessionTTL, cfg.SecureCookies)),
		Tokens:    auth.NewVendorTokens(keys.VendorToken),
		Site:      site,
		SMSLog:    store,
		Heartbeat: heartbeat.NewService(store, cfg.HeartbeatStaleAfter),
		Metrics:   m,
		Log:       logger,
	}
	if cfg.SMSConfigured() {
		deps.SMS = sms.NewProviderClient(cfg.SMSProviderURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFrom)
	} else {
		logger.Info().Msg("sms provider not configured, sms test disabled")
	}
	mapCfg, err := mapbox.NewConfig(cfg.MapboxToken, cfg.MapboxStyle)
	switch {
	case errors.Is(err, mapbox.ErrNoToken):
		logger.Info().Msg("mapbox token not set, map config disabled")
	case err != nil:
		return err
	default:
		deps.Map = mapCfg
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLSEnabled() {
		cm := certs.NewCertManager(cfg.TLSCert, cfg.TLSKey)
		tlsCfg, leaf, err := cm.TLSConfig()
		if err != nil {
			return err
		}
		if cm.ExpiresWithin(leaf, certWarnWindow) {
			logger.Warn().Time("not_after", leaf.NotAfter).Msg("TLS certificate expires soon")
		}
		srv.TLSConfig = tlsCfg
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Bool("tls", cfg.TLSEnabled()).Msg("server listening")
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
