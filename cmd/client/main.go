// Command client runs the vendor heartbeat pinger against a sectorgate server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/harrylevesque/sectorgate/internal/heartbeat"
	"github.com/harrylevesque/sectorgate/internal/utils"
)

// Default server base URL; can override with SECTORGATE_SERVER env var or --server flag.
var serverBaseURL = "http://localhost:8080"

func main() {
	serverFlag := flag.String("server", "", "Override server base URL (e.g. https://ops.example.com)")
	tokenFlag := flag.String("token", "", "Vendor token (default $SECTORGATE_VENDOR_TOKEN)")
	interval := flag.Duration("interval", 30*time.Second, "Heartbeat interval")
	once := flag.Bool("once", false, "Send a single heartbeat and exit")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if env := os.Getenv("SECTORGATE_SERVER"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}
	token := *tokenFlag
	if token == "" {
		token = os.Getenv("SECTORGATE_VENDOR_TOKEN")
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "--token or SECTORGATE_VENDOR_TOKEN required")
		os.Exit(1)
	}

	logger := utils.InitLogger("sectorgate-client", *level, "console")
	p := &heartbeat.Pinger{
		URL:      serverBaseURL + "/api/vendor/heartbeat",
		Token:    token,
		Interval: *interval,
		Log:      logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := p.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("heartbeat failed")
			os.Exit(1)
		}
		logger.Info().Msg("heartbeat accepted")
		return
	}

	logger.Info().Str("url", p.URL).Dur("interval", p.Interval).Msg("pinging")
	if err := p.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("pinger stopped")
		os.Exit(1)
	}
}
