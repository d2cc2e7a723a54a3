package heartbeat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger posts to the heartbeat endpoint on a fixed interval. Each ping runs
// in its own goroutine and its result is dropped; a slow server can see
// overlapping pings, which the endpoint tolerates.
type Pinger struct {
	URL      string
	Token    string
	Interval time.Duration
	Client   *http.Client
	Log      zerolog.Logger
}

const defaultInterval = 30 * time.Second

// Run pings once immediately, then on every tick until ctx is done.
func (p *Pinger) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	go p.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			go p.fire(ctx)
		}
	}
}

func (p *Pinger) fire(ctx context.Context) {
	if err := p.Ping(ctx); err != nil {
		p.Log.Debug().Err(err).Msg("heartbeat ping failed")
	}
}

// Ping sends a single heartbeat.
func (p *Pinger) Ping(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build heartbeat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat returned %s", resp.Status)
	}
	return nil
}
