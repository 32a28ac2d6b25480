// Package ntpsync sets a real-time clock from an NTP server.
//
// The query is retried with exponential backoff. Writing the clock is not: a failed write is returned to the caller
// as is.
package ntpsync

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultHost     = "pool.ntp.org"
	DefaultAttempts = 3
)

// Setter is the clock being set, normally a *ds1302.Device.
type Setter interface {
	Set(t time.Time) error
}

type Config struct {
	Host     string
	Attempts uint64
	// InitialInterval is the first wait between attempts. Default 500ms.
	InitialInterval time.Duration
}

// query is swapped out in tests.
var query = ntp.Time

// Sync fetches the time from cfg.Host and writes it to rtc. It returns the time written.
func Sync(rtc Setter, cfg Config) (time.Time, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}

	var now time.Time
	err := backoff.Retry(func() error {
		t, err := query(cfg.Host)
		if err != nil {
			return err
		}
		now = t
		return nil
	}, backoff.WithMaxRetries(b, cfg.Attempts-1))
	if err != nil {
		return time.Time{}, fmt.Errorf("ntpsync: query %s: %w", cfg.Host, err)
	}

	if err := rtc.Set(now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}
