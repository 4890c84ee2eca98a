package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Ticker drives periodic workflow re-evaluation against the wall clock.
// Construction does not start it; Run blocks until the context is cancelled.
type Ticker struct {
	service  *Service
	interval time.Duration
	logger   *zap.Logger
}

// NewTicker builds a ticker. Intervals below one second are clamped to one
// second to keep a misconfigured deployment from spinning.
func NewTicker(service *Service, interval time.Duration, logger *zap.Logger) *Ticker {
	if interval < time.Second {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{service: service, interval: interval, logger: logger}
}

// Run evaluates immediately, then on every interval until ctx is cancelled.
// Evaluation errors are logged and the loop keeps going.
func (t *Ticker) Run(ctx context.Context) {
	t.logger.Info("workflow ticker started", zap.Duration("interval", t.interval))
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	t.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("workflow ticker stopped")
			return
		case <-ticker.C:
			t.evaluate(ctx)
		}
	}
}

func (t *Ticker) evaluate(ctx context.Context) {
	alerts, err := t.service.Tick(ctx)
	if err != nil {
		t.logger.Warn("workflow tick failed", zap.Error(err))
		return
	}
	if len(alerts) > 0 {
		t.logger.Info("workflow alerts emitted", zap.Int("count", len(alerts)))
	}
}
