// Package notify provides the alert delivery backends: structured log,
// Redis Streams, and MQTT, plus a fan-out combinator. The core decides and
// records alerts; this package only moves them.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"hotlabcore/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.Notifier = (*LogNotifier)(nil)
	_ domain.Notifier = (*MultiNotifier)(nil)
	_ domain.Notifier = (*RedisNotifier)(nil)
	_ domain.Notifier = (*MQTTNotifier)(nil)
)

// LogNotifier writes alerts to a structured logger. It is the default
// delivery path and the fallback when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier wraps a logger; nil falls back to a no-op logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the alert at info level.
func (n *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.logger.Info("workflow alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("patient_id", alert.PatientID),
		zap.String("patient_name", alert.PatientName),
		zap.String("context", alert.Context),
		zap.Time("at", alert.At),
	)
	return nil
}

// MultiNotifier fans one alert out to several backends and aggregates their
// errors. Every backend is attempted even when an earlier one fails.
type MultiNotifier struct {
	backends []domain.Notifier
}

// NewMultiNotifier combines backends; nil entries are dropped.
func NewMultiNotifier(backends ...domain.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, b := range backends {
		if b != nil {
			m.backends = append(m.backends, b)
		}
	}
	return m
}

// Notify delivers to all backends.
func (m *MultiNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
