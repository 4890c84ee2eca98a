package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hotlabcore/pkg/domain"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, domain.Alert) error {
	s.calls++
	return s.err
}

func testAlert() domain.Alert {
	return domain.Alert{
		Kind:        domain.AlertReady,
		PatientID:   "patient-1",
		PatientName: "Test Patient",
		At:          time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(zaptest.NewLogger(t))
	require.NoError(t, n.Notify(context.Background(), testAlert()))

	// Nil logger must not panic.
	require.NoError(t, NewLogNotifier(nil).Notify(context.Background(), testAlert()))
}

func TestMultiNotifierAttemptsAllBackends(t *testing.T) {
	first := &stubNotifier{err: errors.New("redis down")}
	second := &stubNotifier{}
	third := &stubNotifier{err: errors.New("mqtt down")}

	err := NewMultiNotifier(first, second, third).Notify(context.Background(), testAlert())
	require.Error(t, err)
	assert.ErrorContains(t, err, "redis down")
	assert.ErrorContains(t, err, "mqtt down")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls, "healthy backend skipped after a failing one")
	assert.Equal(t, 1, third.calls)
}

func TestMultiNotifierDropsNilBackends(t *testing.T) {
	ok := &stubNotifier{}
	n := NewMultiNotifier(nil, ok, nil)
	require.NoError(t, n.Notify(context.Background(), testAlert()))
	assert.Equal(t, 1, ok.calls)
}

func TestMultiNotifierEmpty(t *testing.T) {
	require.NoError(t, NewMultiNotifier().Notify(context.Background(), testAlert()))
}
