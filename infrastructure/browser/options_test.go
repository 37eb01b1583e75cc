package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLauncher(t *testing.T) {
	logger, _ := test.NewNullLogger()

	for backend, want := range map[string]string{
		"":           BackendPlaywright,
		"playwright": BackendPlaywright,
		"Chromedp":   BackendChromedp,
	} {
		l, err := NewLauncher(backend, DefaultOptions(), logger)
		require.NoError(t, err)
		assert.Equal(t, want, l.Name())
	}

	_, err := NewLauncher("selenium", DefaultOptions(), logger)
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{Headless: false, ViewportWidth: 800}.withDefaults()
	assert.False(t, opts.Headless)
	assert.Equal(t, 800, opts.ViewportWidth)
	assert.Equal(t, 720, opts.ViewportHeight)
	assert.Equal(t, 30*time.Second, opts.DefaultTimeout)
}

func TestEffectiveTimeout(t *testing.T) {
	bg := context.Background()
	assert.Equal(t, 10*time.Second, effectiveTimeout(bg, 10*time.Second, time.Minute))
	assert.Equal(t, time.Minute, effectiveTimeout(bg, 0, time.Minute))

	ctx, cancel := context.WithTimeout(bg, 2*time.Second)
	defer cancel()
	got := effectiveTimeout(ctx, 10*time.Second, time.Minute)
	assert.LessOrEqual(t, got, 2*time.Second)
	assert.Greater(t, got, time.Duration(0))

	expired, cancelExpired := context.WithDeadline(bg, time.Now().Add(-time.Second))
	defer cancelExpired()
	assert.Equal(t, time.Millisecond, effectiveTimeout(expired, 10*time.Second, time.Minute))
}

func TestIsClosedErr(t *testing.T) {
	assert.False(t, isClosedErr(nil))
	assert.True(t, isClosedErr(errors.New("target closed")))
	assert.True(t, isClosedErr(errors.New("browser has been closed")))
	assert.False(t, isClosedErr(errors.New("net::ERR_CONNECTION_REFUSED")))
}

func TestLaunch_CanceledContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, backend := range []string{BackendPlaywright, BackendChromedp} {
		l, err := NewLauncher(backend, DefaultOptions(), logger)
		require.NoError(t, err)
		_, err = l.Launch(ctx, nil)
		require.ErrorIs(t, err, context.Canceled, backend)
	}
}
