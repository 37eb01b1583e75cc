package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"monaco_verification/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const (
	BackendPlaywright = "playwright"
	BackendChromedp   = "chromedp"
)

// ErrUnknownBackend is returned for backend names without a launcher
var ErrUnknownBackend = errors.New("unknown browser backend")

const defaultTimeout = 30 * time.Second

// Options configures the browser started by a launcher
type Options struct {
	Headless       bool
	DefaultTimeout time.Duration
	ViewportWidth  int
	ViewportHeight int
	// Install downloads the playwright driver and chromium before launch
	Install bool
	// SlowMo delays every playwright operation, useful with Headless off
	SlowMo time.Duration
}

// DefaultOptions returns headless 1280x720 with a 30s driver timeout
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		DefaultTimeout: defaultTimeout,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = def.DefaultTimeout
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = def.ViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = def.ViewportHeight
	}
	return o
}

// NewLauncher - returns the launcher for a backend name
func NewLauncher(backend string, opts Options, logger logrus.FieldLogger) (interfaces.Launcher, error) {
	switch strings.ToLower(backend) {
	case "", BackendPlaywright:
		return NewPlaywrightLauncher(opts, logger), nil
	case BackendChromedp:
		return NewChromedpLauncher(opts, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", ErrUnknownBackend, backend, BackendPlaywright, BackendChromedp)
	}
}

// effectiveTimeout - picks the step timeout or the default, capped by the ctx deadline
func effectiveTimeout(ctx context.Context, timeout, fallback time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = fallback
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}
	return timeout
}

// isClosedErr - reports errors raised by an already closed browser
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
