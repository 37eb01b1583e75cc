package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"monaco_verification/domain/entities"
	"monaco_verification/domain/interfaces"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type chromedpLauncher struct {
	opts   Options
	logger logrus.FieldLogger
	// start allocates the browser; the first Run binds Chrome to its context
	start func(ctx context.Context) error
}

// NewChromedpLauncher - creates launcher driving Chrome over the DevTools protocol
func NewChromedpLauncher(opts Options, logger logrus.FieldLogger) interfaces.Launcher {
	return &chromedpLauncher{
		opts:   opts.withDefaults(),
		logger: logger,
		start: func(ctx context.Context) error {
			return chromedp.Run(ctx)
		},
	}
}

func (l *chromedpLauncher) Name() string { return BackendChromedp }

// Launch - starts Chrome and attaches to its first tab
func (l *chromedpLauncher) Launch(ctx context.Context, sink interfaces.ConsoleSink) (interfaces.BrowserController, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.opts.Install {
		l.logger.Warn("--install only applies to the playwright backend, using the system Chrome")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.WindowSize(l.opts.ViewportWidth, l.opts.ViewportHeight),
	)

	// The browser outlives individual calls, so it hangs off Background
	// and each call derives its own deadline.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if sink != nil {
		chromedp.ListenTarget(browserCtx, func(ev interface{}) {
			switch ev := ev.(type) {
			case *runtime.EventConsoleAPICalled:
				sink(entities.ConsoleEvent{
					Source: entities.SourceConsole,
					Type:   string(ev.Type),
					Text:   consoleText(ev.Args),
					At:     time.Now(),
				})
			case *runtime.EventExceptionThrown:
				sink(entities.ConsoleEvent{
					Source: entities.SourcePageError,
					Text:   ev.ExceptionDetails.Error(),
					At:     time.Now(),
				})
			}
		})
	}

	// Chrome lives as long as browserCtx, so the startup deadline and the
	// caller's cancellation cancel it from the outside instead of wrapping it.
	var timedOut atomic.Bool
	watchdog := time.AfterFunc(l.opts.DefaultTimeout, func() {
		timedOut.Store(true)
		browserCancel()
	})
	stop := context.AfterFunc(ctx, browserCancel)

	err := l.start(browserCtx)
	watchdogStopped := watchdog.Stop()
	cancelStopped := stop()
	if err == nil && (!watchdogStopped || !cancelStopped) {
		err = context.Canceled
	}
	if err != nil {
		browserCancel()
		allocCancel()
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case timedOut.Load():
			return nil, fmt.Errorf("failed to launch browser: %w after %s", interfaces.ErrTimeout, l.opts.DefaultTimeout)
		default:
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
	}

	return &chromedpController{
		browserCtx:     browserCtx,
		browserCancel:  browserCancel,
		allocCancel:    allocCancel,
		defaultTimeout: l.opts.DefaultTimeout,
	}, nil
}

type chromedpController struct {
	browserCtx     context.Context
	browserCancel  context.CancelFunc
	allocCancel    context.CancelFunc
	defaultTimeout time.Duration
	mu             sync.Mutex
	closed         bool
}

// run - runs actions on the tab, bounded by ctx and the timeout
func (c *chromedpController) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return interfaces.ErrSessionClosed
	}
	c.mu.Unlock()

	d := effectiveTimeout(ctx, timeout, c.defaultTimeout)
	runCtx, cancel := context.WithTimeout(c.browserCtx, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", interfaces.ErrTimeout, d)
	}
	return err
}

// Navigate - navigates to the specified URL
func (c *chromedpController) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitForSelector - waits for an element to become visible
func (c *chromedpController) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	err := c.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(err, interfaces.ErrTimeout) {
		return fmt.Errorf("waiting for %s: %w; %s", selector, err, c.similar(ctx, selector))
	}
	return fmt.Errorf("waiting for %s: %w", selector, err)
}

// similar - lists elements resembling selector, for timeout messages
func (c *chromedpController) similar(ctx context.Context, selector string) string {
	keywords := selectorKeywords(selector)
	if len(keywords) == 0 {
		return describeSimilar(nil)
	}
	encoded, _ := json.Marshal(keywords)
	var result interface{}
	script := fmt.Sprintf("(%s)(%s)", similarElementsJS, encoded)
	if err := c.run(ctx, 2*time.Second, chromedp.Evaluate(script, &result)); err != nil {
		return describeSimilar(nil)
	}
	return describeSimilar(parseElements(result))
}

// IsElementVisible - checks if the first matching element is rendered
func (c *chromedpController) IsElementVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden';
	})()`, jsString(selector))
	if err := c.run(ctx, 0, chromedp.Evaluate(script, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

// Click - clicks on an element by CSS selector
func (c *chromedpController) Click(ctx context.Context, selector string) error {
	if err := c.run(ctx, 0, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// Press - dispatches a key chord to the focused element
func (c *chromedpController) Press(ctx context.Context, keys string) error {
	chord, err := parseKeyChord(keys)
	if err != nil {
		return err
	}
	if err := c.run(ctx, 0, chromedp.KeyEvent(chord.key, chromedp.KeyModifiers(chord.modifiers...))); err != nil {
		return fmt.Errorf("failed to press %s: %w", keys, err)
	}
	return nil
}

// TypeText - types literal text into the focused element
func (c *chromedpController) TypeText(ctx context.Context, text string) error {
	if err := c.run(ctx, 0, chromedp.KeyEvent(text)); err != nil {
		return fmt.Errorf("failed to type text: %w", err)
	}
	return nil
}

// Evaluate - evaluates a script; statements are allowed and the value of
// the last one is returned, undefined and null become nil
func (c *chromedpController) Evaluate(ctx context.Context, script string) (interface{}, error) {
	var result interface{}
	if err := emptyResult(c.run(ctx, 0, chromedp.Evaluate(script, &result))); err != nil {
		return nil, fmt.Errorf("failed to evaluate script: %w", err)
	}
	return result, nil
}

// emptyResult - drops the errors chromedp reports for undefined and null values
func emptyResult(err error) error {
	if errors.Is(err, chromedp.ErrJSUndefined) || errors.Is(err, chromedp.ErrJSNull) {
		return nil
	}
	return err
}

// TextContent - returns the text of the first element matching selector
func (c *chromedpController) TextContent(ctx context.Context, selector string) (string, bool, error) {
	var result interface{}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return el ? el.textContent : null;
	})()`, jsString(selector))
	if err := emptyResult(c.run(ctx, 0, chromedp.Evaluate(script, &result))); err != nil {
		return "", false, fmt.Errorf("failed to read text of %s: %w", selector, err)
	}
	text, ok := result.(string)
	return text, ok, nil
}

// TakeScreenshot - captures the current viewport
func (c *chromedpController) TakeScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, 0, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close - closes the tab, the browser and the allocator
func (c *chromedpController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var closeErr error
	if err := chromedp.Cancel(c.browserCtx); err != nil && !isClosedErr(err) && !errors.Is(err, context.Canceled) {
		closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close browser: %w", err))
	}
	c.browserCancel()
	c.allocCancel()
	return closeErr
}

// jsString - quotes s as a JavaScript string literal
func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

// consoleText - renders console arguments the way the page logged them
func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case len(arg.Value) > 0:
			raw := string(arg.Value)
			if unquoted, err := strconv.Unquote(raw); err == nil {
				raw = unquoted
			}
			parts = append(parts, raw)
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}
