package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"monaco_verification/domain/entities"
	"monaco_verification/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const textContentJS = `selector => {
	const el = document.querySelector(selector);
	return el ? el.textContent : null;
}`

type playwrightLauncher struct {
	opts   Options
	logger logrus.FieldLogger
}

// NewPlaywrightLauncher - creates launcher backed by playwright-go and chromium
func NewPlaywrightLauncher(opts Options, logger logrus.FieldLogger) interfaces.Launcher {
	return &playwrightLauncher{opts: opts.withDefaults(), logger: logger}
}

func (l *playwrightLauncher) Name() string { return BackendPlaywright }

// Launch - starts playwright, launches chromium and opens one page
func (l *playwrightLauncher) Launch(ctx context.Context, sink interfaces.ConsoleSink) (interfaces.BrowserController, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.opts.Install {
		l.logger.Info("Installing playwright driver and chromium")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if l.opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(l.opts.SlowMo.Milliseconds()))
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  l.opts.ViewportWidth,
			Height: l.opts.ViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(l.opts.DefaultTimeout.Milliseconds()))

	if sink != nil {
		page.OnConsole(func(msg playwright.ConsoleMessage) {
			sink(entities.ConsoleEvent{
				Source: entities.SourceConsole,
				Type:   msg.Type(),
				Text:   msg.Text(),
				At:     time.Now(),
			})
		})
		page.OnPageError(func(pageErr error) {
			sink(entities.ConsoleEvent{
				Source: entities.SourcePageError,
				Text:   pageErr.Error(),
				At:     time.Now(),
			})
		})
	}

	return &browserController{
		pw:             pw,
		browser:        browser,
		page:           page,
		defaultTimeout: l.opts.DefaultTimeout,
	}, nil
}

type browserController struct {
	pw             *playwright.Playwright
	browser        playwright.Browser
	page           playwright.Page
	defaultTimeout time.Duration
	mu             sync.Mutex
	closed         bool
}

// current - returns the page unless the session is closed or ctx is done
func (b *browserController) current(ctx context.Context) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, interfaces.ErrSessionClosed
	}
	return b.page, nil
}

func (b *browserController) timeoutMs(ctx context.Context, timeout time.Duration) *float64 {
	d := effectiveTimeout(ctx, timeout, b.defaultTimeout)
	return playwright.Float(float64(d.Milliseconds()))
}

// Navigate - navigates to the specified URL
func (b *browserController) Navigate(ctx context.Context, url string) error {
	page, err := b.current(ctx)
	if err != nil {
		return err
	}

	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   b.timeoutMs(ctx, 0),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, wrapTimeout(err))
	}
	return nil
}

// WaitForSelector - waits for an element to become visible
func (b *browserController) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	page, err := b.current(ctx)
	if err != nil {
		return err
	}

	err = page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: b.timeoutMs(ctx, timeout),
	})
	if err != nil {
		err = wrapTimeout(err)
		if errors.Is(err, interfaces.ErrTimeout) {
			return fmt.Errorf("waiting for %s: %w; %s", selector, err, b.similar(page, selector))
		}
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

// similar - lists elements resembling selector, for timeout messages
func (b *browserController) similar(page playwright.Page, selector string) string {
	keywords := selectorKeywords(selector)
	if len(keywords) == 0 {
		return describeSimilar(nil)
	}
	result, err := page.Evaluate(similarElementsJS, keywords)
	if err != nil {
		return describeSimilar(nil)
	}
	return describeSimilar(parseElements(result))
}

// IsElementVisible - checks if the first matching element is visible
func (b *browserController) IsElementVisible(ctx context.Context, selector string) (bool, error) {
	page, err := b.current(ctx)
	if err != nil {
		return false, err
	}
	return page.Locator(selector).First().IsVisible()
}

// Click - clicks on an element by CSS selector
func (b *browserController) Click(ctx context.Context, selector string) error {
	page, err := b.current(ctx)
	if err != nil {
		return err
	}

	err = page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: b.timeoutMs(ctx, 0),
	})
	if err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, wrapTimeout(err))
	}
	return nil
}

// Press - presses a key chord on the focused element
func (b *browserController) Press(ctx context.Context, keys string) error {
	page, err := b.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Keyboard().Press(keys); err != nil {
		return fmt.Errorf("failed to press %s: %w", keys, err)
	}
	return nil
}

// TypeText - types literal text into the focused element
func (b *browserController) TypeText(ctx context.Context, text string) error {
	page, err := b.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Keyboard().Type(text); err != nil {
		return fmt.Errorf("failed to type text: %w", err)
	}
	return nil
}

// Evaluate - evaluates a JavaScript expression in the page
func (b *browserController) Evaluate(ctx context.Context, script string) (interface{}, error) {
	page, err := b.current(ctx)
	if err != nil {
		return nil, err
	}
	result, err := page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate script: %w", err)
	}
	return result, nil
}

// TextContent - returns the text of the first element matching selector
func (b *browserController) TextContent(ctx context.Context, selector string) (string, bool, error) {
	page, err := b.current(ctx)
	if err != nil {
		return "", false, err
	}
	result, err := page.Evaluate(textContentJS, selector)
	if err != nil {
		return "", false, fmt.Errorf("failed to read text of %s: %w", selector, err)
	}
	text, ok := result.(string)
	return text, ok, nil
}

// TakeScreenshot - takes a screenshot of the current viewport
func (b *browserController) TakeScreenshot(ctx context.Context) ([]byte, error) {
	page, err := b.current(ctx)
	if err != nil {
		return nil, err
	}
	return page.Screenshot()
}

// Close - closes the browser and stops the playwright driver
func (b *browserController) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var closeErr error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}
	b.page = nil
	return closeErr
}

// wrapTimeout - maps playwright timeouts to interfaces.ErrTimeout
func wrapTimeout(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", interfaces.ErrTimeout, err)
	}
	return err
}
