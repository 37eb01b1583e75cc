package interfaces

import (
	"context"
	"errors"
	"time"

	"monaco_verification/domain/entities"
)

var (
	// ErrTimeout is returned when a wait exceeds its deadline
	ErrTimeout = errors.New("timed out")
	// ErrSessionClosed is returned by controllers used after Close
	ErrSessionClosed = errors.New("browser session closed")
)

// BrowserController defines the interface for one browser session with one page
type BrowserController interface {
	// Navigate navigates to a URL
	Navigate(ctx context.Context, url string) error

	// WaitForSelector blocks until selector is visible; zero timeout uses the driver default
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// IsElementVisible checks if an element is currently rendered
	IsElementVisible(ctx context.Context, selector string) (bool, error)

	// Click clicks on an element by selector
	Click(ctx context.Context, selector string) error

	// Press sends a key or key chord such as "Control+End" to the focused element
	Press(ctx context.Context, keys string) error

	// TypeText sends literal text to the focused element
	TypeText(ctx context.Context, text string) error

	// Evaluate runs a JavaScript expression in the page
	Evaluate(ctx context.Context, script string) (interface{}, error)

	// TextContent returns the text of the first element matching selector
	TextContent(ctx context.Context, selector string) (string, bool, error)

	// TakeScreenshot captures the current viewport as PNG
	TakeScreenshot(ctx context.Context) ([]byte, error)

	// Close closes the page, the browser and the driver
	Close() error
}

// ConsoleSink receives console messages and page errors
type ConsoleSink func(entities.ConsoleEvent)

// Launcher starts a browser session
type Launcher interface {
	// Name identifies the backend in reports
	Name() string

	// Launch starts a browser and opens a page; events are delivered to sink
	Launch(ctx context.Context, sink ConsoleSink) (BrowserController, error)
}
