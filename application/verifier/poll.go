package verifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"monaco_verification/domain/entities"
	"monaco_verification/domain/interfaces"
)

const (
	defaultPollTimeout  = 10 * time.Second
	defaultPollInterval = 250 * time.Millisecond
)

var nonEmpty = regexp.MustCompile(`\S`)

// waitForText polls the text of step.Selector until it matches step.Pattern
// and does not match step.Reject, or step.Timeout elapses.
func waitForText(ctx context.Context, ctrl interfaces.BrowserController, step entities.Step) error {
	accept := nonEmpty
	if step.Pattern != "" {
		re, err := regexp.Compile(step.Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", step.Pattern, err)
		}
		accept = re
	}
	var reject *regexp.Regexp
	if step.Reject != "" {
		re, err := regexp.Compile(step.Reject)
		if err != nil {
			return fmt.Errorf("invalid reject pattern %q: %w", step.Reject, err)
		}
		reject = re
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	interval := step.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last, seen := "", false
	for {
		text, found, err := ctrl.TextContent(pollCtx, step.Selector)
		if err != nil && pollCtx.Err() == nil {
			return err
		}
		if found {
			last, seen = strings.TrimSpace(text), true
			if accept.MatchString(last) && (reject == nil || !reject.MatchString(last)) {
				return nil
			}
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !seen {
				return fmt.Errorf("%w: %s not found after %s", interfaces.ErrTimeout, step.Selector, timeout)
			}
			return fmt.Errorf("%w: %s text %q not terminal after %s", interfaces.ErrTimeout, step.Selector, last, timeout)
		case <-ticker.C:
		}
	}
}

// pause blocks for d or until ctx is done
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
