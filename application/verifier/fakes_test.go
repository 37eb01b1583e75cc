package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"monaco_verification/domain/entities"
	"monaco_verification/domain/interfaces"
)

// fakePage emulates the demo page closely enough to drive the scenarios
type fakePage struct {
	mu         sync.Mutex
	visible    map[string]bool
	texts      map[string][]string
	typed      strings.Builder
	pressed    []string
	clicks     []string
	evaluated  []string
	navigated  []string
	darkTheme  bool
	closeCount int
	closeErr   error
	navErr     error
	onType     func(p *fakePage)
	events     []entities.ConsoleEvent
	sink       interfaces.ConsoleSink
}

func newFakePage(visible ...string) *fakePage {
	p := &fakePage{
		visible: make(map[string]bool),
		texts:   make(map[string][]string),
	}
	for _, sel := range visible {
		p.visible[sel] = true
	}
	return p
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	events, sink := p.events, p.sink
	p.mu.Unlock()
	if p.navErr != nil {
		return p.navErr
	}
	for _, ev := range events {
		if sink != nil {
			sink(ev)
		}
	}
	return nil
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch selector {
	case "body.dark-theme":
		if p.darkTheme {
			return nil
		}
	case "body:not(.dark-theme)":
		if !p.darkTheme {
			return nil
		}
	default:
		if p.visible[selector] {
			return nil
		}
	}
	return fmt.Errorf("waiting for %s: %w", selector, interfaces.ErrTimeout)
}

func (p *fakePage) IsElementVisible(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[selector], nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible[selector] {
		return fmt.Errorf("failed to click %s: %w", selector, interfaces.ErrTimeout)
	}
	p.clicks = append(p.clicks, selector)
	if selector == "#theme-toggle" {
		p.darkTheme = !p.darkTheme
	}
	return nil
}

func (p *fakePage) Press(ctx context.Context, keys string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pressed = append(p.pressed, keys)
	return nil
}

func (p *fakePage) TypeText(ctx context.Context, text string) error {
	p.mu.Lock()
	p.typed.WriteString(text)
	onType := p.onType
	p.mu.Unlock()
	if onType != nil {
		onType(p)
	}
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated = append(p.evaluated, script)
	if strings.Contains(script, "loading-indicator") {
		p.visible["#loading-indicator"] = true
	}
	return nil, nil
}

func (p *fakePage) TextContent(ctx context.Context, selector string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	seq, ok := p.texts[selector]
	if !ok || len(seq) == 0 {
		return "", false, nil
	}
	text := seq[0]
	if len(seq) > 1 {
		p.texts[selector] = seq[1:]
	}
	return text, true, nil
}

func (p *fakePage) TakeScreenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return p.closeErr
}

type fakeLauncher struct {
	page     *fakePage
	err      error
	launches int
}

func (l *fakeLauncher) Name() string { return "fake" }

func (l *fakeLauncher) Launch(ctx context.Context, sink interfaces.ConsoleSink) (interfaces.BrowserController, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	l.page.sink = sink
	return l.page, nil
}

type memStore struct {
	mu        sync.Mutex
	artifacts map[string][]byte
	order     []string
	reports   []*entities.Report
	runs      int
}

func newMemStore() *memStore {
	return &memStore{artifacts: make(map[string][]byte)}
}

func (s *memStore) BeginRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.artifacts = make(map[string][]byte)
	s.order = nil
}

func (s *memStore) SaveArtifact(path string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[path]; ok {
		return "", errors.New("artifact already written in this run")
	}
	s.artifacts[path] = data
	s.order = append(s.order, path)
	return path, nil
}

func (s *memStore) SaveReport(report *entities.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return "report-" + report.Scenario + ".json", nil
}

func (s *memStore) LoadReport(scenario string) (*entities.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].Scenario == scenario {
			return s.reports[i], nil
		}
	}
	return nil, errors.New("report not found")
}

type staticPolicy struct{ err error }

func (p staticPolicy) CheckTarget(string) error { return p.err }

type recordingObserver struct {
	started  []string
	finished []entities.ProbeOutcome
}

func (o *recordingObserver) ProbeStarted(step entities.Step) {
	o.started = append(o.started, step.Label())
}

func (o *recordingObserver) ProbeFinished(result entities.ProbeResult) {
	o.finished = append(o.finished, result.Outcome)
}
