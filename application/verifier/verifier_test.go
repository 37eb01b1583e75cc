package verifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"monaco_verification/application/scenario"
	"monaco_verification/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "http://localhost:5280"

func newTestVerifier(launcher *fakeLauncher, store *memStore) (*Verifier, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewVerifier(launcher, store, staticPolicy{}, logger, target), hook
}

func logMessages(hook *test.Hook) string {
	var b strings.Builder
	for _, e := range hook.AllEntries() {
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}

func probeByName(t *testing.T, report *entities.Report, name string) entities.ProbeResult {
	t.Helper()
	for _, p := range report.Probes {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("probe %q not in report", name)
	return entities.ProbeResult{}
}

func TestVerifier_CompletionScenario_SuggestionAppears(t *testing.T) {
	page := newFakePage("body", "#container", ".monaco-editor")
	page.onType = func(p *fakePage) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if strings.HasSuffix(p.typed.String(), "Console.") {
			p.visible[".suggest-widget.visible"] = true
		}
	}
	store := newMemStore()
	v, _ := newTestVerifier(&fakeLauncher{page: page}, store)

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.Equal(t, []string{target}, page.navigated)
	assert.Equal(t, []string{".monaco-editor"}, page.clicks)
	assert.Equal(t, []string{"Control+End", "Enter"}, page.pressed)
	assert.Equal(t, "Console.", page.typed.String())
	assert.Equal(t, []string{"monaco_completion.png"}, report.Artifacts)
	assert.NotEmpty(t, store.artifacts["monaco_completion.png"])
	assert.Equal(t, 1, page.closeCount)
	require.Len(t, store.reports, 1)
	assert.Same(t, report, store.reports[0])
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "fake", report.Backend)
}

func TestVerifier_CompletionScenario_BackendUnreachable(t *testing.T) {
	page := newFakePage("body", "#container", ".monaco-editor")
	store := newMemStore()
	v, hook := newTestVerifier(&fakeLauncher{page: page}, store)

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err, "a missing suggestion widget is reported, not raised")

	assert.False(t, report.Passed)
	widget := probeByName(t, report, "suggestion widget")
	assert.Equal(t, entities.OutcomeFailed, widget.Outcome)
	assert.Contains(t, widget.Detail, "timed out")

	// evidence is still captured after the soft failure
	shot := probeByName(t, report, "completion screenshot")
	assert.Equal(t, entities.OutcomePassed, shot.Outcome)
	assert.Equal(t, []string{"monaco_completion.png"}, report.Artifacts)

	assert.Contains(t, logMessages(hook), "Probe failed")
	assert.Equal(t, 1, page.closeCount)
}

func TestVerifier_FrontendScenario_ThemeRoundTrip(t *testing.T) {
	page := newFakePage(".monaco-editor", "#cursor-position", "#validation-status", "#theme-toggle")
	page.texts["#validation-status"] = []string{"Validating...", "No errors"}
	store := newMemStore()
	v, _ := newTestVerifier(&fakeLauncher{page: page}, store)

	report, err := v.Run(context.Background(), scenario.FrontendScenario())
	require.NoError(t, err)

	assert.True(t, report.Passed, "failures: %+v", report.Failures())
	assert.False(t, page.darkTheme, "toggling twice restores the light theme")
	assert.Equal(t, []string{"#theme-toggle", "#theme-toggle"}, page.clicks)
	assert.Equal(t, []string{"dark_mode.png", "loading_state.png", "initial_state.png"}, report.Artifacts)
	require.Len(t, page.evaluated, 1)
	assert.Contains(t, page.evaluated[0], "loading-indicator")
	assert.Equal(t, 1, page.closeCount)
}

func TestVerifier_FrontendScenario_MissingStatusBarIsSoft(t *testing.T) {
	page := newFakePage(".monaco-editor", "#theme-toggle")
	page.texts["#validation-status"] = []string{"OK"}
	v, hook := newTestVerifier(&fakeLauncher{page: page}, newMemStore())

	report, err := v.Run(context.Background(), scenario.FrontendScenario())
	require.NoError(t, err)

	cursor := probeByName(t, report, "cursor position")
	assert.Equal(t, entities.OutcomeFailed, cursor.Outcome)
	assert.False(t, cursor.Required)
	assert.True(t, report.Passed, "visibility probes are soft")
	assert.Contains(t, logMessages(hook), "Probe failed, continuing")
}

func TestVerifier_CriticalFailureSkipsRemainingProbes(t *testing.T) {
	page := newFakePage("body", "#container")
	store := newMemStore()
	v, hook := newTestVerifier(&fakeLauncher{page: page}, store)

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)

	assert.False(t, report.Passed)
	editor := probeByName(t, report, "editor")
	assert.Equal(t, entities.OutcomeFailed, editor.Outcome)

	steps := scenario.CompletionScenario().Steps
	require.Len(t, report.Probes, len(steps))
	for _, p := range report.Probes[4:] {
		assert.Equal(t, entities.OutcomeSkipped, p.Outcome, p.Name)
	}
	assert.Empty(t, report.Artifacts, "no screenshots after a critical failure")
	assert.Empty(t, store.artifacts)
	assert.Empty(t, page.clicks)
	assert.Equal(t, 1, page.closeCount, "teardown still runs")
	assert.Contains(t, logMessages(hook), "Critical probe failed")
}

func TestVerifier_NavigationFailureIsCritical(t *testing.T) {
	page := newFakePage("body")
	page.navErr = errors.New("net::ERR_CONNECTION_REFUSED")
	v, _ := newTestVerifier(&fakeLauncher{page: page}, newMemStore())

	report, err := v.Run(context.Background(), scenario.FrontendScenario())
	require.NoError(t, err)

	assert.False(t, report.Passed)
	assert.Equal(t, entities.OutcomeFailed, report.Probes[0].Outcome)
	assert.Contains(t, report.Probes[0].Detail, "ERR_CONNECTION_REFUSED")
	assert.Equal(t, len(report.Probes)-1, report.Count(entities.OutcomeSkipped))
	assert.Equal(t, 1, page.closeCount)
}

func TestVerifier_LaunchFailureIsFatal(t *testing.T) {
	launcher := &fakeLauncher{page: newFakePage(), err: errors.New("chromium not installed")}
	store := newMemStore()
	v, _ := newTestVerifier(launcher, store)

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to launch browser")

	require.NotNil(t, report)
	assert.False(t, report.Passed)
	assert.Contains(t, report.Error, "chromium not installed")
	assert.Empty(t, report.Probes)
	assert.Equal(t, 0, launcher.page.closeCount)
	require.Len(t, store.reports, 1, "the report is saved even when launch fails")
}

func TestVerifier_TargetRejectedBeforeLaunch(t *testing.T) {
	launcher := &fakeLauncher{page: newFakePage()}
	logger, _ := test.NewNullLogger()
	v := NewVerifier(launcher, newMemStore(), staticPolicy{err: errors.New("target not allowed")}, logger, "http://example.com")

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.Error(t, err)
	assert.Equal(t, 0, launcher.launches)
	assert.False(t, report.Passed)
}

func TestVerifier_ConsoleEventsForwarded(t *testing.T) {
	page := newFakePage("body", "#container", ".monaco-editor", ".suggest-widget.visible")
	now := time.Now()
	page.events = []entities.ConsoleEvent{
		{Source: entities.SourceConsole, Type: "log", Text: "editor ready", At: now},
		{Source: entities.SourcePageError, Text: "ReferenceError: monaco is not defined", At: now},
	}
	v, hook := newTestVerifier(&fakeLauncher{page: page}, newMemStore())

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)

	require.Len(t, report.Console, 2)
	assert.Equal(t, "editor ready", report.Console[0].Text)
	logs := logMessages(hook)
	assert.Contains(t, logs, "Console: editor ready")
	assert.Contains(t, logs, "PageError: ReferenceError: monaco is not defined")
}

func TestVerifier_CanceledContextSkipsProbes(t *testing.T) {
	page := newFakePage("body", "#container", ".monaco-editor")
	v, _ := newTestVerifier(&fakeLauncher{page: page}, newMemStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := v.Run(ctx, scenario.CompletionScenario())
	require.NoError(t, err)
	assert.Equal(t, len(report.Probes), report.Count(entities.OutcomeSkipped))
	assert.False(t, report.Passed)
	assert.Empty(t, page.navigated)
	assert.Equal(t, 1, page.closeCount)
}

func TestVerifier_CloseErrorIsLogged(t *testing.T) {
	page := newFakePage("body", "#container", ".monaco-editor", ".suggest-widget.visible")
	page.closeErr = errors.New("failed to close browser: pipe broken")
	v, hook := newTestVerifier(&fakeLauncher{page: page}, newMemStore())

	report, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.Equal(t, 1, page.closeCount)
	assert.Contains(t, logMessages(hook), "failed to close browser")
}

func TestVerifier_StepValidation(t *testing.T) {
	page := newFakePage()
	v, _ := newTestVerifier(&fakeLauncher{page: page}, newMemStore())

	report, err := v.Run(context.Background(), entities.Scenario{
		Name: "broken",
		Steps: []entities.Step{
			{Kind: entities.StepClick},
			{Kind: entities.StepKind("hover"), Selector: "#x"},
			{Kind: entities.StepScreenshot, Required: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Probes, 3)
	assert.Contains(t, report.Probes[0].Detail, "selector is required")
	assert.Contains(t, report.Probes[1].Detail, "unknown step kind")
	assert.Contains(t, report.Probes[2].Detail, "path is required")
	assert.False(t, report.Passed)
}

func TestVerifier_ObserverSeesExecutedProbes(t *testing.T) {
	page := newFakePage("body", "#container")
	v, _ := newTestVerifier(&fakeLauncher{page: page}, newMemStore())
	obs := &recordingObserver{}
	v.SetObserver(obs)

	_, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)

	assert.Equal(t, []string{"navigate", "body", "container", "editor"}, obs.started)
	assert.Equal(t, []entities.ProbeOutcome{
		entities.OutcomePassed, entities.OutcomePassed, entities.OutcomePassed, entities.OutcomeFailed,
	}, obs.finished)
}

func TestVerifier_RerunUsesSameArtifactNames(t *testing.T) {
	page := newFakePage("body", "#container", ".monaco-editor", ".suggest-widget.visible")
	store := newMemStore()
	v, _ := newTestVerifier(&fakeLauncher{page: page}, store)

	first, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)
	second, err := v.Run(context.Background(), scenario.CompletionScenario())
	require.NoError(t, err)

	assert.Equal(t, first.Artifacts, second.Artifacts)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 2, store.runs)
	assert.Equal(t, 2, page.closeCount)
}

func TestSession_ClosesOnce(t *testing.T) {
	page := newFakePage()
	sess := newSession(page)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, page.closeCount)
	assert.Equal(t, 1, sess.closes)
}
