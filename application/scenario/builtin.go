// Package scenario holds the probe sequences run against the editor demo.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"monaco_verification/domain/entities"
)

const (
	Completion = "completion"
	Frontend   = "frontend"
	All        = "all"
)

// ErrUnknownScenario is returned for names that are not built in
var ErrUnknownScenario = errors.New("unknown scenario")

const optionalWait = 10 * time.Second

// CompletionScenario types "Console." into the editor and expects the
// suggestion widget to open.
func CompletionScenario() entities.Scenario {
	return entities.Scenario{
		Name:        Completion,
		Description: "focus the editor, type Console. and expect the suggestion widget",
		Steps: []entities.Step{
			{Name: "navigate", Kind: entities.StepNavigate, Critical: true},
			{Name: "body", Kind: entities.StepWaitForSelector, Selector: "body", Critical: true},
			{Name: "container", Kind: entities.StepWaitForSelector, Selector: "#container", Critical: true},
			{Name: "editor", Kind: entities.StepWaitForSelector, Selector: ".monaco-editor", Timeout: optionalWait, Critical: true},
			{Name: "focus editor", Kind: entities.StepClick, Selector: ".monaco-editor"},
			{Name: "end of document", Kind: entities.StepPress, Keys: "Control+End"},
			{Name: "new line", Kind: entities.StepPress, Keys: "Enter"},
			{Name: "type member access", Kind: entities.StepType, Text: "Console."},
			{Name: "suggestion widget", Kind: entities.StepWaitForSelector, Selector: ".suggest-widget.visible", Timeout: optionalWait, Required: true},
			{Name: "completion screenshot", Kind: entities.StepScreenshot, Path: "monaco_completion.png", Required: true},
		},
	}
}

// FrontendScenario checks the status bar, the theme toggle round trip,
// the loading indicator and the initial validation state.
func FrontendScenario() entities.Scenario {
	return entities.Scenario{
		Name:        Frontend,
		Description: "status bar, theme toggle, loading indicator and validation status",
		Steps: []entities.Step{
			{Name: "navigate", Kind: entities.StepNavigate, Critical: true},
			{Name: "editor", Kind: entities.StepWaitForSelector, Selector: ".monaco-editor", Critical: true},
			{Name: "cursor position", Kind: entities.StepExpectVisible, Selector: "#cursor-position"},
			{Name: "validation status", Kind: entities.StepExpectVisible, Selector: "#validation-status"},
			{Name: "toggle dark theme", Kind: entities.StepClick, Selector: "#theme-toggle"},
			{Name: "dark theme applied", Kind: entities.StepWaitForSelector, Selector: "body.dark-theme", Required: true},
			{Name: "dark mode screenshot", Kind: entities.StepScreenshot, Path: "dark_mode.png", Required: true},
			{Name: "toggle light theme", Kind: entities.StepClick, Selector: "#theme-toggle"},
			{Name: "dark theme removed", Kind: entities.StepWaitForSelector, Selector: "body:not(.dark-theme)", Required: true},
			{Name: "show loading indicator", Kind: entities.StepEvaluate, Script: "document.getElementById('loading-indicator').style.display = 'inline-block'"},
			{Name: "loading state screenshot", Kind: entities.StepScreenshot, Path: "loading_state.png", Required: true},
			{
				Name:     "initial validation",
				Kind:     entities.StepWaitForText,
				Selector: "#validation-status",
				Timeout:  optionalWait,
				Reject:   `(?i)validating|checking|loading|pending|\.\.\.$`,
			},
			{Name: "initial state screenshot", Kind: entities.StepScreenshot, Path: "initial_state.png", Required: true},
		},
	}
}

var builtins = map[string]func() entities.Scenario{
	Completion: CompletionScenario,
	Frontend:   FrontendScenario,
}

// Names returns the built-in scenario names in stable order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the scenarios for a name; "all" expands to every built-in
func Resolve(name string) ([]entities.Scenario, error) {
	if name == All {
		out := make([]entities.Scenario, 0, len(builtins))
		for _, n := range Names() {
			out = append(out, builtins[n]())
		}
		return out, nil
	}
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v, %s)", ErrUnknownScenario, name, Names(), All)
	}
	return []entities.Scenario{build()}, nil
}
