package scenario

import (
	"bytes"
	"fmt"
	"os"

	"monaco_verification/domain/entities"

	"gopkg.in/yaml.v3"
)

var knownKinds = map[entities.StepKind]bool{
	entities.StepNavigate:        true,
	entities.StepWaitForSelector: true,
	entities.StepExpectVisible:   true,
	entities.StepClick:           true,
	entities.StepPress:           true,
	entities.StepType:            true,
	entities.StepPause:           true,
	entities.StepWaitForText:     true,
	entities.StepEvaluate:        true,
	entities.StepScreenshot:      true,
}

// LoadFile reads a scenario from a YAML file
func LoadFile(path string) (entities.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.Scenario{}, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scenario
func Parse(data []byte) (entities.Scenario, error) {
	var sc entities.Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return entities.Scenario{}, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := Validate(sc); err != nil {
		return entities.Scenario{}, err
	}
	return sc, nil
}

// Validate checks that every step names a known kind and carries its operand
func Validate(sc entities.Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}

	seenPaths := make(map[string]int)
	for i, step := range sc.Steps {
		if !knownKinds[step.Kind] {
			return fmt.Errorf("step %d: unknown kind %q", i+1, step.Kind)
		}
		switch step.Kind {
		case entities.StepWaitForSelector, entities.StepExpectVisible, entities.StepClick, entities.StepWaitForText:
			if step.Selector == "" {
				return fmt.Errorf("step %d (%s): selector is required", i+1, step.Kind)
			}
		case entities.StepPress:
			if step.Keys == "" {
				return fmt.Errorf("step %d (%s): keys are required", i+1, step.Kind)
			}
		case entities.StepType:
			if step.Text == "" {
				return fmt.Errorf("step %d (%s): text is required", i+1, step.Kind)
			}
		case entities.StepEvaluate:
			if step.Script == "" {
				return fmt.Errorf("step %d (%s): script is required", i+1, step.Kind)
			}
		case entities.StepScreenshot:
			if step.Path == "" {
				return fmt.Errorf("step %d (%s): path is required", i+1, step.Kind)
			}
			if prev, ok := seenPaths[step.Path]; ok {
				return fmt.Errorf("step %d (%s): path %q already written by step %d", i+1, step.Kind, step.Path, prev)
			}
			seenPaths[step.Path] = i + 1
		}
	}
	return nil
}
