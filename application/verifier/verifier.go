package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"monaco_verification/domain/entities"
	"monaco_verification/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotVisible is returned by visibility probes that find a hidden element
var ErrNotVisible = errors.New("element not visible")

type Verifier struct {
	launcher interfaces.Launcher
	storage  interfaces.Storage
	policy   interfaces.TargetPolicy
	observer interfaces.ProbeObserver
	logger   logrus.FieldLogger
	target   string
	now      func() time.Time
}

// NewVerifier - creates new verifier for one target URL
func NewVerifier(launcher interfaces.Launcher, storage interfaces.Storage, policy interfaces.TargetPolicy, logger logrus.FieldLogger, target string) *Verifier {
	return &Verifier{
		launcher: launcher,
		storage:  storage,
		policy:   policy,
		observer: nopObserver{},
		logger:   logger,
		target:   target,
		now:      time.Now,
	}
}

// SetObserver - registers an observer notified around every probe
func (v *Verifier) SetObserver(observer interfaces.ProbeObserver) {
	if observer == nil {
		observer = nopObserver{}
	}
	v.observer = observer
}

// Run - executes the scenario against a fresh browser session.
// The returned report is never nil; the error is set only for harness
// failures (policy, launch), never for failed probes.
func (v *Verifier) Run(ctx context.Context, scenario entities.Scenario) (report *entities.Report, err error) {
	report = &entities.Report{
		RunID:     uuid.NewString(),
		Scenario:  scenario.Name,
		Target:    v.target,
		Backend:   v.launcher.Name(),
		StartedAt: v.now(),
		Probes:    make([]entities.ProbeResult, 0, len(scenario.Steps)),
		Artifacts: make([]string, 0),
	}
	log := v.logger.WithFields(logrus.Fields{"scenario": scenario.Name, "run_id": report.RunID})
	tap := newConsoleTap(log)

	defer func() {
		report.Console = tap.snapshot()
		if err != nil {
			report.Error = err.Error()
		}
		report.Finish(v.now())
		path, saveErr := v.storage.SaveReport(report)
		if saveErr != nil {
			log.WithError(saveErr).Warn("failed to save report")
			return
		}
		log.WithField("path", path).Debug("report saved")
	}()

	if err := v.policy.CheckTarget(v.target); err != nil {
		return report, err
	}

	v.storage.BeginRun()

	log.Infof("Launching %s browser", v.launcher.Name())
	ctrl, err := v.launcher.Launch(ctx, tap.sink)
	if err != nil {
		return report, fmt.Errorf("failed to launch browser: %w", err)
	}

	sess := newSession(ctrl)
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close browser")
		}
	}()

	aborted := ""
	for _, step := range scenario.Steps {
		if aborted == "" && ctx.Err() != nil {
			aborted = fmt.Sprintf("run canceled: %v", ctx.Err())
			log.Warn(aborted)
		}
		if aborted != "" {
			report.Probes = append(report.Probes, entities.ProbeResult{
				Name:     step.Label(),
				Kind:     step.Kind,
				Outcome:  entities.OutcomeSkipped,
				Required: step.Required || step.Critical,
				Detail:   aborted,
			})
			continue
		}

		result := v.probe(ctx, log, sess, step)
		report.Probes = append(report.Probes, result)
		if result.Artifact != "" {
			report.Artifacts = append(report.Artifacts, result.Artifact)
		}

		if result.Outcome == entities.OutcomeFailed && step.Critical {
			aborted = fmt.Sprintf("skipped after critical probe %q failed", result.Name)
			log.WithField("probe", result.Name).Error("Critical probe failed, remaining probes skipped")
		}
	}

	return report, nil
}

// probe - executes one step and records its outcome
func (v *Verifier) probe(ctx context.Context, log logrus.FieldLogger, ctrl interfaces.BrowserController, step entities.Step) entities.ProbeResult {
	v.observer.ProbeStarted(step)

	start := v.now()
	artifact, err := v.executeStep(ctx, ctrl, step)

	result := entities.ProbeResult{
		Name:     step.Label(),
		Kind:     step.Kind,
		Outcome:  entities.OutcomePassed,
		Required: step.Required || step.Critical,
		Duration: v.now().Sub(start),
		Artifact: artifact,
	}

	fields := logrus.Fields{"probe": result.Name, "kind": step.Kind}
	if step.Selector != "" {
		fields["selector"] = step.Selector
	}
	if err != nil {
		result.Outcome = entities.OutcomeFailed
		result.Detail = err.Error()
		entry := log.WithFields(fields).WithError(err)
		if result.Required {
			entry.Error("Probe failed")
		} else {
			entry.Warn("Probe failed, continuing")
		}
	} else {
		if artifact != "" {
			fields["artifact"] = artifact
		}
		log.WithFields(fields).Info("Probe passed")
	}

	v.observer.ProbeFinished(result)
	return result
}

// executeStep - executes single step
func (v *Verifier) executeStep(ctx context.Context, ctrl interfaces.BrowserController, step entities.Step) (string, error) {
	switch step.Kind {
	case entities.StepNavigate:
		url := step.URL
		if url == "" {
			url = v.target
		} else if err := v.policy.CheckTarget(url); err != nil {
			return "", err
		}
		return "", ctrl.Navigate(ctx, url)

	case entities.StepWaitForSelector:
		if step.Selector == "" {
			return "", fmt.Errorf("selector is required for %s step", step.Kind)
		}
		return "", ctrl.WaitForSelector(ctx, step.Selector, step.Timeout)

	case entities.StepExpectVisible:
		if step.Selector == "" {
			return "", fmt.Errorf("selector is required for %s step", step.Kind)
		}
		visible, err := ctrl.IsElementVisible(ctx, step.Selector)
		if err != nil {
			return "", err
		}
		if !visible {
			return "", fmt.Errorf("%w: %s", ErrNotVisible, step.Selector)
		}
		return "", nil

	case entities.StepClick:
		if step.Selector == "" {
			return "", fmt.Errorf("selector is required for %s step", step.Kind)
		}
		return "", ctrl.Click(ctx, step.Selector)

	case entities.StepPress:
		if step.Keys == "" {
			return "", fmt.Errorf("keys are required for %s step", step.Kind)
		}
		return "", ctrl.Press(ctx, step.Keys)

	case entities.StepType:
		if step.Text == "" {
			return "", fmt.Errorf("text is required for %s step", step.Kind)
		}
		return "", ctrl.TypeText(ctx, step.Text)

	case entities.StepPause:
		return "", pause(ctx, step.Timeout)

	case entities.StepWaitForText:
		if step.Selector == "" {
			return "", fmt.Errorf("selector is required for %s step", step.Kind)
		}
		return "", waitForText(ctx, ctrl, step)

	case entities.StepEvaluate:
		if step.Script == "" {
			return "", fmt.Errorf("script is required for %s step", step.Kind)
		}
		_, err := ctrl.Evaluate(ctx, step.Script)
		return "", err

	case entities.StepScreenshot:
		if step.Path == "" {
			return "", fmt.Errorf("path is required for %s step", step.Kind)
		}
		data, err := ctrl.TakeScreenshot(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to take screenshot: %w", err)
		}
		return v.storage.SaveArtifact(step.Path, data)

	default:
		return "", fmt.Errorf("unknown step kind: %s", step.Kind)
	}
}

type nopObserver struct{}

func (nopObserver) ProbeStarted(entities.Step)          {}
func (nopObserver) ProbeFinished(entities.ProbeResult) {}
