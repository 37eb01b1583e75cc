package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"monaco_verification/application/scenario"
	"monaco_verification/application/verifier"
	"monaco_verification/domain/entities"
	"monaco_verification/infrastructure/browser"
	"monaco_verification/infrastructure/config"
	"monaco_verification/infrastructure/security"
	"monaco_verification/infrastructure/storage"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	ExitOK       = 0
	ExitFailed   = 1
	ExitHarness  = 2
	commandName  = "monaco-verify"
	defaultRunOf = scenario.All
)

// exitError carries the process exit code out of a cobra command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type TerminalInterface struct {
	root     *cobra.Command
	cfg      config.Config
	logger   *logrus.Logger
	out      io.Writer
	tty      bool
	envFiles []string
	noColor  bool
	noSpin   bool
}

func NewTerminalInterface() *TerminalInterface {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	t := &TerminalInterface{
		cfg:    config.Default(),
		logger: logrus.New(),
		out:    colorable.NewColorableStdout(),
		tty:    tty,
	}

	t.root = &cobra.Command{
		Use:               commandName,
		Short:             "verify the Monaco completion demo in a headless browser",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: t.persistentPreRunE,
	}
	t.root.PersistentFlags().AddFlagSet(t.rootFlagSet())
	t.root.AddCommand(t.runCommand(), t.listCommand(), t.reportCommand())
	return t
}

func (t *TerminalInterface) rootFlagSet() *pflag.FlagSet {
	def := config.Default()
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.StringSliceVar(&t.envFiles, "env-file", nil, "env files to load before reading VERIFY_* variables (default .env)")
	flags.String("url", def.URL, "address of the page under test")
	flags.String("backend", def.Backend, "browser backend: playwright or chromedp")
	flags.String("artifact-dir", def.ArtifactDir, "directory for screenshots and reports")
	flags.String("scenario-file", "", "YAML scenario to run instead of a built-in one")
	flags.Bool("headless", def.Headless, "run the browser without a window")
	flags.Duration("timeout", def.DefaultTimeout, "default timeout for navigation and waits")
	flags.Duration("slow-mo", 0, "delay between browser operations (playwright)")
	flags.Bool("install", false, "download the playwright driver and chromium first")
	flags.Bool("allow-remote", false, "allow non-loopback targets")
	flags.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", def.LogFormat, "log format: text or json")
	flags.BoolVar(&t.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&t.noSpin, "no-progress", false, "disable the progress spinner")
	return flags
}

func (t *TerminalInterface) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(t.envFiles...)
	if err != nil {
		return &exitError{code: ExitHarness, err: err}
	}
	if err := applyFlags(cmd.Flags(), &cfg); err != nil {
		return &exitError{code: ExitHarness, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: ExitHarness, err: err}
	}
	t.cfg = cfg

	if err := t.setupLogger(); err != nil {
		return &exitError{code: ExitHarness, err: err}
	}
	if t.noColor {
		color.NoColor = true
	}
	return nil
}

// applyFlags - copies explicitly set flags over environment values
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if flags.Changed("url") {
		cfg.URL, err = flags.GetString("url")
	}
	if err == nil && flags.Changed("backend") {
		cfg.Backend, err = flags.GetString("backend")
	}
	if err == nil && flags.Changed("artifact-dir") {
		cfg.ArtifactDir, err = flags.GetString("artifact-dir")
	}
	if err == nil && flags.Changed("scenario-file") {
		cfg.ScenarioFile, err = flags.GetString("scenario-file")
	}
	if err == nil && flags.Changed("headless") {
		cfg.Headless, err = flags.GetBool("headless")
	}
	if err == nil && flags.Changed("timeout") {
		cfg.DefaultTimeout, err = flags.GetDuration("timeout")
	}
	if err == nil && flags.Changed("slow-mo") {
		cfg.SlowMo, err = flags.GetDuration("slow-mo")
	}
	if err == nil && flags.Changed("install") {
		cfg.Install, err = flags.GetBool("install")
	}
	if err == nil && flags.Changed("allow-remote") {
		cfg.AllowRemote, err = flags.GetBool("allow-remote")
	}
	if err == nil && flags.Changed("log-level") {
		cfg.LogLevel, err = flags.GetString("log-level")
	}
	if err == nil && flags.Changed("log-format") {
		cfg.LogFormat, err = flags.GetString("log-format")
	}
	return err
}

func (t *TerminalInterface) setupLogger() error {
	level, err := logrus.ParseLevel(t.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	t.logger.SetLevel(level)
	t.logger.SetOutput(t.out)
	if t.cfg.LogFormat == "json" {
		t.logger.SetFormatter(&logrus.JSONFormatter{})
		return nil
	}
	t.logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   t.tty && !t.noColor,
		DisableColors: !t.tty || t.noColor,
	})
	return nil
}

func (t *TerminalInterface) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [" + scenario.Completion + "|" + scenario.Frontend + "|" + scenario.All + "]",
		Short: "run verification scenarios against the target page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultRunOf
			if len(args) == 1 {
				name = args[0]
			}
			return t.runScenarios(cmd.Context(), name)
		},
	}
}

func (t *TerminalInterface) runScenarios(ctx context.Context, name string) error {
	scenarios, err := t.scenarios(name)
	if err != nil {
		return &exitError{code: ExitHarness, err: err}
	}

	store, err := storage.NewFileStore(t.cfg.ArtifactDir)
	if err != nil {
		return &exitError{code: ExitHarness, err: err}
	}
	launcher, err := browser.NewLauncher(t.cfg.Backend, browser.Options{
		Headless:       t.cfg.Headless,
		DefaultTimeout: t.cfg.DefaultTimeout,
		Install:        t.cfg.Install,
		SlowMo:         t.cfg.SlowMo,
	}, t.logger)
	if err != nil {
		return &exitError{code: ExitHarness, err: err}
	}
	policy := security.NewTargetPolicy(t.cfg.AllowRemote, t.logger)

	v := verifier.NewVerifier(launcher, store, policy, t.logger, t.cfg.URL)
	if t.tty && !t.noSpin && t.cfg.LogFormat == "text" {
		progress := newSpinnerObserver(t.out)
		v.SetObserver(progress)
		t.logger.SetOutput(progress)
		defer t.logger.SetOutput(t.out)
	}

	failed := false
	for _, sc := range scenarios {
		report, runErr := v.Run(ctx, sc)
		printReport(t.out, report)
		t.logSummary(report)
		if runErr != nil {
			return &exitError{code: ExitHarness, err: fmt.Errorf("scenario %s: %w", sc.Name, runErr)}
		}
		if !report.Passed {
			failed = true
		}
	}

	if failed {
		return &exitError{code: ExitFailed, err: errors.New("verification failed")}
	}
	return nil
}

func (t *TerminalInterface) scenarios(name string) ([]entities.Scenario, error) {
	if t.cfg.ScenarioFile != "" {
		sc, err := scenario.LoadFile(t.cfg.ScenarioFile)
		if err != nil {
			return nil, err
		}
		return []entities.Scenario{sc}, nil
	}
	return scenario.Resolve(name)
}

// logSummary - emits the machine-readable one-line summary
func (t *TerminalInterface) logSummary(report *entities.Report) {
	entry := t.logger.WithFields(logrus.Fields{
		"scenario":  report.Scenario,
		"run_id":    report.RunID,
		"passed":    report.Passed,
		"probes":    len(report.Probes),
		"failed":    report.Count(entities.OutcomeFailed),
		"skipped":   report.Count(entities.OutcomeSkipped),
		"artifacts": len(report.Artifacts),
		"duration":  report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String(),
	})
	if report.Passed {
		entry.Info("Verification summary")
	} else {
		entry.Warn("Verification summary")
	}
}

func (t *TerminalInterface) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range scenario.Names() {
				scs, err := scenario.Resolve(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(t.out, "%-12s %s (%d steps)\n", name, scs[0].Description, len(scs[0].Steps))
			}
			fmt.Fprintf(t.out, "%-12s every scenario above, one browser session each\n", scenario.All)
			return nil
		},
	}
}

func (t *TerminalInterface) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report [scenario]",
		Short: "print the last saved report of a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := scenario.Names()
			named := len(args) == 1 && args[0] != scenario.All
			if named {
				names = []string{args[0]}
			}
			store, err := storage.NewFileStore(t.cfg.ArtifactDir)
			if err != nil {
				return &exitError{code: ExitHarness, err: err}
			}
			failed := false
			for _, name := range names {
				report, err := store.LoadReport(name)
				if err != nil {
					if errors.Is(err, storage.ErrReportNotFound) && !named {
						continue
					}
					return &exitError{code: ExitHarness, err: err}
				}
				printReport(t.out, report)
				if !report.Passed {
					failed = true
				}
			}
			if failed {
				return &exitError{code: ExitFailed, err: errors.New("last verification failed")}
			}
			return nil
		},
	}
}

// Run - executes the command line and returns the process exit code
func (t *TerminalInterface) Run(ctx context.Context, args []string) int {
	t.root.SetArgs(args)
	cmd, err := t.root.ExecuteContextC(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.code == ExitFailed {
			t.logger.Warn(exitErr.Error())
		} else {
			t.logger.WithError(exitErr.err).Error(failureMessage(cmd))
		}
		return exitErr.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitHarness
}

func failureMessage(cmd *cobra.Command) string {
	if cmd == nil {
		return "Command failed"
	}
	switch cmd.Name() {
	case "run":
		return "Verification could not run"
	case "report":
		return "Report could not be loaded"
	default:
		return fmt.Sprintf("Command %s failed", cmd.Name())
	}
}

// SetOutput redirects logs and summaries, e.g. to a buffer in tests
func (t *TerminalInterface) SetOutput(w io.Writer) {
	t.out = w
	t.tty = false
	t.logger.SetOutput(w)
	t.root.SetOut(w)
	t.root.SetErr(w)
}
