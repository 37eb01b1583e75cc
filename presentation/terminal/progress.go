package terminal

import (
	"io"
	"sync"
	"time"

	"monaco_verification/domain/entities"

	"github.com/briandowns/spinner"
)

// indicator is the part of *spinner.Spinner the observer drives
type indicator interface {
	Start()
	Stop()
	Active() bool
}

// spinnerObserver shows the running probe on an interactive terminal.
// Logs must go through Write so the spinner line is cleared before each
// entry and redrawn after it.
type spinnerObserver struct {
	mu  sync.Mutex
	out io.Writer
	s   indicator
	set func(suffix string)
}

func newSpinnerObserver(w io.Writer) *spinnerObserver {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	return &spinnerObserver{
		out: w,
		s:   s,
		set: func(suffix string) { s.Suffix = suffix },
	}
}

func (o *spinnerObserver) ProbeStarted(step entities.Step) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.set(" " + step.Label())
	o.s.Start()
}

func (o *spinnerObserver) ProbeFinished(entities.ProbeResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.s.Stop()
}

// Write - writes a log entry with the spinner paused
func (o *spinnerObserver) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	active := o.s.Active()
	if active {
		o.s.Stop()
	}
	n, err := o.out.Write(p)
	if active {
		o.s.Start()
	}
	return n, err
}
