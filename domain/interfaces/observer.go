package interfaces

import "monaco_verification/domain/entities"

// ProbeObserver is notified around each step, e.g. to drive a spinner
type ProbeObserver interface {
	ProbeStarted(step entities.Step)
	ProbeFinished(result entities.ProbeResult)
}
