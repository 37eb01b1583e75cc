package verifier

import (
	"sync"

	"monaco_verification/domain/entities"

	"github.com/sirupsen/logrus"
)

// consoleTap forwards page events to the log and keeps them for the report.
// Drivers deliver events on their own goroutines.
type consoleTap struct {
	mu     sync.Mutex
	events []entities.ConsoleEvent
	logger logrus.FieldLogger
}

func newConsoleTap(logger logrus.FieldLogger) *consoleTap {
	return &consoleTap{logger: logger}
}

func (c *consoleTap) sink(ev entities.ConsoleEvent) {
	switch ev.Source {
	case entities.SourcePageError:
		c.logger.WithField("source", ev.Source).Warnf("PageError: %s", ev.Text)
	default:
		c.logger.WithFields(logrus.Fields{"source": ev.Source, "type": ev.Type}).Infof("Console: %s", ev.Text)
	}

	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *consoleTap) snapshot() []entities.ConsoleEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entities.ConsoleEvent, len(c.events))
	copy(out, c.events)
	return out
}
