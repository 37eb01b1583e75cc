package verifier

import (
	"sync"

	"monaco_verification/domain/interfaces"
)

// session guarantees the wrapped controller is closed exactly once
type session struct {
	interfaces.BrowserController
	once   sync.Once
	closes int
	err    error
}

func newSession(ctrl interfaces.BrowserController) *session {
	return &session{BrowserController: ctrl}
}

// Close - closes the underlying controller on the first call only
func (s *session) Close() error {
	s.once.Do(func() {
		s.closes++
		s.err = s.BrowserController.Close()
	})
	return s.err
}
