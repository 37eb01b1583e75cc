package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"monaco_verification/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ErrTargetNotAllowed is returned for URLs outside the policy
var ErrTargetNotAllowed = errors.New("target not allowed")

type TargetPolicy struct {
	allowRemote bool
	logger      logrus.FieldLogger
}

// NewTargetPolicy - creates policy that accepts loopback targets, and any
// http(s) target when allowRemote is set
func NewTargetPolicy(allowRemote bool, logger logrus.FieldLogger) *TargetPolicy {
	return &TargetPolicy{
		allowRemote: allowRemote,
		logger:      logger,
	}
}

func (p *TargetPolicy) CheckTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrTargetNotAllowed, raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", ErrTargetNotAllowed, raw)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: %q: missing host", ErrTargetNotAllowed, raw)
	}

	if isLoopback(host) {
		return nil
	}
	if p.allowRemote {
		p.logger.WithField("target", raw).Warn("Driving a non-local target")
		return nil
	}
	return fmt.Errorf("%w: %q is not a loopback address (allow remote targets explicitly)", ErrTargetNotAllowed, raw)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Ensure TargetPolicy implements TargetPolicy interface
var _ interfaces.TargetPolicy = (*TargetPolicy)(nil)
