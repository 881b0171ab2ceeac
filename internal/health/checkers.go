// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"errors"
	"fmt"
)

// PingChecker reports the result of a ping function. A failing ping is
// unhealthy when the component is critical and degraded otherwise.
type PingChecker struct {
	name     string
	ping     func(ctx context.Context) error
	critical bool
}

// NewPingChecker creates a checker around ping.
func NewPingChecker(name string, critical bool, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping, critical: critical}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	err := c.ping(ctx)
	if err == nil {
		return CheckResult{Status: StatusHealthy}
	}

	status := StatusDegraded
	if c.critical {
		status = StatusUnhealthy
	}
	msg := "ping failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "ping timed out"
	}
	return CheckResult{Status: status, Message: msg, Error: err.Error()}
}

// BreakerChecker reports a circuit breaker. An open breaker means the
// upstream is failing; cached responses may still be served, so it only
// degrades the service.
type BreakerChecker struct {
	name  string
	state func() string
}

// NewBreakerChecker creates a checker reading the breaker state through state.
func NewBreakerChecker(name string, state func() string) *BreakerChecker {
	return &BreakerChecker{name: name, state: state}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	switch s := c.state(); s {
	case "closed":
		return CheckResult{Status: StatusHealthy, Message: "circuit closed"}
	case "open", "half-open":
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("circuit %s", s)}
	default:
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("unknown circuit state %q", s)}
	}
}
