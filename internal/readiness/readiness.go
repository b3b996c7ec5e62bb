package readiness

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/jenkins-bootstrap/internal/logger"
)

// ServiceChecker reports whether a named service unit is active.
type ServiceChecker interface {
	IsActive(ctx context.Context, unit string) bool
}

// Options control a readiness wait.
type Options struct {
	// ServiceName is the unit that must report active.
	ServiceName string
	// Host and Port form the TCP address that must accept connections.
	Host string
	Port int
	// ProcessName optionally requires a process with this executable name
	// to exist (the JVM behind the service, for example).
	ProcessName string
	// MaxWait bounds the whole wait; Interval is the pause between probes.
	MaxWait  time.Duration
	Interval time.Duration
	// Service performs the unit activity check.
	Service ServiceChecker
}

// State is a snapshot of one readiness probe.
type State struct {
	// ServiceActive reports the unit activity check.
	ServiceActive bool
	// PortListening reports whether the TCP port accepted a connection.
	PortListening bool
	// ProcessFound reports the optional process presence check.
	ProcessFound bool
}

// TimeoutError is returned when the service does not become ready in time.
// It carries the last observed state so callers can report what was missing.
type TimeoutError struct {
	// Waited is how long the poll ran before giving up.
	Waited time.Duration
	// Last is the final probe snapshot.
	Last State
}

// Error renders the timeout with the failing checks.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service not ready after %s (active=%t, port=%t, process=%t)",
		e.Waited, e.Last.ServiceActive, e.Last.PortListening, e.Last.ProcessFound)
}

const (
	// DefaultHost is probed when no host is configured.
	DefaultHost = "127.0.0.1"

	// dialTimeout bounds a single TCP probe.
	dialTimeout = 2 * time.Second
)

// Wait polls until the service is ready or MaxWait elapses. The first probe
// runs immediately, so an already-running service returns without sleeping.
func Wait(ctx context.Context, opts *Options) (*State, error) {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}

	started := time.Now()
	deadline := started.Add(opts.MaxWait)

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		state := Check(ctx, opts)
		if state.Ready(opts.ProcessName != "") {
			logger.InfoKV(ctx, "Service is ready",
				"service", opts.ServiceName, "waited", time.Since(started).String())

			return state, nil
		}

		logger.DebugKV(ctx, "Service not ready yet",
			"service", opts.ServiceName,
			"active", state.ServiceActive,
			"port", state.PortListening)

		if time.Now().After(deadline) {
			return state, &TimeoutError{
				Waited: time.Since(started),
				Last:   *state,
			}
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check runs a single readiness probe.
func Check(ctx context.Context, opts *Options) *State {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}

	state := &State{
		PortListening: portListening(host, opts.Port),
	}

	if opts.Service != nil {
		state.ServiceActive = opts.Service.IsActive(ctx, opts.ServiceName)
	}

	if opts.ProcessName != "" {
		state.ProcessFound = processExists(ctx, opts.ProcessName)
	}

	return state
}

// Ready reports whether the snapshot satisfies all required checks.
func (s *State) Ready(requireProcess bool) bool {
	if !s.ServiceActive || !s.PortListening {
		return false
	}

	if requireProcess && !s.ProcessFound {
		return false
	}

	return true
}

// portListening dials the TCP address once.
func portListening(host string, port int) bool {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return false
	}

	_ = conn.Close()

	return true
}

// processExists scans the process table for an executable with the given name.
func processExists(ctx context.Context, name string) bool {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to list processes", "error", err)
		return false
	}

	for _, process := range processes {
		if process.Executable() == name {
			return true
		}
	}

	return false
}
