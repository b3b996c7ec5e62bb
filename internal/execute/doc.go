// Package execute runs external commands with per-command timeouts, optional
// retries and captured combined output. The Runner interface lets callers
// swap in fakes, so packages wrapping dnf, rpm and systemctl stay testable
// without touching the host.
package execute
