// Package sysinit wraps systemctl for the bootstrap pipeline: daemon-reload,
// enable, start, activity checks and status capture for the summary.
package sysinit
