// Package pkgmgr wraps dnf and rpm for the bootstrap pipeline: OS updates,
// package installs (from repositories or local RPM files), GPG key import
// with multiple candidate URLs, and repository registration with a manual
// descriptor fallback when the remote descriptor is unreachable.
package pkgmgr
