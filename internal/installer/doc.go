// Package installer implements the mirror fallback install: an ordered list
// of version candidates is walked left-to-right, each tried on the primary
// then the secondary mirror, stopping at the first artifact that downloads
// and installs. Partial downloads are discarded as the search moves on, and
// exhausting the list yields ErrExhausted.
//
// Candidates are a hardcoded part of the provisioning profile rather than a
// dynamic query, so the list goes stale by construction.
package installer
