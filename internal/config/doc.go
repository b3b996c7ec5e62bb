// Package config defines the provisioning profile used by the bootstrap
// pipeline and provides helpers to load, validate and save it in YAML format.
//
// The Config type covers the full pipeline: runtime packages, package
// repository registration, mirror fallback candidates, service management and
// readiness limits. Defaults reproduce the stock Jenkins-on-EC2 layout.
package config
