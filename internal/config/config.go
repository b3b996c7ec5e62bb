package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	goversion "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// Config holds the provisioning profile consumed by the bootstrap pipeline.
// Every field has a default matching the stock Jenkins-on-EC2 layout, so the
// tool runs without a config file at all.
type Config struct {
	// RuntimePackages are installed before the application (JDK, git, fontconfig).
	RuntimePackages []string `yaml:"runtime_packages"`
	// RepoURL is the remote package repository descriptor to register.
	RepoURL string `yaml:"repo_url"`
	// RepoPath is where the repository descriptor is written.
	RepoPath string `yaml:"repo_path"`
	// RepoFallbackContent is written verbatim to RepoPath when RepoURL is unreachable.
	RepoFallbackContent string `yaml:"repo_fallback_content"`
	// RepoKeyURLs are GPG key locations tried in order until one imports.
	RepoKeyURLs []string `yaml:"repo_key_urls"`
	// PackageName is the application package installed from the repository.
	PackageName string `yaml:"package_name"`
	// FallbackVersions are candidate versions tried in order when the
	// repository install fails. Order is significant and preserved.
	FallbackVersions []string `yaml:"fallback_versions"`
	// PrimaryMirror and SecondaryMirror are base URLs hosting versioned RPMs.
	PrimaryMirror   string `yaml:"primary_mirror"`
	SecondaryMirror string `yaml:"secondary_mirror"`
	// ServiceName is the systemd unit enabled and started after install.
	ServiceName string `yaml:"service_name"`
	// HTTPPort is the port the application listens on once ready.
	HTTPPort int `yaml:"http_port"`
	// AppConfigPath and AppConfigContent describe the static application
	// configuration written after install.
	AppConfigPath    string `yaml:"app_config_path"`
	AppConfigContent string `yaml:"app_config_content"`
	// CredentialsFile is printed in the summary; the application manages it.
	CredentialsFile string `yaml:"credentials_file"`
	// MetadataEndpoint optionally overrides the EC2 instance metadata endpoint.
	MetadataEndpoint string `yaml:"metadata_endpoint"`
	// ReadinessMaxWait bounds the post-start readiness poll.
	ReadinessMaxWait time.Duration `yaml:"readiness_max_wait"`
	// ReadinessInterval is the delay between readiness probes.
	ReadinessInterval time.Duration `yaml:"readiness_interval"`
	// CommandTimeout bounds individual package-manager and service commands.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for the provisioning profile.
	DefaultConfigFilename = "jenkins-bootstrap.yaml"

	// DefaultRepoURL is the stable Jenkins RPM repository descriptor.
	DefaultRepoURL = "https://pkg.jenkins.io/redhat-stable/jenkins.repo"

	// DefaultRepoPath is the dnf repository definition location.
	DefaultRepoPath = "/etc/yum.repos.d/jenkins.repo"

	// DefaultPackageName is the application package installed from the repository.
	DefaultPackageName = "jenkins"

	// DefaultServiceName is the systemd unit managed after install.
	DefaultServiceName = "jenkins"

	// DefaultHTTPPort is the application's HTTP listener port.
	DefaultHTTPPort = 8080

	// DefaultAppConfigPath is the sysconfig file read by the service unit.
	DefaultAppConfigPath = "/etc/sysconfig/jenkins"

	// DefaultCredentialsFile holds the generated initial admin password.
	DefaultCredentialsFile = "/var/lib/jenkins/secrets/initialAdminPassword"

	// DefaultPrimaryMirror and DefaultSecondaryMirror host versioned RPMs
	// for the fallback install path.
	DefaultPrimaryMirror   = "https://get.jenkins.io/redhat-stable"
	DefaultSecondaryMirror = "https://mirrors.jenkins.io/redhat-stable"

	// DefaultReadinessMaxWait bounds how long the pipeline waits for the
	// service to come up before reporting a timeout.
	DefaultReadinessMaxWait = 3 * time.Minute

	// DefaultReadinessInterval is the pause between readiness probes.
	DefaultReadinessInterval = 5 * time.Second

	// DefaultCommandTimeout bounds individual external commands. Package
	// installs can legitimately take minutes on a cold dnf cache.
	DefaultCommandTimeout = 10 * time.Minute

	// DefaultFilePermissions is used for files written by this tool.
	DefaultFilePermissions = 0o644
)

// DefaultRepoFallbackContent mirrors the upstream jenkins.repo descriptor and
// is written manually when the remote descriptor cannot be fetched.
const DefaultRepoFallbackContent = `[jenkins]
name=Jenkins-stable
baseurl=https://pkg.jenkins.io/redhat-stable
gpgcheck=1
gpgkey=https://pkg.jenkins.io/redhat-stable/jenkins.io-2023.key
`

// DefaultAppConfigContent is the static sysconfig written for the service.
const DefaultAppConfigContent = `JENKINS_PORT="8080"
JENKINS_LISTEN_ADDRESS="0.0.0.0"
JENKINS_JAVA_OPTIONS="-Djava.awt.headless=true"
`

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPackageRequired is returned when the application package name is missing.
	errPackageRequired = errors.New("package name must be provided")
	// errServiceRequired is returned when the service name is missing.
	errServiceRequired = errors.New("service name must be provided")
	// errPortOutOfRange is returned for an invalid HTTP port.
	errPortOutOfRange = errors.New("http port must be between 1 and 65535")
	// errNoFallbackVersions is returned when the candidate list is empty.
	errNoFallbackVersions = errors.New("at least one fallback version must be provided")
)

// DefaultRuntimePackages returns the packages installed before the application.
func DefaultRuntimePackages() []string {
	return []string{"fontconfig", "java-17-amazon-corretto", "git", "wget"}
}

// DefaultRepoKeyURLs returns the GPG key locations tried in order.
// Upstream has published the key under both names; either one is accepted.
func DefaultRepoKeyURLs() []string {
	return []string{
		"https://pkg.jenkins.io/redhat-stable/jenkins.io-2023.key",
		"https://pkg.jenkins.io/redhat-stable/jenkins.io.key",
	}
}

// DefaultFallbackVersions returns the ordered version candidates for the
// fallback install path. The list is static and goes stale by construction;
// refreshing it is a release chore, not runtime behavior.
func DefaultFallbackVersions() []string {
	return []string{"2.462.3", "2.462.2", "2.452.4", "2.440.3"}
}

// Default returns a fully populated profile matching the stock layout.
func Default() *Config {
	return &Config{
		RuntimePackages:     DefaultRuntimePackages(),
		RepoURL:             DefaultRepoURL,
		RepoPath:            DefaultRepoPath,
		RepoFallbackContent: DefaultRepoFallbackContent,
		RepoKeyURLs:         DefaultRepoKeyURLs(),
		PackageName:         DefaultPackageName,
		FallbackVersions:    DefaultFallbackVersions(),
		PrimaryMirror:       DefaultPrimaryMirror,
		SecondaryMirror:     DefaultSecondaryMirror,
		ServiceName:         DefaultServiceName,
		HTTPPort:            DefaultHTTPPort,
		AppConfigPath:       DefaultAppConfigPath,
		AppConfigContent:    DefaultAppConfigContent,
		CredentialsFile:     DefaultCredentialsFile,
		ReadinessMaxWait:    DefaultReadinessMaxWait,
		ReadinessInterval:   DefaultReadinessInterval,
		CommandTimeout:      DefaultCommandTimeout,
	}
}

// Load reads the profile from the provided path and validates essential fields.
// A missing file is not an error: the built-in defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read profile: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the profile to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	return nil
}

// Validate checks the provided profile for required fields and formatting.
// Missing durations fall back to defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PackageName == "" {
		return errPackageRequired
	}

	if cfg.ServiceName == "" {
		return errServiceRequired
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return errPortOutOfRange
	}

	if len(cfg.FallbackVersions) == 0 {
		return errNoFallbackVersions
	}

	for _, candidate := range cfg.FallbackVersions {
		if _, err := goversion.NewVersion(candidate); err != nil {
			return fmt.Errorf("invalid fallback version %q: %w", candidate, err)
		}
	}

	for _, raw := range []string{cfg.RepoURL, cfg.PrimaryMirror, cfg.SecondaryMirror} {
		if raw == "" {
			continue
		}

		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
	}

	if cfg.ReadinessMaxWait <= 0 {
		cfg.ReadinessMaxWait = DefaultReadinessMaxWait
	}

	if cfg.ReadinessInterval <= 0 {
		cfg.ReadinessInterval = DefaultReadinessInterval
	}

	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}

	return nil
}
