package common

import (
	"fmt"
	"strings"
)

// Summary is the operational report printed once provisioning or a status
// check finishes. Rendering is deterministic for fixed inputs.
type Summary struct {
	// ServiceName is the managed systemd unit.
	ServiceName string
	// URL is where the application answers once ready.
	URL string
	// CredentialsFile holds the generated initial admin password. The file
	// is owned by the application; only its path is reported here.
	CredentialsFile string
	// InstalledVersion is the application version when the fallback path
	// picked one; empty when the repository install succeeded.
	InstalledVersion string
	// Ready reports whether the service passed the readiness checks.
	Ready bool
	// StatusOutput is the captured service-manager status, when available.
	StatusOutput string
}

// Render produces the human-readable summary block.
func (s *Summary) Render() string {
	var b strings.Builder

	b.WriteString("==================================================\n")
	fmt.Fprintf(&b, "Service:          %s\n", s.ServiceName)

	if s.Ready {
		b.WriteString("State:            ready\n")
	} else {
		b.WriteString("State:            NOT READY\n")
	}

	if s.InstalledVersion != "" {
		fmt.Fprintf(&b, "Version:          %s (installed via mirror fallback)\n", s.InstalledVersion)
	}

	fmt.Fprintf(&b, "URL:              %s\n", s.URL)
	fmt.Fprintf(&b, "Admin password:   sudo cat %s\n", s.CredentialsFile)
	b.WriteString("\nTroubleshooting:\n")
	fmt.Fprintf(&b, "  sudo systemctl status %s\n", s.ServiceName)
	fmt.Fprintf(&b, "  sudo journalctl -u %s -n 50 --no-pager\n", s.ServiceName)

	if s.StatusOutput != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(s.StatusOutput, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("==================================================\n")

	return b.String()
}

// ServiceURL renders the application URL from an address and port.
func ServiceURL(address string, port int) string {
	return fmt.Sprintf("http://%s:%d", address, port)
}
