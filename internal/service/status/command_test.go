package status

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/jenkins-bootstrap/internal/config"
)

// fakeServices reports a fixed unit activity and status text.
type fakeServices struct {
	active bool
}

func (f *fakeServices) IsActive(_ context.Context, _ string) bool {
	return f.active
}

func (f *fakeServices) Status(_ context.Context, _ string) (string, error) {
	return "Active: active (running)", nil
}

// fixedResolver returns a constant address.
type fixedResolver struct{}

func (fixedResolver) PublicAddress(_ context.Context) string {
	return "203.0.113.10"
}

// listen opens a TCP listener standing in for the application port.
func listen(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	_, portString, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portString)
	require.NoError(t, err)

	return port
}

// TestReportReady verifies the ready path and its summary.
func TestReportReady(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.HTTPPort = listen(t)

	out := &bytes.Buffer{}
	err := report(context.Background(), cfg, &fakeServices{active: true}, fixedResolver{}, out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "State:            ready")
	require.Contains(t, out.String(), "http://203.0.113.10:")
}

// TestReportNotReady verifies ErrNotReady when the unit is inactive, while
// the summary is still printed.
func TestReportNotReady(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.HTTPPort = listen(t)

	out := &bytes.Buffer{}
	err := report(context.Background(), cfg, &fakeServices{active: false}, fixedResolver{}, out)
	require.ErrorIs(t, err, ErrNotReady)
	require.Contains(t, out.String(), "NOT READY")
}
