package readiness

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeService reports active after a configurable number of probes.
type fakeService struct {
	activeAfter int
	probes      int
}

func (f *fakeService) IsActive(_ context.Context, _ string) bool {
	f.probes++

	return f.probes > f.activeAfter
}

// listen opens a real TCP listener and returns its port.
func listen(t *testing.T) (net.Listener, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	_, portString, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portString)
	require.NoError(t, err)

	return ln, port
}

// TestWaitReadyImmediately ensures an already-running service returns on the
// first probe without sleeping through the interval.
func TestWaitReadyImmediately(t *testing.T) {
	t.Parallel()

	_, port := listen(t)

	started := time.Now()
	state, err := Wait(context.Background(), &Options{
		ServiceName: "jenkins",
		Host:        "127.0.0.1",
		Port:        port,
		MaxWait:     5 * time.Second,
		Interval:    2 * time.Second,
		Service:     &fakeService{},
	})
	require.NoError(t, err)
	require.True(t, state.ServiceActive)
	require.True(t, state.PortListening)
	require.Less(t, time.Since(started), time.Second)
}

// TestWaitBecomesReady covers a service that turns active after a few probes.
func TestWaitBecomesReady(t *testing.T) {
	t.Parallel()

	_, port := listen(t)

	state, err := Wait(context.Background(), &Options{
		ServiceName: "jenkins",
		Host:        "127.0.0.1",
		Port:        port,
		MaxWait:     5 * time.Second,
		Interval:    10 * time.Millisecond,
		Service:     &fakeService{activeAfter: 2},
	})
	require.NoError(t, err)
	require.True(t, state.ServiceActive)
}

// TestWaitTimesOut verifies the typed timeout error and its snapshot when the
// port never opens.
func TestWaitTimesOut(t *testing.T) {
	t.Parallel()

	ln, port := listen(t)
	require.NoError(t, ln.Close())

	_, err := Wait(context.Background(), &Options{
		ServiceName: "jenkins",
		Host:        "127.0.0.1",
		Port:        port,
		MaxWait:     50 * time.Millisecond,
		Interval:    10 * time.Millisecond,
		Service:     &fakeService{},
	})

	var timeoutErr *TimeoutError

	require.ErrorAs(t, err, &timeoutErr)
	require.True(t, timeoutErr.Last.ServiceActive)
	require.False(t, timeoutErr.Last.PortListening)
	require.Contains(t, timeoutErr.Error(), "not ready")
}

// TestWaitHonorsContextCancellation ensures cancellation stops the poll.
func TestWaitHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ln, port := listen(t)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Wait(ctx, &Options{
		ServiceName: "jenkins",
		Host:        "127.0.0.1",
		Port:        port,
		MaxWait:     time.Minute,
		Interval:    10 * time.Millisecond,
		Service:     &fakeService{},
	})
	require.ErrorIs(t, err, context.Canceled)
}

// TestCheckWithoutServiceChecker ensures the probe tolerates a nil checker.
func TestCheckWithoutServiceChecker(t *testing.T) {
	t.Parallel()

	_, port := listen(t)

	state := Check(context.Background(), &Options{Port: port})
	require.True(t, state.PortListening)
	require.False(t, state.ServiceActive)
}
