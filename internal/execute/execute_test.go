package execute

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRunCapturesOutput verifies combined output capture for a trivial command.
func TestRunCapturesOutput(t *testing.T) {
	t.Parallel()

	runner := NewOSRunner()

	out, err := runner.Run(context.Background(), Options{
		Command: "echo",
		Args:    []string{"hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

// TestRunEmptyCommand verifies the sentinel error for a missing executable.
func TestRunEmptyCommand(t *testing.T) {
	t.Parallel()

	runner := NewOSRunner()

	_, err := runner.Run(context.Background(), Options{})
	require.ErrorIs(t, err, errEmptyCommand)
}

// TestRunDryRunSkipsExecution ensures dry-run mode never invokes the command.
func TestRunDryRunSkipsExecution(t *testing.T) {
	t.Parallel()

	runner := NewOSRunner()

	out, err := runner.Run(context.Background(), Options{
		Command: "definitely-not-an-executable",
		DryRun:  true,
	})
	require.NoError(t, err)
	require.Empty(t, out)
}

// TestRunRetriesExhausted ensures a failing command is retried and the final
// error reports the attempt count.
func TestRunRetriesExhausted(t *testing.T) {
	t.Parallel()

	runner := NewOSRunner()

	_, err := runner.Run(context.Background(), Options{
		Command: "false",
		Retries: 2,
		Delay:   time.Millisecond,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "3 attempts")
}
