package metadata

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/stretchr/testify/require"
)

// fakeIMDS returns a fixed body or a fixed error.
type fakeIMDS struct {
	body string
	err  error
}

func (f *fakeIMDS) GetMetadata(_ context.Context, _ *imds.GetMetadataInput, _ ...func(*imds.Options)) (*imds.GetMetadataOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	return &imds.GetMetadataOutput{
		Content: io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

// TestPublicAddressFromIMDS returns the trimmed metadata value.
func TestPublicAddressFromIMDS(t *testing.T) {
	t.Parallel()

	resolver := &Resolver{client: &fakeIMDS{body: "203.0.113.10\n"}}
	require.Equal(t, "203.0.113.10", resolver.PublicAddress(context.Background()))
}

// TestPublicAddressFallsBackToHostname ensures metadata failures degrade to
// the OS hostname instead of failing.
func TestPublicAddressFallsBackToHostname(t *testing.T) {
	t.Parallel()

	resolver := &Resolver{client: &fakeIMDS{err: errors.New("request canceled")}}

	want, err := os.Hostname()
	require.NoError(t, err)
	require.Equal(t, want, resolver.PublicAddress(context.Background()))
}
