package metadata

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"github.com/oshokin/jenkins-bootstrap/internal/logger"
)

// api is the slice of the IMDS client the resolver needs.
type api interface {
	GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
}

// Resolver looks up the host's public address from the EC2 instance metadata
// service, falling back to the OS hostname off EC2. The address is only used
// for display in the summary, so lookup failures are never fatal.
type Resolver struct {
	client api
}

const (
	// publicAddressPath is the IMDS path for the instance public IPv4.
	publicAddressPath = "public-ipv4"

	// lookupTimeout bounds the whole metadata lookup.
	lookupTimeout = 5 * time.Second
)

// NewResolver builds a Resolver over the default AWS configuration.
// A non-empty endpoint overrides the metadata service URL.
func NewResolver(ctx context.Context, endpoint string) (*Resolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS configuration: %w", err)
	}

	client := imds.NewFromConfig(cfg, func(o *imds.Options) {
		if endpoint != "" {
			o.Endpoint = endpoint
		}
	})

	return &Resolver{client: client}, nil
}

// PublicAddress returns the instance public IPv4, or the OS hostname when the
// metadata service is unreachable.
func (r *Resolver) PublicAddress(ctx context.Context) string {
	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	output, err := r.client.GetMetadata(lookupCtx, &imds.GetMetadataInput{
		Path: publicAddressPath,
	})
	if err != nil {
		logger.WarnKV(ctx, "Instance metadata unavailable, using hostname", "error", err)
		return hostname()
	}

	defer func() {
		_ = output.Content.Close()
	}()

	address, err := io.ReadAll(output.Content)
	if err != nil {
		logger.WarnKV(ctx, "Unable to read instance metadata, using hostname", "error", err)
		return hostname()
	}

	return strings.TrimSpace(string(address))
}

// hostname is the display fallback when IMDS is unreachable.
func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "localhost"
	}

	return name
}
