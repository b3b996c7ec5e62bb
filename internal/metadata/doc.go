// Package metadata resolves the host's public address from the EC2 instance
// metadata service for display in the operational summary. Off EC2 it falls
// back to the OS hostname; a missing address never fails the pipeline.
package metadata
