package service

import (
	"context"
	"errors"
)

// ErrTransport marks a transient fetch failure (timeout, gateway error).
// Callers retry once with a fixed delay, then surface the failure.
var ErrTransport = errors.New("metadata transport failure")

// MetadataFetcher retrieves content blobs from the metadata store
type MetadataFetcher interface {
	// Fetch returns the metadata blob for a content id. Transient failures
	// wrap ErrTransport.
	Fetch(ctx context.Context, cid string) (map[string]interface{}, error)
}
