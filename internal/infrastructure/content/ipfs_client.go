package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// IPFSFetcher implements MetadataFetcher against an IPFS HTTP gateway.
// A buffered-channel token pool bounds concurrent gateway requests so an
// analysis batch cannot stampede the gateway.
type IPFSFetcher struct {
	client     *http.Client
	gatewayURL string
	tokens     chan struct{}
	logger     *logger.Logger
}

// NewIPFSFetcher creates a new gateway fetcher
func NewIPFSFetcher(cfg *config.MetadataConfig, logger *logger.Logger) service.MetadataFetcher {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &IPFSFetcher{
		client:     &http.Client{Timeout: timeout},
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		tokens:     make(chan struct{}, maxConcurrent),
		logger:     logger.WithComponent("ipfs-fetcher"),
	}
}

// Fetch retrieves and decodes the metadata document for a content id.
func (f *IPFSFetcher) Fetch(ctx context.Context, cid string) (map[string]interface{}, error) {
	select {
	case f.tokens <- struct{}{}:
		defer func() { <-f.tokens }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", service.ErrTransport, ctx.Err())
	}

	url := fmt.Sprintf("%s/%s", f.gatewayURL, cid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request for %s: %w", cid, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Gateway fetch failed", zap.String("cid", cid), zap.Error(err))
		return nil, fmt.Errorf("%w: fetch %s: %v", service.ErrTransport, cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 5xx and 429 are gateway trouble, worth one retry; anything
		// else means the content itself is bad.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: gateway returned %d for %s", service.ErrTransport, resp.StatusCode, cid)
		}
		return nil, fmt.Errorf("gateway returned %d for %s", resp.StatusCode, cid)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", service.ErrTransport, cid, err)
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", cid, err)
	}
	return metadata, nil
}
