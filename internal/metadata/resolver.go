package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

const (
	defaultIPFSGateway    = "https://ipfs.io"
	defaultArweaveGateway = "https://arweave.net"
)

// ErrUnsupportedURI is returned for token uris that cannot be fetched
var ErrUnsupportedURI = errors.New("unsupported uri")

// Gateways lists the HTTP gateways tried in order for ipfs:// and ar:// uris
type Gateways struct {
	IPFS    []string
	Arweave []string
}

// HostLimiter paces requests per host
type HostLimiter interface {
	Wait(ctx context.Context, host string) error
}

// Resolver defines the interface for fetching token metadata
//
//go:generate mockgen -source=resolver.go -destination=../mocks/metadata_resolver.go -package=mocks -mock_names=Resolver=MockMetadataResolver,HostLimiter=MockHostLimiter
type Resolver interface {
	// Resolve fetches and normalizes the metadata behind a token uri. A uri that points
	// at an image or video resolves to a document with that uri as image
	Resolve(ctx context.Context, uri string) (*Document, error)
}

type resolver struct {
	httpClient  adapter.HTTPClient
	limiter     HostLimiter
	jcs         adapter.JCS
	gateways    Gateways
	maxBodySize int64
}

// NewResolver creates a new metadata resolver
func NewResolver(httpClient adapter.HTTPClient, limiter HostLimiter, jcs adapter.JCS, gateways Gateways, maxBodySize int64) Resolver {
	if len(gateways.IPFS) == 0 {
		gateways.IPFS = []string{defaultIPFSGateway}
	}
	if len(gateways.Arweave) == 0 {
		gateways.Arweave = []string{defaultArweaveGateway}
	}

	return &resolver{
		httpClient:  httpClient,
		limiter:     limiter,
		jcs:         jcs,
		gateways:    gateways,
		maxBodySize: maxBodySize,
	}
}

func (r *resolver) Resolve(ctx context.Context, uri string) (*Document, error) {
	uri = strings.TrimSpace(uri)
	if strings.HasPrefix(uri, "data:") {
		return r.resolveDataURI(uri)
	}

	candidates, err := r.candidates(uri)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, candidate := range candidates {
		body, err := r.fetch(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.DebugCtx(ctx, "Failed to fetch metadata candidate", zap.String("url", candidate), zap.Error(err))
			continue
		}

		if isMedia(body) {
			return &Document{Image: &uri}, nil
		}
		return parseDocument(body, r.jcs)
	}

	return nil, fmt.Errorf("failed to fetch %s from %d candidates: %w", uri, len(candidates), lastErr)
}

// fetch waits for the host's rate limit and downloads the url
func (r *resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURI, err)
	}

	if err := r.limiter.Wait(ctx, parsed.Hostname()); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", parsed.Hostname(), err)
	}

	return r.httpClient.Get(ctx, rawURL, r.maxBodySize)
}

// candidates returns the URLs to try for a uri. Gateway URLs of IPFS content are tried
// through the configured gateways first, the original URL last
func (r *resolver) candidates(uri string) ([]string, error) {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		path := strings.TrimPrefix(strings.TrimPrefix(uri, "ipfs://"), "ipfs/")
		return gatewayURLs(r.gateways.IPFS, "/ipfs/"+path), nil
	case strings.HasPrefix(uri, "ar://"):
		return gatewayURLs(r.gateways.Arweave, "/"+strings.TrimPrefix(uri, "ar://")), nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		if _, path, ok := strings.Cut(uri, "/ipfs/"); ok && path != "" {
			urls := gatewayURLs(r.gateways.IPFS, "/ipfs/"+path)
			for _, u := range urls {
				if u == uri {
					return urls, nil
				}
			}
			return append(urls, uri), nil
		}
		return []string{uri}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
	}
}

func gatewayURLs(gateways []string, path string) []string {
	urls := make([]string, 0, len(gateways))
	for _, gateway := range gateways {
		urls = append(urls, strings.TrimSuffix(gateway, "/")+path)
	}
	return urls
}

// resolveDataURI decodes an RFC 2397 data uri carrying the document inline
func (r *resolver) resolveDataURI(uri string) (*Document, error) {
	header, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: data uri without payload", ErrUnsupportedURI)
	}

	var content []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrUnsupportedURI, err)
		}
		content = decoded
	} else {
		unescaped, err := url.PathUnescape(data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid escaped payload: %v", ErrUnsupportedURI, err)
		}
		content = []byte(unescaped)
	}

	if isMedia(content) {
		return &Document{Image: &uri}, nil
	}
	return parseDocument(content, r.jcs)
}
