package container

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

const maxContainerBytes = 1 << 20

// Provider loads one container document.
type Provider interface {
	Load(ctx context.Context) (*Container, error)
}

type httpProvider struct {
	id         string
	endpoint   string
	httpClient *http.Client
}

// NewHTTPProvider fetches the container from endpoint?id=<id>.
func NewHTTPProvider(id, endpoint string) Provider {
	return &httpProvider{
		id:       id,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *httpProvider) Load(ctx context.Context) (*Container, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("container_id", p.id),
		zap.String("endpoint", p.endpoint),
	)

	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse container endpoint: %w", err)
	}
	q := u.Query()
	q.Set("id", p.id)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		log.Error("failed creating container request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	log.Debug("requesting container")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Warn("container request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContainerBytes))
	if err != nil {
		return nil, fmt.Errorf("read container response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("container provider returned error status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	return decodeContainer(p.id, body, SourceNetwork)
}

type fileProvider struct {
	id   string
	path string
}

// NewFileProvider serves the container bundled with the application.
func NewFileProvider(id, path string) Provider {
	return &fileProvider{id: id, path: path}
}

func (p *fileProvider) Load(ctx context.Context) (*Container, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read default container %s: %w", p.path, err)
	}
	return decodeContainer(p.id, data, SourceDefault)
}
