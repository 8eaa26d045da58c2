// Package leo fetches dictionary documents from dict.leo.org.
package leo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/leocli/internal/config"
	"github.com/heartmarshall/leocli/internal/domain"
	"github.com/heartmarshall/leocli/internal/markup"
)

const (
	defaultBaseURL = "https://dict.leo.org/dictQuery/m-vocab"
	maxBodySize    = 8 << 20
)

// Provider fetches and parses LEO query.xml documents.
type Provider struct {
	baseURL    string
	userAgent  string
	opts       RequestOptions
	retryDelay time.Duration
	httpClient *http.Client
	parser     *markup.Parser
	log        *slog.Logger
}

// NewProvider creates a Provider from configuration.
func NewProvider(cfg config.ProviderConfig, parser *markup.Parser, logger *slog.Logger) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		opts:       OptionsFromConfig(cfg.Request),
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		parser:     parser,
		log:        logger.With("adapter", "leo"),
	}
}

// URL returns the request URL for q.
func (p *Provider) URL(q domain.Query) string {
	return fmt.Sprintf("%s/%s/query.xml?%s", p.baseURL, q.Pair(), p.opts.Values(q).Encode())
}

// Fetch retrieves and parses the document for q.
func (p *Provider) Fetch(ctx context.Context, q domain.Query) (domain.ResultSet, error) {
	body, err := p.FetchRaw(ctx, q)
	if err != nil {
		return nil, err
	}

	rs, err := p.parser.Parse(bytes.NewReader(body), q.Lang1, q.Lang2)
	if err != nil {
		return nil, fmt.Errorf("leo: parse: %w", err)
	}

	p.log.DebugContext(ctx, "leo response parsed",
		slog.String("search", q.Search()),
		slog.Int("sections", len(rs)),
		slog.Int("pairs", rs.PairCount()),
	)
	return rs, nil
}

// FetchRaw retrieves the undecoded document for q.
func (p *Provider) FetchRaw(ctx context.Context, q domain.Query) ([]byte, error) {
	reqURL := p.URL(q)

	p.log.DebugContext(ctx, "leo request", slog.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("leo: create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.doWithRetry(ctx, req, q.Search())
	if err != nil {
		p.log.ErrorContext(ctx, "leo request failed", slog.String("search", q.Search()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("leo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leo: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("leo: read body: %w", err)
	}

	p.log.DebugContext(ctx, "leo response",
		slog.String("search", q.Search()),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)
	return body, nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (p *Provider) doWithRetry(ctx context.Context, req *http.Request, search string) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	p.log.WarnContext(ctx, "leo retry", slog.String("search", search), slog.String("reason", reason))

	// Close body from the failed attempt before retrying.
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.retryDelay):
	}

	return p.httpClient.Do(req)
}
