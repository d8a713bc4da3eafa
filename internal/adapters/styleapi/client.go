// Package styleapi is the outbound HTTP adapter for the map style provider.
package styleapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/pkg/metrics"
)

const defaultUserAgent = "manchitra/1.0"

// Client fetches style documents from the provider over HTTP with
// connection pooling and client-side rate limiting.
type Client struct {
	http      *http.Client
	styleURL  string
	userAgent string
	limiter   *rate.Limiter
}

// New builds a Client for the given style URL. rps and burst bound the
// request rate against the provider; timeout caps a single fetch.
func New(styleURL string, timeout time.Duration, rps float64, burst int) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
		styleURL:  styleURL,
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchStyle retrieves and decodes the style document. A non-empty
// apiKey is sent to the provider as the key query parameter.
func (c *Client) FetchStyle(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStyleLoad, err)
	}

	ctx, span := otel.Tracer("manchitra/styleapi").Start(ctx, "style.fetch")
	defer span.End()

	start := time.Now()
	doc, err := c.fetch(ctx, apiKey)
	metrics.StyleFetchDuration.Observe(time.Since(start).Seconds())
	metrics.StyleFetches.WithLabelValues(fetchOutcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
	}
	return doc, err
}

func (c *Client) fetch(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
	reqURL, err := c.requestURL(apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStyleLoad, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStyleLoad, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStyleLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StyleStatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStyleLoad, err)
	}

	return domain.ParseStyleDocument(data)
}

func (c *Client) requestURL(apiKey string) (string, error) {
	if apiKey == "" {
		return c.styleURL, nil
	}
	u, err := url.Parse(c.styleURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func fetchOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStyleParse):
		return "parse"
	default:
		var statusErr *domain.StyleStatusError
		if errors.As(err, &statusErr) {
			return "status"
		}
		return "transport"
	}
}
