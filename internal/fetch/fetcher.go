package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"bdtdharvest/internal/domain"
	"bdtdharvest/internal/ports"
)

// Options configures a Fetcher. Zero values fall back to conservative
// defaults in New.
type Options struct {
	Headers       map[string]string
	Timeout       time.Duration
	MaxRetries    int
	Interval      time.Duration // sleep after every successful request
	RetryInterval time.Duration // sleep between attempts of one request
	Insecure      bool          // skip TLS certificate verification
}

// Fetcher issues single GET requests with bounded retries and a fixed
// post-success delay that caps throughput regardless of pool width.
type Fetcher struct {
	client        *resty.Client
	maxRetries    int
	interval      time.Duration
	retryInterval time.Duration
	logger        *slog.Logger

	// sleep is swapped out by tests to count delays.
	sleep func(ctx context.Context, d time.Duration)
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New builds a Fetcher around its own resty client. Retrying is done
// here rather than by resty so attempts and delays stay observable.
func New(opts Options, logger *slog.Logger) *Fetcher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeaders(opts.Headers)
	client.SetRetryCount(0)
	if opts.Insecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Fetcher{
		client:        client,
		maxRetries:    opts.MaxRetries,
		interval:      opts.Interval,
		retryInterval: opts.RetryInterval,
		logger:        logger,
		sleep:         sleepCtx,
	}
}

// Get performs the GET with up to MaxRetries attempts. Transport
// errors and 5xx/429 responses are retried after RetryInterval; other
// non-2xx statuses fail immediately since retrying a dead link cannot
// help. A successful response is followed by the rate-limit interval.
func (f *Fetcher) Get(ctx context.Context, rawURL string) domain.FetchResult {
	result := domain.FetchResult{URL: rawURL}

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		result.Attempts = attempt

		resp, err := f.client.R().SetContext(ctx).Get(rawURL)
		switch classify(resp, err) {
		case outcomeSuccess:
			result.StatusCode = resp.StatusCode()
			result.Body = resp.Body()
			result.Header = resp.Header()
			result.FinalURL = finalURL(resp, rawURL)
			result.Err = nil
			f.sleep(ctx, f.interval)
			return result

		case outcomePermanent:
			result.StatusCode = resp.StatusCode()
			result.Err = fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode())
			f.logger.Warn("request failed permanently",
				"url", rawURL, "status", resp.StatusCode(), "attempts", attempt)
			return result

		case outcomeRetryable:
			if err != nil {
				result.Err = fmt.Errorf("GET %s: %w", rawURL, err)
			} else {
				result.StatusCode = resp.StatusCode()
				result.Err = fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode())
			}
			if attempt < f.maxRetries {
				f.sleep(ctx, f.retryInterval)
			}
		}
	}

	f.logger.Warn("request failed after retries",
		"url", rawURL, "attempts", result.Attempts, "error", result.Err)
	return result
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomePermanent
)

// classify separates transient transport failures from permanent
// client errors. The upstream repository occasionally answers 5xx or
// 429 under load; those are worth retrying, a 404 is not.
func classify(resp *resty.Response, err error) outcome {
	if err != nil {
		return outcomeRetryable
	}
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return outcomeSuccess
	case code >= 500 || code == http.StatusTooManyRequests:
		return outcomeRetryable
	default:
		return outcomePermanent
	}
}

// finalURL reports the post-redirect URL, which later stages need to
// resolve relative document links against the right host.
func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return fallback
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
