package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// ErrUnavailable is the terminal failure after all retries are exhausted.
// It means "content unavailable for this URL at this time" and is the only
// error a Fetcher surfaces to callers.
var ErrUnavailable = errors.New("fetch: content unavailable")

// userAgents is rotated per attempt to vary the browser fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Firefox/89.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Firefox/90.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/91.0.864.59",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/92.0.902.55",
}

var fixedHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.8,zh-TW;q=0.7,zh-HK;q=0.5,en-US;q=0.3,en;q=0.2",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Options parameterize the retry-with-backoff loop.
type Options struct {
	MaxRetries int           // attempts before giving up; default 5
	Timeout    time.Duration // per-attempt HTTP timeout; default 20s
}

// Fetcher issues GETs with rotating user agents, randomized pre-request
// delays, and linearly growing backoff between attempts. The target site
// closes sockets on bursts and does not reliably declare its encoding, so the
// body is always read as UTF-8 and connection resets get an extended cooldown.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	logger     *slog.Logger

	// injectable in tests
	sleep func(time.Duration)
	randf func() float64
}

// New wires an HTTP client; a nil client gets the default timeout.
func New(client *http.Client, opts Options, logger *slog.Logger) *Fetcher {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		client:     client,
		maxRetries: opts.MaxRetries,
		logger:     logger,
		sleep:      time.Sleep,
		randf:      rand.Float64,
	}
}

// Fetch returns the page body for url, or ErrUnavailable after exhausting all
// retries. No other error escapes this boundary.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		f.debug("request page", "url", url, "attempt", attempt, "max", f.maxRetries)

		// randomized pre-request delay keeps the request rate irregular
		f.sleep(f.uniform(0.5, 2.0))

		body, err := f.attempt(ctx, url)
		if err == nil {
			return body, nil
		}

		switch {
		case isTimeout(err):
			f.debug("request timed out", "url", url)
		case isReset(err):
			f.debug("connection reset, extended cooldown", "url", url)
			f.sleep(f.uniform(2.0, 5.0))
		default:
			f.debug("request failed", "url", url, "error", err)
		}

		if attempt < f.maxRetries {
			f.sleep(f.uniform(1.0, 3.0) * time.Duration(attempt))
		}
	}

	f.debug("giving up after retries", "url", url)
	return "", ErrUnavailable
}

func (f *Fetcher) attempt(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range fixedHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", userAgents[int(f.randf()*float64(len(userAgents)))%len(userAgents)])

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(raw), nil
}

// uniform returns a duration drawn uniformly from [min,max] seconds.
func (f *Fetcher) uniform(min, max float64) time.Duration {
	s := min + f.randf()*(max-min)
	return time.Duration(s * float64(time.Second))
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func isReset(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(err.Error(), "connection reset")
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
