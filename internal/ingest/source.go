package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// UserAgent sent when downloading remote sheets
	UserAgent = "frisbee-stats-importer/1.0"

	// MinRequestInterval spaces out requests to the same publisher
	MinRequestInterval = 2 * time.Second

	maxSourceBytes = 32 << 20
)

// ErrSourceTooLarge is returned when a source exceeds the size cap.
var ErrSourceTooLarge = errors.New("source too large")

// Fetcher loads stat sheets from local paths or http(s) URLs.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher whose remote requests time out after timeout.
func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stat-source",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("circuit", name).
				Str("from_state", from.String()).
				Str("to_state", to.String()).
				Msg("source circuit breaker state changed")
		},
	})

	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(MinRequestInterval), 1),
		breaker: cb,
		logger:  logger,
	}
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch returns the raw bytes of source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("empty source")
	}
	if !IsRemote(source) {
		return readFile(strings.TrimPrefix(source, "file://"))
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := f.breaker.Execute(func() (interface{}, error) {
		return f.download(ctx, source)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	return body.([]byte), nil
}

func (f *Fetcher) download(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("source", source).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("downloaded stat sheet")
	return body, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()
	return readLimited(file)
}

func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxSourceBytes {
		return nil, ErrSourceTooLarge
	}
	return body, nil
}
