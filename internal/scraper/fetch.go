package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/monoko6666/mercari-ebay/helpers"
	"github.com/monoko6666/mercari-ebay/logger"
	"github.com/monoko6666/mercari-ebay/metrics"
	"github.com/monoko6666/mercari-ebay/pkg/errors"
)

const component = "fetcher"

// PageFetcher implements Fetcher with a plain HTTP client and a browser renderer
type PageFetcher struct {
	Client        *http.Client
	Renderer      Renderer
	Settle        time.Duration
	RenderTimeout time.Duration
	Metrics       *metrics.Metrics
}

// NewPageFetcher creates a fetcher. renderer may be nil if rendered mode is never used.
func NewPageFetcher(client *http.Client, renderer Renderer, settle, renderTimeout time.Duration, m *metrics.Metrics) *PageFetcher {
	return &PageFetcher{
		Client:        client,
		Renderer:      renderer,
		Settle:        settle,
		RenderTimeout: renderTimeout,
		Metrics:       m,
	}
}

// Fetch returns the page HTML, wrapping failures as network errors
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string, mode Mode) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	start := time.Now()
	var (
		html string
		err  error
	)
	switch mode {
	case ModeStatic:
		html, err = f.fetchStatic(ctx, rawURL)
	case ModeRendered:
		html, err = f.fetchRendered(ctx, rawURL)
	default:
		return "", errors.NewValidation(component, fmt.Sprintf("unknown fetch mode %q", mode))
	}
	f.Metrics.ObserveFetch(string(mode), err, time.Since(start))

	log := logger.ForFetcher(string(mode)).WithContext(ctx)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Fetch failed")
		return "", err
	}
	log.Debug().
		Str("url", rawURL).
		Int("bytes", len(html)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched listing page")
	return html, nil
}

func (f *PageFetcher) fetchStatic(ctx context.Context, rawURL string) (string, error) {
	body, err := helpers.FetchWithHeaders(ctx, f.Client, rawURL)
	if err != nil {
		return "", errors.NewNetwork(component, "failed to fetch page", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", errors.NewNetwork(component, "failed to read page", err)
	}
	return string(data), nil
}

// fetchRendered renders the page in a fresh browser that is released on every path
func (f *PageFetcher) fetchRendered(ctx context.Context, rawURL string) (html string, err error) {
	if f.Renderer == nil {
		return "", errors.NewConfiguration("rendered fetch requested without a renderer", nil)
	}

	if f.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.RenderTimeout)
		defer cancel()
	}

	session, err := f.Renderer.Acquire(ctx)
	if err != nil {
		return "", errors.NewNetwork(component, "failed to start browser", err)
	}
	defer func() {
		if releaseErr := session.Release(); releaseErr != nil {
			logger.ForFetcher(string(ModeRendered)).Warn().Err(releaseErr).Msg("Failed to release browser")
		}
	}()

	html, err = session.Render(ctx, rawURL, f.Settle)
	if err != nil {
		return "", errors.NewNetwork(component, "failed to render page", err)
	}
	return html, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewValidation(component, fmt.Sprintf("invalid listing url %q", rawURL))
	}
	return nil
}
