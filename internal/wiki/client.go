// Package wiki is the content-source client: it fetches rendered article
// HTML from a MediaWiki REST endpoint and extracts the text sections,
// outbound links and categories the processing pipeline consumes.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
)

// Status codes handled explicitly by Fetch.
const (
	statusOK           = 200
	statusNotFound     = 404
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// maxResponseBodyBytes limits the size of fetched article responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Client fetches article pages from a wiki REST API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        logger.Interface
}

// NewClient creates a new wiki client from configuration.
func NewClient(cfg config.WikiConfig, log logger.Interface) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
	}
}

// Fetch retrieves and parses the rendered HTML for a title. Failures map
// onto the domain error sentinels: ErrNotFound (permanent), ErrRateLimited,
// ErrServerError and ErrTimeout (all transient).
func (c *Client) Fetch(ctx context.Context, title string) (*domain.Page, error) {
	endpoint := c.baseURL + "/page/html/" + url.PathEscape(title)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		if isTimeout(doErr) {
			return nil, fmt.Errorf("fetch %q: %w", title, domain.ErrTimeout)
		}
		return nil, fmt.Errorf("fetch %q: %w", title, doErr)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == statusOK:
	case resp.StatusCode == statusNotFound:
		return nil, fmt.Errorf("fetch %q: %w", title, domain.ErrNotFound)
	case resp.StatusCode == statusTooManyReqs:
		return nil, fmt.Errorf("fetch %q: %w", title, domain.ErrRateLimited)
	case resp.StatusCode >= statusServerErrLow:
		return nil, fmt.Errorf("fetch %q: http status %d: %w", title, resp.StatusCode, domain.ErrServerError)
	default:
		return nil, fmt.Errorf("fetch %q: unexpected http status %d", title, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	page, parseErr := ParsePage(title, limited)
	if parseErr != nil {
		return nil, fmt.Errorf("parse %q: %w", title, parseErr)
	}

	c.log.Debug("page fetched",
		"title", title,
		"sections", len(page.Sections),
		"links", len(page.Links),
	)

	return page, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return false
}
