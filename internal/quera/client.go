// Package quera fetches upcoming assignment deadlines from the Quera course page.
package quera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/model"
)

const (
	coursePath    = "/course"
	sessionCookie = "session_id"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client scrapes the course page using a tenant's session cookie.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger
}

// NewClient constructs a Quera client. baseURL has no trailing slash,
// e.g. "https://quera.org".
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FetchAssignments loads the course page and returns the raw deadline tuples.
// A redirect to the login page is reported as errs.ErrSessionInvalid;
// transient transport failures are retried a bounded number of times.
func (c *Client) FetchAssignments(ctx context.Context, sessionID string) ([]model.RawAssignment, error) {
	var raws []model.RawAssignment

	backoff := retry.WithMaxRetries(2, retry.NewConstant(2*time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := c.fetchOnce(ctx, sessionID)
		if err != nil {
			if errors.Is(err, errs.ErrSessionInvalid) {
				return err // not retryable
			}
			return retry.RetryableError(err)
		}
		raws = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raws, nil
}

// ValidateSession reports whether the session cookie can still load the
// course page without being redirected to login.
func (c *Client) ValidateSession(ctx context.Context, sessionID string) error {
	_, err := c.fetchOnce(ctx, sessionID)
	return err
}

func (c *Client) fetchOnce(ctx context.Context, sessionID string) ([]model.RawAssignment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coursePath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("User-Agent", userAgent)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionID})

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("course page request: %w", err)
	}
	defer resp.Body.Close()

	// An expired session bounces to the login page instead of failing.
	if strings.Contains(resp.Request.URL.Path, "login") {
		return nil, errs.ErrSessionInvalid
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("course page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse course page: %w", err)
	}

	raws := c.parseAssignments(doc)
	c.log.Info("fetched assignments", zap.Int("count", len(raws)))
	return raws, nil
}
