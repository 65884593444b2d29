package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/net/http2"
)

const (
	DefaultBaseURL   = "https://api.mangadex.org"
	DefaultUserAgent = "yomu/0.1.0"
	DefaultMaxBytes  = 50 << 20
	WebBaseURL       = "https://mangadex.org"

	searchLimit   = 25
	feedPageSize  = 500
	unknownTitle  = "Unknown Title"
	errorBodySize = 4096
)

type Client struct {
	baseURL    string
	userAgent  string
	language   string
	http       *http.Client
	maxBytes   int64
	attempts   uint
	retryDelay time.Duration
	log        *slog.Logger
}

type Option func(*Client)

// WithMaxBytes sets the page download ceiling.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithRetry configures retries of metadata calls. Page downloads are never
// retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.retryDelay = delay
	}
}

// WithLanguage sets the language display titles are picked in.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(baseURL, userAgent string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		language:   "en",
		http:       httpClient,
		maxBytes:   DefaultMaxBytes,
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient returns a client whose transport negotiates HTTP/2 and keeps
// enough idle connections for parallel page downloads.
func NewHTTPClient(timeout time.Duration, maxConnsPerHost int) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = max(maxConnsPerHost, 2)
	if _, err := http2.ConfigureTransports(tr); err != nil {
		return nil, fmt.Errorf("configure http2 transport: %w", err)
	}
	return &http.Client{Timeout: timeout, Transport: tr}, nil
}

// Search returns titles matching query that have a usable display title.
func (c *Client) Search(ctx context.Context, query string) ([]Title, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrValidation)
	}

	q := make(url.Values)
	q.Set("title", query)
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("order[relevance]", "desc")

	var resp searchResponse
	if err := c.getJSON(ctx, "search", "/manga", q, &resp); err != nil {
		return nil, err
	}

	return lo.FilterMap(resp.Data, func(m mangaData, _ int) (Title, bool) {
		name := c.displayTitle(m.Attributes.Title)
		if name == "" || name == unknownTitle {
			return Title{}, false
		}
		return Title{
			ID:          m.ID,
			Name:        name,
			Description: c.pick(m.Attributes.Description),
			Status:      m.Attributes.Status,
			Demographic: m.Attributes.Demographic,
			Year:        m.Attributes.Year,
		}, true
	}), nil
}

// ListChapters returns every readable chapter of a title in the given
// language, ordered by chapter number.
func (c *Client) ListChapters(ctx context.Context, titleID, language string) ([]Chapter, error) {
	if err := validateID(titleID); err != nil {
		return nil, err
	}
	if language == "" {
		language = c.language
	}

	var chapters []Chapter
	for offset := 0; ; {
		q := make(url.Values)
		q.Set("translatedLanguage[]", language)
		q.Set("order[chapter]", "asc")
		q.Set("limit", strconv.Itoa(feedPageSize))
		q.Set("offset", strconv.Itoa(offset))

		var resp feedResponse
		if err := c.getJSON(ctx, "list chapters", "/manga/"+titleID+"/feed", q, &resp); err != nil {
			return nil, err
		}
		chapters = append(chapters, lo.FilterMap(resp.Data, func(d chapterData, _ int) (Chapter, bool) {
			pages := lo.FromPtr(d.Attributes.Pages)
			if pages <= 0 || d.Attributes.IsUnavailable {
				return Chapter{}, false
			}
			return Chapter{
				ID:       d.ID,
				Volume:   lo.FromPtr(d.Attributes.Volume),
				Number:   lo.FromPtr(d.Attributes.Chapter),
				Title:    lo.FromPtr(d.Attributes.Title),
				Language: d.Attributes.TranslatedLanguage,
				Pages:    pages,
			}, true
		})...)

		offset += len(resp.Data)
		if len(resp.Data) == 0 || offset >= resp.Total {
			break
		}
	}
	return chapters, nil
}

// FetchManifest returns where the chapter's page images are served from.
// Only https delivery nodes are accepted.
func (c *Client) FetchManifest(ctx context.Context, chapterID string) (Manifest, error) {
	if err := validateID(chapterID); err != nil {
		return Manifest{}, err
	}

	var resp atHomeResponse
	if err := c.getJSON(ctx, "fetch manifest", "/at-home/server/"+chapterID, nil, &resp); err != nil {
		return Manifest{}, err
	}
	if resp.Result != "ok" {
		return Manifest{}, &APIError{Op: "fetch manifest", Status: http.StatusOK, Body: "result " + resp.Result}
	}
	base, err := url.Parse(resp.BaseURL)
	if err != nil || base.Scheme != "https" || base.Host == "" {
		return Manifest{}, fmt.Errorf("%w: refusing insecure image server %q", ErrValidation, resp.BaseURL)
	}
	if resp.Chapter.Hash == "" {
		return Manifest{}, fmt.Errorf("%w: manifest without content hash", ErrValidation)
	}

	return Manifest{
		BaseURL:   strings.TrimRight(resp.BaseURL, "/"),
		Hash:      resp.Chapter.Hash,
		Data:      resp.Chapter.Data,
		DataSaver: resp.Chapter.DataSaver,
	}, nil
}

// DownloadBytes fetches one page image. The body is bounded both by the
// declared Content-Length and by the bytes actually received.
func (c *Client) DownloadBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: refusing page url %q", ErrValidation, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download page: %w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySize))
		return nil, &APIError{Op: "download page", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("download page: %w: declared %d bytes, limit %d", ErrSizeLimit, resp.ContentLength, c.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download page: %w: %w", ErrNetwork, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("download page: %w: body exceeds %d bytes", ErrSizeLimit, c.maxBytes)
	}
	return data, nil
}

// getJSON performs a metadata GET, retrying rate limits, server errors and
// transport failures.
func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, out any) error {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	return retry.Do(
		func() error {
			req, err := c.newRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("%s request failed: %w: %w", op, ErrNetwork, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySize))
				apiErr := &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
				if apiErr.Temporary() {
					return apiErr
				}
				return retry.Unrecoverable(apiErr)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(&APIError{Op: op, Status: resp.StatusCode, Err: err})
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug("retrying mangadex request", "op", op, "attempt", n+1, "error", err)
		}),
	)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// displayTitle prefers the configured language and falls back to English.
func (c *Client) displayTitle(titles map[string]string) string {
	if t := titles[c.language]; t != "" {
		return t
	}
	return titles["en"]
}

func (c *Client) pick(texts map[string]string) string {
	return strings.TrimSpace(c.displayTitle(texts))
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrValidation, id)
	}
	return nil
}

// ChapterWebURL is the chapter's page on the MangaDex website.
func ChapterWebURL(chapterID string) string {
	return WebBaseURL + "/chapter/" + url.PathEscape(chapterID)
}
