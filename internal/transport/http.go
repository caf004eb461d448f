package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adamancini/appupdate/internal/logging"
)

const (
	// HTTP client timeout for check requests.
	defaultTimeout = 30 * time.Second

	// Downloads have no overall deadline by default. ctx bounds them.
	defaultDownloadTimeout = 0

	// Maximum size of a check response body (1MB).
	maxResponseSize = 1 << 20

	// Default number of attempts for retryable requests.
	defaultMaxAttempts = 3

	// Base delay used for exponential backoff between retries.
	retryBaseDelay = 250 * time.Millisecond

	// Maximum delay cap for exponential backoff between retries.
	retryMaxDelay = 2 * time.Second

	// Max random jitter added to each retry backoff.
	retryJitterMax = 200 * time.Millisecond

	// Progress is reported at most once per this fraction of the file.
	progressStep = 0.01

	dirPerm = 0o755
)

// ErrResponseTooLarge is returned when a check response exceeds maxResponseSize.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	client         *http.Client
	downloadClient *http.Client
	userAgent      string
	headers        map[string]string
	maxAttempts    int
	randInt63      func(n int64) int64
	sleep          func(ctx context.Context, d time.Duration) error
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTP transport with default timeout and retries.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client:         &http.Client{Timeout: defaultTimeout},
		downloadClient: &http.Client{Timeout: defaultDownloadTimeout},
		userAgent:      "appupdate",
		headers:        make(map[string]string),
		maxAttempts:    defaultMaxAttempts,
		randInt63:      rand.Int63n,
		sleep:          waitForBackoff,
	}
}

// WithTimeout sets the timeout of check requests. Zero disables it.
// Downloads are not affected.
func (c *HTTPClient) WithTimeout(d time.Duration) *HTTPClient {
	c.client.Timeout = d
	return c
}

// WithDownloadTimeout caps a whole package download, body included.
// Zero, the default, leaves downloads bounded only by their context.
func (c *HTTPClient) WithDownloadTimeout(d time.Duration) *HTTPClient {
	c.downloadClient.Timeout = d
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *HTTPClient) WithUserAgent(ua string) *HTTPClient {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithHeader adds a header sent with every request.
func (c *HTTPClient) WithHeader(key, value string) *HTTPClient {
	c.headers[key] = value
	return c
}

// WithRetries sets the maximum number of attempts per request (minimum 1).
func (c *HTTPClient) WithRetries(attempts int) *HTTPClient {
	if attempts < 1 {
		attempts = 1
	}
	c.maxAttempts = attempts
	return c
}

// AsyncGet issues a GET with params merged into the query string.
func (c *HTTPClient) AsyncGet(ctx context.Context, rawURL string, params map[string]string, fn ResponseFunc) {
	go func() {
		fn(c.get(ctx, rawURL, params))
	}()
}

// AsyncPost issues a POST with params as a form-encoded body.
func (c *HTTPClient) AsyncPost(ctx context.Context, rawURL string, params map[string]string, fn ResponseFunc) {
	go func() {
		fn(c.post(ctx, rawURL, params))
	}()
}

func (c *HTTPClient) get(ctx context.Context, rawURL string, params map[string]string) (*string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	target := u.String()

	resp, err := c.doWithRetry(ctx, c.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	})
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

func (c *HTTPClient) post(ctx context.Context, rawURL string, params map[string]string) (*string, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	encoded := form.Encode()

	resp, err := c.doWithRetry(ctx, c.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// readBody drains and closes the response. 204 yields a nil body.
func readBody(resp *http.Response) (*string, error) {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, maxResponseSize)
	}
	body := string(data)
	return &body, nil
}

// Download fetches url into dir/fileName, writing to a .part file first.
func (c *HTTPClient) Download(ctx context.Context, rawURL, dir, fileName string, cb FileCallback) {
	go func() {
		path, err := c.download(ctx, rawURL, dir, fileName, cb)
		if err != nil {
			cb.OnError(err)
			return
		}
		cb.OnResponse(path)
	}()
}

func (c *HTTPClient) download(ctx context.Context, rawURL, dir, fileName string, cb FileCallback) (string, error) {
	log := logging.FromContext(ctx)

	if fileName == "" {
		return "", fmt.Errorf("file name is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	cb.OnBefore()

	resp, err := c.doWithRetry(ctx, c.downloadClient, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	})
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	finalPath := filepath.Join(dir, fileName)
	partPath := finalPath + ".part"

	file, err := os.Create(partPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	pw := &progressWriter{total: resp.ContentLength, cb: cb}
	written, err := io.Copy(file, io.TeeReader(resp.Body, pw))
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	pw.finish()

	if err := os.Rename(partPath, finalPath); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	log.Debug().Int64("bytes", written).Str("path", finalPath).Msg("download completed")
	return finalPath, nil
}

// progressWriter counts bytes passing through and reports progress steps.
type progressWriter struct {
	total    int64
	written  int64
	reported float64
	cb       FileCallback
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		fraction := float64(p.written) / float64(p.total)
		if fraction-p.reported >= progressStep {
			p.reported = fraction
			p.cb.OnProgress(fraction, p.total)
		}
	}
	return len(b), nil
}

func (p *progressWriter) finish() {
	if p.reported < 1 {
		p.reported = 1
		total := p.total
		if total <= 0 {
			total = -1
		}
		p.cb.OnProgress(1, total)
	}
}

// doWithRetry builds a fresh request per attempt so bodies are never reused.
func (c *HTTPClient) doWithRetry(ctx context.Context, client *http.Client, newRequest func() (*http.Request, error)) (*http.Response, error) {
	log := logging.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			if !isRetryableRequestError(err) || attempt >= c.maxAttempts {
				return nil, err
			}
			log.Debug().Err(err).Int("attempt", attempt).Msg("retrying request")
		} else {
			if !isRetryableStatus(resp.StatusCode) || attempt >= c.maxAttempts {
				return resp, nil
			}
			_ = resp.Body.Close()
			log.Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("retrying request")
		}

		if waitErr := c.sleep(ctx, retryDelayForAttempt(attempt, c.randInt63)); waitErr != nil {
			return nil, waitErr
		}
	}
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return true
	}
	return status >= http.StatusInternalServerError
}

func isRetryableRequestError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func waitForBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryDelayForAttempt(attempt int, randInt63 func(n int64) int64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := retryBaseDelay
	for i := 1; i < attempt && delay < retryMaxDelay; i++ {
		delay *= 2
	}

	if randInt63 != nil && retryJitterMax > 0 {
		delay += time.Duration(randInt63(int64(retryJitterMax)))
	}

	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
