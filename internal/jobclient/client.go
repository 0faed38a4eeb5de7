// Package jobclient submits jobs to the Emotion Recognizer web application
// and follows them until they finish.
package jobclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
	"github.com/james-jasvin/Emotion-Recognizer/internal/infra"
	"github.com/james-jasvin/Emotion-Recognizer/internal/metrics"
	"github.com/james-jasvin/Emotion-Recognizer/internal/transport"
)

const (
	opSession = "session"
	opSubmit  = "submit"
	opStatus  = "status"
	opUpload  = "upload"

	maxResponseBytes = 1 << 20
)

// Options configures the job server client.
type Options struct {
	BaseURL        string
	HomePath       string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the job endpoints.
type Client struct {
	baseURL    *url.URL
	homePath   string
	httpClient *http.Client
	logger     *infra.Logger
}

type submitResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	ErrorCode string `json:"error_code"`
}

type statusResponse struct {
	Data *struct {
		JobID     string `json:"job_id"`
		JobStatus string `json:"job_status"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
// Without an injected HTTPClient the client keeps a cookie jar, because the
// server ties uploads and submissions to a session cookie, and it does not
// follow redirects so a redirect to the home view can be read as a rejection.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		raw = "http://localhost:5000"
	}
	base, err := url.Parse(raw)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("jobclient: invalid base url %q", opts.BaseURL)
	}
	homePath := strings.TrimSpace(opts.HomePath)
	if homePath == "" {
		homePath = "/home"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		jar, err := NewCookieJar()
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: transport.Chain(http.DefaultTransport, logger),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Client{
		baseURL:    base,
		homePath:   "/" + strings.Trim(homePath, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// NewCookieJar returns the session jar used by default clients.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("jobclient: cookie jar: %w", err)
	}
	return jar, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// OpenSession visits the home view so the server issues its session cookie.
// The server refuses submissions from clients that skipped this step.
func (c *Client) OpenSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.homePath), nil)
	if err != nil {
		return &TransportError{Op: opSession, Err: err}
	}
	resp, err := c.do(opSession, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 400 {
		return &TransportError{Op: opSession, StatusCode: resp.StatusCode, Err: errors.New("home view unavailable")}
	}
	c.logger.Debug().Int("status", resp.StatusCode).Msg("jobclient: session opened")
	return nil
}

// Submit sends payload verbatim as the body of POST /jobs. contentType is
// only set when non-empty, so the server sees exactly the bytes and framing
// the caller produced.
//
// A rejection by the server is not an error: it comes back as a result with
// Status SubmissionFail and the error code to display.
func (c *Client) Submit(ctx context.Context, payload io.Reader, contentType string) (*domain.SubmissionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("jobs"), payload)
	if err != nil {
		metrics.IncSubmission("transport_error")
		return nil, &TransportError{Op: opSubmit, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	result, err := c.submit(req)
	switch {
	case err != nil:
		metrics.IncSubmission("transport_error")
	case result.Status == domain.SubmissionFail:
		metrics.IncSubmission("fail")
	default:
		metrics.IncSubmission("ok")
	}
	return result, err
}

func (c *Client) submit(req *http.Request) (*domain.SubmissionResult, error) {
	resp, err := c.do(opSubmit, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: opSubmit, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if code, ok := c.homeRedirectCode(resp); ok {
		c.logger.Info().Str("error_code", code).Msg("jobclient: submission redirected to home view")
		return &domain.SubmissionResult{Status: domain.SubmissionFail, ErrorCode: code}, nil
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.Status == "" {
		if resp.StatusCode >= 300 {
			return nil, &TransportError{Op: opSubmit, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected body: %s", snippet(raw))}
		}
		if err == nil {
			err = errors.New("missing status")
		}
		return nil, &TransportError{Op: opSubmit, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	switch strings.ToLower(strings.TrimSpace(decoded.Status)) {
	case string(domain.SubmissionFail):
		return &domain.SubmissionResult{Status: domain.SubmissionFail, ErrorCode: decoded.ErrorCode}, nil
	case string(domain.SubmissionOK), "success":
		jobID := strings.TrimSpace(decoded.JobID)
		if jobID == "" {
			return nil, &TransportError{Op: opSubmit, StatusCode: resp.StatusCode, Err: domain.ErrMissingJobID}
		}
		c.logger.Debug().Str("job_id", jobID).Int("status", resp.StatusCode).Msg("jobclient: job accepted")
		return &domain.SubmissionResult{Status: domain.SubmissionOK, JobID: jobID}, nil
	default:
		return nil, &TransportError{Op: opSubmit, StatusCode: resp.StatusCode, Err: fmt.Errorf("unknown submission status %q", decoded.Status)}
	}
}

// Status fetches GET /jobs/{jobID} once.
func (c *Client) Status(ctx context.Context, jobID string) (*domain.StatusResponse, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, &TransportError{Op: opStatus, Err: domain.ErrMissingJobID}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("jobs", url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, &TransportError{Op: opStatus, Err: err}
	}
	resp, err := c.do(opStatus, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: opStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: opStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected body: %s", snippet(raw))}
	}

	var decoded statusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Op: opStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if decoded.Data == nil {
		return nil, &TransportError{Op: opStatus, StatusCode: resp.StatusCode, Err: errors.New("response has no data")}
	}
	return &domain.StatusResponse{
		JobID:     strings.TrimSpace(decoded.Data.JobID),
		JobStatus: domain.JobStatus(strings.ToLower(strings.TrimSpace(decoded.Data.JobStatus))),
	}, nil
}

func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveRequest(op, time.Since(start))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

// homeRedirectCode recognizes the server answering a submission with a
// redirect to the home view carrying an error code: either <home>/<code>
// or the numeric /<code> route. Any other redirect is not a rejection.
func (c *Client) homeRedirectCode(resp *http.Response) (string, bool) {
	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", false
	}
	loc, err := resp.Location()
	if err != nil || !strings.EqualFold(loc.Host, c.baseURL.Host) {
		return "", false
	}
	dir, code := path.Split(strings.TrimRight(loc.Path, "/"))
	if code == "" {
		return "", false
	}
	dir = strings.TrimRight(dir, "/")
	root := strings.TrimRight(c.baseURL.Path, "/")
	switch dir {
	case root + c.homePath:
		return code, true
	case root:
		if isNumericCode(code) {
			return code, true
		}
	}
	return "", false
}

func isNumericCode(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.JoinPath(elem...).String()
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
