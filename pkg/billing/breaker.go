package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// APIError is a non-2xx answer from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return ErrUpstreamRejected
}

// restClient is a resty client whose calls go through a circuit breaker.
// 5xx and 429 answers count as breaker failures; other 4xx do not.
type restClient struct {
	name    string
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
}

func newRESTClient(name, baseURL string, timeout time.Duration, hc *http.Client) *restClient {
	var rc *resty.Client
	if hc != nil {
		rc = resty.NewWithClient(hc)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "vemx1-billing/1.0")

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &restClient{name: name, http: rc, breaker: cb}
}

// do executes one request. result, when non-nil, receives the decoded 2xx body.
func (c *restClient) do(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}
		r, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests {
			return r, c.apiError(r)
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrProviderUnavailable, err)
	}
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.apiError(resp)
	}
	return nil
}

func (c *restClient) apiError(r *resty.Response) error {
	body := r.String()
	if len(body) > 512 {
		body = body[:512]
	}
	return &APIError{Provider: c.name, StatusCode: r.StatusCode(), Body: body}
}
