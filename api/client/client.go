// Package client is the HTTP client of the ballot box API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/vocdoni/sealed-tally/api"
	"github.com/vocdoni/sealed-tally/log"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	// DefaultRetries is the number of attempts of a request when the
	// connection to the server fails.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second

	retryDelay     = 500 * time.Millisecond
	maxLoggedBytes = 512
)

// HTTPclient is the ballot box API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// New connects to the API host, checks it answers the ping endpoint and
// returns the handle.
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		IdleConnTimeout: DefaultTimeout,
		WriteBufferSize: 1 << 20,
		ReadBufferSize:  1 << 20,
	}
	c := &HTTPclient{
		c:       &http.Client{Transport: tr, Timeout: DefaultTimeout},
		retries: DefaultRetries,
	}
	log.Debugw("http client created", "host", hostURL.String())
	if err := c.SetHostAddr(hostURL); err != nil {
		return nil, err
	}
	return c, nil
}

// SetHostAddr configures the host address of the API server and pings it.
func (c *HTTPclient) SetHostAddr(host *url.URL) error {
	c.host = host
	data, status, err := c.Request(HTTPGET, nil, api.PingEndpoint)
	return checkResponse(data, status, err)
}

// SetRetries configures the number of retries for the HTTP client.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = max(n, 1)
}

// SetTimeout configures the timeout for the HTTP client.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
	if tr, ok := c.c.Transport.(*http.Transport); ok {
		tr.ResponseHeaderTimeout = d
	}
}

// Request performs a request with an optional JSON body to the endpoint
// built from urlPath. It returns the response body and status code. Only
// connection failures are retried, never an API error.
func (c *HTTPclient) Request(method string, jsonBody any, urlPath ...string) ([]byte, int, error) {
	return c.RequestWithContext(context.Background(), method, jsonBody, urlPath...)
}

// RequestWithContext is Request bound to ctx.
func (c *HTTPclient) RequestWithContext(ctx context.Context, method string, jsonBody any, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	log.Debugw("http client request", "type", method, "url", u.String(), "body", truncate(body))

	var (
		resp   *http.Response
		reqErr error
	)
	for i := 1; i <= c.retries; i++ {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		if resp, reqErr = c.c.Do(req); reqErr == nil {
			break
		}
		log.Warnw("http request failed", "error", reqErr.Error(), "attempt", i, "retries", c.retries)
		if i < c.retries {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	if reqErr != nil || resp == nil {
		return nil, 0, fmt.Errorf("http request failed after %d attempts: %w", c.retries, reqErr)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// checkResponse turns a non 200 response into an api.Error carrying the
// code sent by the server, so callers can match it with errors.Is against
// the api error catalogue.
func checkResponse(data []byte, status int, err error) error {
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	var body struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if json.Unmarshal(data, &body) != nil || body.Code == 0 {
		return fmt.Errorf("unexpected API response: %d (%s)", status, bytes.TrimSpace(data))
	}
	return api.Error{Err: errors.New(body.Error), Code: body.Code, HTTPstatus: status}
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBytes {
		return string(body[:maxLoggedBytes]) + "..."
	}
	return string(body)
}
