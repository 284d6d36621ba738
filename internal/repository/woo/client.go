// Package woo implements the catalog and order repositories against the
// WooCommerce REST API (/wp-json/wc/v3).
package woo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kaabmedia/Vdubscards/internal/config"
)

// authStrategy applies one of the two mutually exclusive upstream auth
// modes to an outgoing request. Selected once at construction, not per
// call.
type authStrategy interface {
	name() string
	apply(req *http.Request)
}

// queryAuth appends consumer_key/consumer_secret as query parameters.
type queryAuth struct {
	key    string
	secret string
}

func (a queryAuth) name() string { return "query" }

func (a queryAuth) apply(req *http.Request) {
	q := req.URL.Query()
	q.Set("consumer_key", a.key)
	q.Set("consumer_secret", a.secret)
	req.URL.RawQuery = q.Encode()
}

// basicAuth sends a single HTTP Basic credential.
type basicAuth struct {
	key    string
	secret string
}

func (a basicAuth) name() string { return "basic" }

func (a basicAuth) apply(req *http.Request) {
	req.SetBasicAuth(a.key, a.secret)
}

// APIError is a non-success upstream response. It carries redacted
// diagnostics only: host and auth mode, never credentials.
type APIError struct {
	Status   int
	Host     string
	AuthMode string
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce request failed (%d): %s", e.Status, e.Body)
}

// Client issues authenticated calls to the commerce REST API. Every call
// fetches fresh; callers that want caching apply their own revalidation
// window at a higher layer.
type Client struct {
	base string
	auth authStrategy
	http *http.Client
}

// New builds a client from config, picking the auth strategy by which
// credential triple is present. Basic wins when both are configured.
func New(cfg config.WooConfig, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{http: httpClient}
	if cfg.UseBasic() {
		c.base = cfg.BaseURL
		c.auth = basicAuth{key: cfg.BasicKey, secret: cfg.BasicSecret}
	} else if cfg.URL != "" && cfg.ConsumerKey != "" && cfg.ConsumerSecret != "" {
		c.base = cfg.URL
		c.auth = queryAuth{key: cfg.ConsumerKey, secret: cfg.ConsumerSecret}
	} else {
		return nil, fmt.Errorf("woocommerce credentials not configured")
	}
	if !strings.HasSuffix(c.base, "/") {
		c.base += "/"
	}
	return c, nil
}

// Host returns the upstream host for diagnostics.
func (c *Client) Host() string {
	u, err := url.Parse(c.base)
	if err != nil || u.Host == "" {
		return c.base
	}
	return u.Host
}

// AuthMode names the active strategy ("basic" or "query").
func (c *Client) AuthMode() string { return c.auth.name() }

func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(c.base + "wp-json/wc/v3/" + strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", err
	}
	if params != nil {
		// Merge onto any parameters already in the endpoint.
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchRaw performs the request and returns the raw response so callers
// can read pagination headers. A non-2xx status is returned as *APIError
// with the body consumed.
func (c *Client) FetchRaw(ctx context.Context, method, endpoint string, params url.Values, body interface{}) (*http.Response, error) {
	target, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Keep stock and price data live.
	req.Header.Set("Cache-Control", "no-store")
	c.auth.apply(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		text, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, &APIError{
			Status:   res.StatusCode,
			Host:     c.Host(),
			AuthMode: c.AuthMode(),
			Body:     strings.TrimSpace(string(text)),
		}
	}
	return res, nil
}

// Fetch performs the request and decodes the JSON body into out.
func (c *Client) Fetch(ctx context.Context, method, endpoint string, params url.Values, body, out interface{}) error {
	res, err := c.FetchRaw(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
