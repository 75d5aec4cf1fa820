// Package fakeyou is a synchronous client for the FakeYou text-to-speech API.
//
// An authenticated Client keeps a cookie session and a snapshot of the voice
// and category catalog, and turns text into audio by submitting a job,
// polling it until it finishes and downloading the result.
package fakeyou

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const loginSuccessBody = `{"success":true}`

// Client is an authenticated FakeYou session. Catalog reads are safe for
// concurrent use; a single client should drive one job at a time.
type Client struct {
	http *resty.Client
	opts Options
	log  *logrus.Entry

	mu      sync.RWMutex
	catalog catalog
}

type catalog struct {
	categories []Category
	voices     []Voice
	generated  time.Time
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// Authenticate logs in and returns a client with a populated catalog. A
// client is never returned if the catalog could not be loaded.
func Authenticate(ctx context.Context, username, password string, opts ...Option) (*Client, error) {
	o := newOptions(opts)

	httpClient, err := newHTTPClient(o)
	if err != nil {
		return nil, err
	}

	log := o.Logger.WithField("user", username)
	resp, err := postJSON(ctx, httpClient, o.BaseURL+"/login", loginRequest{
		UsernameOrEmail: username,
		Password:        password,
	})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		if string(resp.Body()) != loginSuccessBody {
			return nil, ErrInvalidCredentials
		}
	case http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		log.WithField("status", resp.StatusCode()).Warn("unexpected login response")
		return nil, ErrUndefinedResponse
	}
	log.Info("authenticated with FakeYou")

	c := &Client{
		http: httpClient,
		opts: o,
		log:  o.Logger,
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Options returns the settings the client was built with.
func (c *Client) Options() Options {
	return c.opts
}

// CacheGenerated reports when the catalog was last refreshed.
func (c *Client) CacheGenerated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog.generated
}
