package fakeyou

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// newHTTPClient builds the session client. Every call after login relies on the
// cookie jar for session affinity.
func newHTTPClient(o Options) (*resty.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, requestError(err)
	}

	client := resty.New().
		SetCookieJar(jar).
		SetTimeout(o.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "fakeyou-go/1.0")

	log := o.Logger
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		log.WithFields(logrus.Fields{
			"method": req.Method,
			"url":    req.URL,
		}).Debug("fakeyou request")
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		log.WithFields(logrus.Fields{
			"method":  resp.Request.Method,
			"url":     resp.Request.URL,
			"status":  resp.StatusCode(),
			"elapsed": resp.Time().Round(time.Millisecond),
		}).Debug("fakeyou response")
		return nil
	})

	return client, nil
}

// checkStatus turns a 429 into ErrTooManyRequests. Any other status is left
// for the call site to interpret.
func checkStatus(resp *resty.Response) (*resty.Response, error) {
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, ErrTooManyRequests
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, url string) (*resty.Response, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, requestError(err)
	}
	return checkStatus(resp)
}

func (c *Client) post(ctx context.Context, url string, body any) (*resty.Response, error) {
	return postJSON(ctx, c.http, url, body)
}

func postJSON(ctx context.Context, client *resty.Client, url string, body any) (*resty.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, serializationError(err)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return nil, requestError(err)
	}
	return checkStatus(resp)
}

func (c *Client) getJSON(ctx context.Context, url string) (map[string]any, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, serializationError(err)
	}
	return out, nil
}

func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// stringField reads a required string member of a decoded JSON object.
func stringField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key].(string)
	if !ok {
		return "", improper("field %q missing or not a string", key)
	}
	return v, nil
}

func objectField(obj map[string]any, key string) (map[string]any, error) {
	v, ok := obj[key].(map[string]any)
	if !ok {
		return nil, improper("field %q missing or not an object", key)
	}
	return v, nil
}

func arrayField(obj map[string]any, key string) ([]any, error) {
	v, ok := obj[key].([]any)
	if !ok {
		return nil, improper("field %q missing or not an array", key)
	}
	return v, nil
}
