// Package client is the typed HTTP client for the vision device service. It
// implements session.Remote plus the thin camera/pipeline CRUD calls and the
// one-way pattern document download.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client communicates with the device service over plain HTTP. The device is
// a network peer; timeout policy lives here, not in the session controller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client for the device at baseURL (e.g. http://10.0.0.2:5800).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send performs a request and returns the raw response body. Non-2xx
// responses become errors carrying the body text.
func (c *Client) Send(method string, path string, data string) (string, error) {
	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"device": c.baseURL,
	}).Debug("sending request")

	var body io.Reader
	if data != "" {
		body = strings.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if data != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return "", fmt.Errorf("%w: %v", ErrDeviceUnreachable, err)
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"code": resp.StatusCode,
		"body": string(b),
	}).Debug("got response")

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("got %d: %s", resp.StatusCode, string(b))
	}

	return string(b), nil
}

// Get sends a GET request to the device service.
func (c *Client) Get(path string) (string, error) {
	return c.Send("GET", path, "")
}

// Post sends a POST request with a JSON body to the device service.
func (c *Client) Post(path string, data string) (string, error) {
	return c.Send("POST", path, data)
}

// Delete sends a DELETE request to the device service.
func (c *Client) Delete(path string) (string, error) {
	return c.Send("DELETE", path, "")
}

// postJSON marshals req, posts it and unmarshals the response into out.
// out may be nil when the body is irrelevant.
func (c *Client) postJSON(path string, req any, out any) error {
	var payload string
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to marshal %s request", path)
		}
		payload = string(b)
	}
	body, err := c.Post(path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal %s response", path)
	}
	return nil
}

func (c *Client) getJSON(path string, out any) error {
	body, err := c.Get(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal %s response", path)
	}
	return nil
}
