package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cybershield/notifier/pkg/apiresponses"
	"github.com/cybershield/notifier/pkg/notification"
)

const (
	sendPath   = "/api/send-notification"
	healthPath = "/api/health"
)

type Client struct {
	http      *resty.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
}

type Option func(*Client) error

func New(opts ...Option) (*Client, error) {
	c := &Client{
		http:      resty.New(),
		userAgent: "notifier",
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.baseURL == "" {
		return nil, errors.New("server is required")
	}
	c.http.
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", c.userAgent)
	return c, nil
}

func WithServer(server string) Option {
	return func(c *Client) error {
		if server == "" {
			return errors.New("server is required")
		}
		parsed, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("invalid server: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("invalid server %q: scheme must be http or https", server)
		}
		c.baseURL = strings.TrimRight(parsed.String(), "/")
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

func WithTLSConfig(caFile string, insecureSkipTLSVerify bool) Option {
	return func(c *Client) error {
		tlsConfig, err := loadTLSConfig(caFile, insecureSkipTLSVerify)
		if err != nil {
			return err
		}
		c.http.SetTLSClientConfig(tlsConfig)
		return nil
	}
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure}
	if caFile == "" {
		return tlsConfig, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}

// SendNotification posts req to the service and returns its confirmation.
func (c *Client) SendNotification(ctx context.Context, req notification.Request) (*notification.SendResponse, error) {
	var out notification.SendResponse
	if err := c.do(ctx, resty.MethodPost, sendPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health asks the service to probe its mail transport.
func (c *Client) Health(ctx context.Context) (*notification.HealthResponse, error) {
	var out notification.HealthResponse
	if err := c.do(ctx, resty.MethodGet, healthPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var apiErr apiresponses.APIError
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = strings.TrimSpace(string(resp.Body()))
		}
		if msg == "" {
			msg = resp.Status()
		}
		return &HTTPError{StatusCode: resp.StatusCode(), Code: apiErr.Code, Message: msg}
	}
	return nil
}

// HTTPError is returned for any response with a status of 400 or above.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}
