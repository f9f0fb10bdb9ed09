package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client speaks the supervisor's command-style HTTP API: every operation is
// a named command with positional arguments sent as a single query value.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Token    string       // Optional bearer token for authenticated daemons
	Logger   *slog.Logger // Optional logger for client operations
	TLS      *TLSClientConfig
	Insecure bool // Skip TLS verification
}

// TLSClientConfig holds TLS configuration for client
type TLSClientConfig struct {
	Enabled    bool   // Enable TLS
	CACert     string // CA certificate file path
	ClientCert string // Client certificate file
	ClientKey  string // Client private key file
	ServerName string // Server name for verification
	SkipVerify bool   // Skip certificate verification
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
	}
}

// InsecureConfig returns insecure client configuration (skip TLS verification)
func InsecureConfig() Config {
	return Config{
		BaseURL:  "https://localhost:8080",
		Timeout:  10 * time.Second,
		Insecure: true,
	}
}

// New creates a new supervisor API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{}
	if config.TLS != nil && config.TLS.Enabled || config.Insecure {
		tlsConfig, err := setupClientTLS(config)
		if err != nil {
			config.Logger.Error("TLS setup failed", "error", err)
		} else {
			transport.TLSClientConfig = tlsConfig
		}
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		logger:  config.Logger,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// Invoke sends a named command with its arguments and decodes the response
// envelope. The returned error covers transport-level failures only
// (connectivity, timeout, 401); an application-level failure is reported
// through Response.Status.
func (c *Client) Invoke(ctx context.Context, command string, args []string) (*Response, error) {
	cmd := command
	if len(args) > 0 {
		cmd = command + " " + strings.Join(args, " ")
	}
	u := c.baseURL + "/command?cmd=" + url.QueryEscape(cmd)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Debug("Command timed out", "command", command)
			return nil, fmt.Errorf("invoke %q: %w", command, ErrTimeout)
		}
		c.logger.Error("HTTP request failed", "command", command, "error", err)
		return nil, fmt.Errorf("invoke %q: %w", command, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthRequired
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("invoke %q: HTTP %d", command, resp.StatusCode)
		}
		return nil, fmt.Errorf("invoke %q: decode response: %w", command, err)
	}
	c.logger.Debug("Command completed", "command", command, "status", out.Status)
	return &out, nil
}

// command wraps Invoke and converts an error envelope into *CommandError.
func (c *Client) command(ctx context.Context, verb string, args ...string) (*Response, error) {
	resp, err := c.Invoke(ctx, verb, args)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return resp, &CommandError{Command: verb, Message: resp.Message}
	}
	return resp, nil
}

// Alive checks that the supervisor daemon is running and responding.
func (c *Client) Alive(ctx context.Context) error {
	_, err := c.command(ctx, "alive")
	return err
}

// Status fetches the full snapshot of supervised processes.
func (c *Client) Status(ctx context.Context) (Snapshot, error) {
	resp, err := c.command(ctx, "status")
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
	}
	return snap, nil
}

// Detail fetches the raw status record of a single process. The result is a
// read-only view and is never written back into any shared state.
func (c *Client) Detail(ctx context.Context, name string) (json.RawMessage, error) {
	resp, err := c.command(ctx, "detail", name)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Command issues a lifecycle action (start, stop, restart) for one process.
func (c *Client) Command(ctx context.Context, action, name string) error {
	_, err := c.command(ctx, action, name)
	return err
}

// Start starts a process by name.
func (c *Client) Start(ctx context.Context, name string) error {
	return c.Command(ctx, "start", name)
}

// Stop stops a process by name.
func (c *Client) Stop(ctx context.Context, name string) error {
	return c.Command(ctx, "stop", name)
}

// Restart restarts a process by name.
func (c *Client) Restart(ctx context.Context, name string) error {
	return c.Command(ctx, "restart", name)
}

// Reload asks the supervisor to reload its configuration.
func (c *Client) Reload(ctx context.Context) error {
	_, err := c.command(ctx, "reload")
	return err
}

// Version returns the supervisor version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.command(ctx, "version")
	if err != nil {
		return "", err
	}
	var v string
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &v); err == nil {
			return v, nil
		}
	}
	return resp.Message, nil
}

// DaemonPID returns the PID of the supervisor daemon itself.
func (c *Client) DaemonPID(ctx context.Context) (int, error) {
	resp, err := c.command(ctx, "pid")
	if err != nil {
		return 0, err
	}
	var pid int
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &pid); err == nil {
			return pid, nil
		}
	}
	if resp.Message != "" {
		if pid, err := strconv.Atoi(strings.TrimSpace(resp.Message)); err == nil {
			return pid, nil
		}
	}
	return 0, fmt.Errorf("pid: unparsable response")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// setupClientTLS configures TLS settings for HTTP client
func setupClientTLS(config Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if config.Insecure {
		tlsConfig.InsecureSkipVerify = true
		return tlsConfig, nil
	}

	if config.TLS != nil {
		if config.TLS.SkipVerify {
			tlsConfig.InsecureSkipVerify = true
		}
		if config.TLS.ServerName != "" {
			tlsConfig.ServerName = config.TLS.ServerName
		}
		if config.TLS.CACert != "" {
			if err := loadCACert(tlsConfig, config.TLS.CACert); err != nil {
				return nil, fmt.Errorf("failed to load CA certificate: %w", err)
			}
		}
		if config.TLS.ClientCert != "" && config.TLS.ClientKey != "" {
			cert, err := tls.LoadX509KeyPair(config.TLS.ClientCert, config.TLS.ClientKey)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	return tlsConfig, nil
}

// loadCACert loads CA certificate from file and adds it to TLS config
func loadCACert(tlsConfig *tls.Config, caCertPath string) error {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate")
	}

	tlsConfig.RootCAs = caCertPool
	return nil
}
