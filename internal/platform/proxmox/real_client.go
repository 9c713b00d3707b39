package proxmox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/log"
)

// probeTimeout bounds the reachability check of each configured host.
const probeTimeout = time.Second

// RealClient implements ClusterClient using the Proxmox VE REST API.
type RealClient struct {
	cfg      *config.ClientConfig
	timeouts *config.Timeouts
	logger   zerolog.Logger

	http      *retryablehttp.Client
	transport http.RoundTripper

	mu      sync.Mutex
	baseURL string
	ticket  string
	csrf    string
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithBaseURL pins the API endpoint (e.g. "https://pve1:8006/api2/json"),
// skipping host selection.
func WithBaseURL(u string) ClientOption {
	return func(c *RealClient) {
		c.baseURL = u
	}
}

// WithTransport sets the HTTP transport (useful for testing).
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *RealClient) {
		c.transport = rt
	}
}

// WithLogger sets the logger used for request and retry messages.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *RealClient) {
		c.logger = l
	}
}

// NewRealClient creates a new RealClient with optional configuration.
// No network traffic happens until the first call.
func NewRealClient(cfg *config.ClientConfig, opts ...ClientOption) *RealClient {
	c := &RealClient{
		cfg:      cfg,
		timeouts: config.LoadTimeouts(),
		logger:   log.WithComponent("proxmox"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConnsPerHost: 4,
			// #nosec G402 -- opt-in for self-signed cluster certificates
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureTLS},
		}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: c.transport, Timeout: c.timeouts.HTTP}
	rc.RetryMax = c.timeouts.RetryMaxAttempts
	rc.RetryWaitMin = c.timeouts.RetryInitialDelay
	rc.RetryWaitMax = 30 * time.Second
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{c.logger}
	c.http = rc

	return c
}

// checkRetry retries connection failures and gateway or rate limit
// responses. Every other status is final.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// Host returns the selected API base URL, connecting first if needed.
func (c *RealClient) Host(ctx context.Context) (string, error) {
	if err := c.connect(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL, nil
}

// connect selects the first reachable host and, for password
// authentication, obtains a ticket. It is a no-op once connected.
func (c *RealClient) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseURL == "" {
		base, err := c.selectHost(ctx)
		if err != nil {
			return err
		}
		c.baseURL = base
		c.logger.Debug().Str("url", base).Msg("Selected proxmox host")
	}

	if c.cfg.UsesToken() || c.ticket != "" {
		return nil
	}
	return c.login(ctx)
}

func (c *RealClient) selectHost(ctx context.Context) (string, error) {
	port := c.cfg.Port
	if port == 0 {
		port = config.DefaultAPIPort
	}
	probe := &http.Client{Transport: c.transport, Timeout: probeTimeout}

	for _, host := range c.cfg.Hosts {
		base := fmt.Sprintf("https://%s/api2/json", net.JoinHostPort(host, strconv.Itoa(port)))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/version", nil)
		if err != nil {
			return "", err
		}
		resp, err := probe.Do(req)
		if err != nil {
			c.logger.Debug().Err(err).Str("host", host).Msg("Host unreachable")
			continue
		}
		_ = resp.Body.Close()
		return base, nil
	}
	return "", fmt.Errorf("%w (tried %v)", ErrNoReachableHost, c.cfg.Hosts)
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Trace().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Warn().Fields(kv).Msg(msg) }
