package proxmox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/imamik/proxcli/internal/util/retry"
)

// envelope is the wrapper of every Proxmox API response.
type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message"`
}

func (c *RealClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

// mutate sends a write request, retrying while the VM config is locked by
// another task.
func (c *RealClient) mutate(ctx context.Context, method, path string, params url.Values, out any) error {
	return retry.WithExponentialBackoff(ctx, func() error {
		err := c.do(ctx, method, path, params, out)
		if err != nil && !isResourceLocked(err) {
			return retry.Fatal(err)
		}
		return err
	},
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay),
		retry.WithOnRetry(func(attempt int, err error, _ time.Duration) {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("Resource locked, retrying")
		}),
	)
}

func (c *RealClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	if err := c.connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	base, ticket, csrf := c.baseURL, c.ticket, c.csrf
	c.mu.Unlock()

	target := base + path
	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	if c.cfg.UsesToken() {
		req.Header.Set("Authorization", fmt.Sprintf("PVEAPIToken=%s!%s=%s", c.cfg.User, c.cfg.TokenID, c.cfg.TokenSecret))
	} else {
		req.AddCookie(&http.Cookie{Name: "PVEAuthCookie", Value: ticket})
		if method != http.MethodGet {
			req.Header.Set("CSRFPreventionToken", csrf)
		}
	}

	c.logger.Trace().Str("method", method).Str("path", path).Msg("Proxmox request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	var env envelope
	_ = json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
		if env.Message != "" {
			msg = strings.TrimSpace(env.Message)
		}
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Errors:     env.Errors,
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

// login obtains an authentication ticket. Callers hold c.mu.
func (c *RealClient) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.cfg.User)
	form.Set("password", c.cfg.Password)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/access/ticket", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: http.MethodPost, Path: "/access/ticket", StatusCode: resp.StatusCode, Message: "authentication failed"}
	}

	var env struct {
		Data struct {
			Ticket string `json:"ticket"`
			CSRF   string `json:"CSRFPreventionToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode ticket: %w", err)
	}
	if env.Data.Ticket == "" {
		return fmt.Errorf("failed to authenticate: empty ticket")
	}
	c.ticket, c.csrf = env.Data.Ticket, env.Data.CSRF
	return nil
}
