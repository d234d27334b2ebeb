package zai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/version"
)

const (
	DefaultBaseURL        = "https://api.z.ai/api/anthropic"
	DefaultRequestTimeout = 30 * time.Second

	modelUsagePath = "/api/monitor/usage/model-usage"
	toolUsagePath  = "/api/monitor/usage/tool-usage"
	quotaLimitPath = "/api/monitor/usage/quota/limit"
)

// ErrMissingToken is returned by New when no credential was supplied.
var ErrMissingToken = errors.New("zai: auth token is empty")

type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration // per sub-request

	// HTTPClient overrides the pooled client; tests point it at httptest servers.
	HTTPClient *http.Client
	Now        func() time.Time
}

// Client fetches model usage, tool usage and quota limits from the monitor API.
type Client struct {
	token       string
	monitorBase string
	platform    core.Platform
	timeout     time.Duration
	http        *http.Client
	now         func() time.Time
}

func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrMissingToken
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	monitorBase, err := baseDomain(base)
	if err != nil {
		return nil, err
	}

	c := &Client{
		token:       token,
		monitorBase: monitorBase,
		platform:    DetectPlatform(base),
		timeout:     cfg.Timeout,
		http:        cfg.HTTPClient,
		now:         cfg.Now,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.http == nil {
		c.http = &http.Client{Transport: newTransport()}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxConnsPerHost = 10
	t.MaxIdleConnsPerHost = 5
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = DefaultRequestTimeout
	return t
}

// DetectPlatform maps an endpoint host to a backend identity. Unknown hosts
// are treated as Z.AI.
func DetectPlatform(baseURL string) core.Platform {
	host := strings.ToLower(baseURL)
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		host = strings.ToLower(parsed.Host)
	}
	switch {
	case strings.Contains(host, "api.z.ai"):
		return core.PlatformZAI
	case strings.Contains(host, "bigmodel.cn"):
		return core.PlatformZhipu
	default:
		return core.PlatformZAI
	}
}

func (c *Client) Platform() core.Platform { return c.platform }

// FetchUsage issues the three monitor requests concurrently and assembles a
// snapshot. The first failing request aborts the call.
func (c *Client) FetchUsage(ctx context.Context) (core.UsageSnapshot, error) {
	window := core.DailyWindow(c.now())

	var modelUsage, toolUsage, quota core.Payload
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		modelUsage, err = c.get(gctx, modelUsagePath, &window)
		return err
	})
	g.Go(func() error {
		var err error
		toolUsage, err = c.get(gctx, toolUsagePath, &window)
		return err
	})
	g.Go(func() error {
		var err error
		quota, err = c.get(gctx, quotaLimitPath, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.UsageSnapshot{}, err
	}

	return core.UsageSnapshot{
		Platform:   c.platform,
		ModelUsage: modelUsage,
		ToolUsage:  toolUsage,
		QuotaLimit: NormalizeQuotaLimit(quota),
		Timestamp:  time.UnixMilli(c.now().UnixMilli()),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, window *core.TimeWindow) (core.Payload, error) {
	reqURL := joinURL(c.monitorBase, endpoint)
	if window != nil {
		withRange, err := applyUsageRange(reqURL, *window)
		if err != nil {
			return core.Payload{}, fmt.Errorf("zai: building usage range: %w", err)
		}
		reqURL = withRange
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return core.Payload{}, fmt.Errorf("zai: creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept-Language", acceptLanguage(c.platform))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "glmusage/"+version.Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Payload{}, transportError(endpoint, err, c.timeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Payload{}, transportError(endpoint, err, c.timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Payload{}, statusError(endpoint, resp.StatusCode, body)
	}
	return core.ParsePayload(body), nil
}

func acceptLanguage(p core.Platform) string {
	if p == core.PlatformZhipu {
		return "zh-CN,zh;q=0.9"
	}
	return "en-US,en"
}

func baseDomain(base string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("zai: parsing base URL %q: %w", base, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("zai: base URL %q must include scheme and host", base)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

func applyUsageRange(reqURL string, window core.TimeWindow) (string, error) {
	parsed, err := url.Parse(reqURL)
	if err != nil {
		return "", err
	}
	start, end := window.Params()
	q := parsed.Query()
	q.Set("startTime", start)
	q.Set("endTime", end)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func joinURL(base, endpoint string) string {
	trimmedBase := strings.TrimRight(base, "/")
	trimmedEndpoint := strings.TrimLeft(endpoint, "/")
	return trimmedBase + "/" + trimmedEndpoint
}
