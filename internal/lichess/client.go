package lichess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/valyala/fasthttp"
)

// ErrRateLimited is returned when the server answers 429; callers back off
// longer before retrying.
var ErrRateLimited = errors.New("lichess: rate limited")

const usernameCacheKey = "username"

type Client struct {
	baseURL string
	token   string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	accountCache   gcache.Cache
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 8},
		defaultTimeout: 5 * time.Second,
		accountCache:   gcache.New(4).LRU().Expiration(10 * time.Minute).Build(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ongoing returns the user's currently running games, newest first as the
// server orders them.
func (c *Client) Ongoing(ctx context.Context) ([]Snapshot, error) {
	var body struct {
		NowPlaying []map[string]any `json:"nowPlaying"`
	}
	if err := c.getJSON(ctx, "/api/account/playing", &body); err != nil {
		return nil, err
	}
	snaps := make([]Snapshot, 0, len(body.NowPlaying))
	for _, raw := range body.NowPlaying {
		snaps = append(snaps, NewSnapshot(raw))
	}
	return snaps, nil
}

// Username returns the token owner's username, lowercased. Cached so the
// polling loop does not hit the account endpoint every tick.
func (c *Client) Username(ctx context.Context) (string, error) {
	if v, err := c.accountCache.Get(usernameCacheKey); err == nil {
		return v.(string), nil
	}
	var account struct {
		Username string `json:"username"`
	}
	if err := c.getJSON(ctx, "/api/account", &account); err != nil {
		return "", err
	}
	name := strings.ToLower(strings.TrimSpace(account.Username))
	if name == "" {
		return "", fmt.Errorf("account response carried no username")
	}
	_ = c.accountCache.Set(usernameCacheKey, name)
	return name, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	timeout := c.defaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	if timeout <= 0 {
		return ctx.Err()
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusTooManyRequests:
		return ErrRateLimited
	case code != fasthttp.StatusOK:
		return fmt.Errorf("GET %s: status %d", path, code)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
