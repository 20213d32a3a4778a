package wcl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/naptholomew/tempest-attendance/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the combat-log service. It wraps an OAuth2
// client-credentials http.Client with a token-bucket rate limiter and a
// circuit breaker, so a misbehaving upstream cannot be hammered.
//
// The oauth2 TokenSource owns the credential cache: tokens are acquired on
// first use and refreshed before expiry, with no process-global state.
type Client struct {
	base   string
	client *http.Client

	// token-bucket
	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time

	// circuit-breaker
	mu          sync.Mutex
	failures    int
	openedUntil time.Time

	breakerThreshold int
	breakerCooldown  time.Duration
}

// Opts is the set of options for a new Client.
type Opts struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	Timeout         time.Duration
	RPS             int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration

	// HTTPClient overrides the OAuth2 transport entirely; used by tests.
	HTTPClient *http.Client
}

// NewWithOpts creates a new Client with the given options.
func NewWithOpts(ctx context.Context, o Opts) *Client {
	if o.RPS <= 0 {
		o.RPS = 10
	}
	if o.Burst <= 0 {
		o.Burst = 20
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 10 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		cc := clientcredentials.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			TokenURL:     o.TokenURL,
		}
		client = cc.Client(ctx)
		client.Timeout = o.Timeout
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	c := &Client{
		base:             o.BaseURL,
		client:           client,
		maxTokens:        int64(o.Burst),
		refillEvery:      time.Second / time.Duration(o.RPS),
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
	}
	c.tokens = c.maxTokens
	c.lastRefill.Store(time.Now())
	return c
}

// refill refills the token-bucket with new tokens if necessary.
func (c *Client) refill() {
	last := c.lastRefill.Load().(time.Time)
	now := time.Now()
	if now.Sub(last) >= c.refillEvery {
		if atomic.LoadInt64(&c.tokens) < c.maxTokens {
			atomic.AddInt64(&c.tokens, 1)
		}
		c.lastRefill.Store(now)
	}
}

// acquire acquires a token from the token-bucket, blocking if necessary.
func (c *Client) acquire() {
	for {
		c.refill()
		if atomic.LoadInt64(&c.tokens) > 0 {
			atomic.AddInt64(&c.tokens, -1)
			return
		}
		time.Sleep(c.refillEvery / 2)
	}
}

// isOpen returns true while the breaker is in the OPEN state.
func (c *Client) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openedUntil.IsZero() {
		return false
	}
	if time.Now().After(c.openedUntil) {
		c.openedUntil = time.Time{}
		c.failures = 0
		return false
	}
	return true
}

// noteFailure opens the breaker once the failure count exceeds the threshold.
func (c *Client) noteFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.breakerThreshold {
		c.openedUntil = time.Now().Add(c.breakerCooldown)
	}
}

func (c *Client) noteSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
}

// getJSON issues a GET against the service and decodes the JSON response into
// out. Token-exchange failures surface as ErrUpstreamAuth, everything else
// as ErrUpstreamQuery.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.base == "" {
		return fmt.Errorf("%w: no endpoint configured", ErrUpstreamQuery)
	}
	if c.isOpen() {
		return fmt.Errorf("%w: circuit open", ErrUpstreamQuery)
	}

	c.acquire()

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamQuery, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.noteFailure()
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
		}
		return fmt.Errorf("%w: %v", ErrUpstreamQuery, err)
	}

	// From here on, always drain+close the body before returning.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_ = utils.DrainAndClose(resp.Body)
		c.noteFailure()
		return fmt.Errorf("%w: http %d", ErrUpstreamAuth, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		_ = utils.DrainAndClose(resp.Body)
		c.noteFailure()
		return fmt.Errorf("%w: http %d", ErrUpstreamQuery, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			_ = utils.DrainAndClose(resp.Body)
			c.noteFailure()
			return fmt.Errorf("%w: decode: %v", ErrUpstreamQuery, err)
		}
	}

	if cerr := utils.DrainAndClose(resp.Body); cerr != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamQuery, cerr)
	}
	c.noteSuccess()
	return nil
}
