// Package claude reads the Claude Code OAuth credentials and fetches
// subscription usage from the Anthropic OAuth usage endpoint.
package claude

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tau/usage-live/internal/usage"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	usagePath      = "/api/oauth/usage"
	userAgent      = "claude-code/2.0.32"
	betaHeader     = "oauth-2025-04-20"

	maxResponseBytes = 1 << 20 // 1 MiB
)

// Client fetches Claude usage. Credentials are read lazily on the
// first fetch and cached; an auth failure drops the cache so the next
// poll re-reads the keychain.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	creds *Credentials
}

func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the current usage snapshot.
func (c *Client) Fetch() (*usage.Record, error) {
	if c.creds == nil {
		creds, err := ReadCredentials()
		if err != nil {
			return nil, err
		}
		c.creds = creds
	}

	resp, err := c.fetchUsage(c.creds.AccessToken())
	if err != nil {
		if usage.KindOf(err) == usage.KindAuthExpired || usage.KindOf(err) == usage.KindScopeInsufficient {
			c.creds = nil
		}
		return nil, err
	}
	return c.toRecord(resp), nil
}

func (c *Client) fetchUsage(token string) (*UsageResponse, error) {
	req, err := http.NewRequest("GET", c.BaseURL+usagePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("anthropic-beta", betaHeader)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, usage.E(usage.KindNetwork, "can't reach api.anthropic.com", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, usage.E(usage.KindNetwork, "failed to read response", err)
	}
	if len(body) > maxResponseBytes {
		return nil, usage.E(usage.KindMalformed, "API response too large", nil)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, usage.E(usage.KindAuthExpired, "token expired — re-login to Claude Code", nil)
	case http.StatusForbidden:
		return nil, usage.E(usage.KindScopeInsufficient, "token lacks the usage scope — re-login to Claude Code", nil)
	default:
		return nil, usage.E(usage.KindNetwork, fmt.Sprintf("API error (HTTP %d)", resp.StatusCode), nil)
	}

	var ur UsageResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return nil, usage.E(usage.KindMalformed, "failed to parse usage response", err)
	}
	return &ur, nil
}

func (c *Client) toRecord(resp *UsageResponse) *usage.Record {
	rec := &usage.Record{
		Plan:      c.creds.SubscriptionType(),
		FetchedAt: time.Now(),
	}
	add := func(label string, w *WindowUsage) {
		if w == nil {
			return
		}
		win := usage.Window{Label: label, PercentUsed: usage.ClampPercent(w.Utilization)}
		if w.ResetsAt != nil {
			win.ResetsAt = *w.ResetsAt
		}
		rec.Windows = append(rec.Windows, win)
	}
	add("Session (5h)", resp.FiveHour)
	add("Weekly (7d)", resp.SevenDay)
	add("Opus (7d)", resp.SevenDayOpus)

	if e := resp.ExtraUsage; e != nil && e.IsEnabled {
		rec.Extra = &usage.Extra{
			Label:       "Extra",
			PercentUsed: usage.ClampPercent(e.Utilization),
			UsedCents:   e.UsedCredits,
			LimitCents:  e.MonthlyLimit,
		}
	}
	return rec
}
