// Package cursor reads the Cursor session token from the editor's
// local state database and fetches premium-request usage from the
// cursor.com dashboard API.
package cursor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/tau/usage-live/internal/usage"
)

const (
	defaultBaseURL = "https://cursor.com"
	usagePath      = "/api/usage"
	browserUA      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	// The API omits maxRequestUsage on some plans; 500 is the
	// documented premium-request allowance they all share.
	defaultRequestLimit = 500

	maxResponseBytes = 1 << 20
)

// modelUsage is the per-model block in the usage response.
type modelUsage struct {
	NumRequests     int64  `json:"numRequests"`
	NumTokens       int64  `json:"numTokens"`
	MaxRequestUsage *int64 `json:"maxRequestUsage"`
}

// Client fetches Cursor usage. The session is read lazily from the
// state database on the first fetch and cached; an auth failure drops
// the cache so the next poll re-reads it.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	StatePath string // state.vscdb location; empty = platform default

	session *Session
}

func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the current premium-request snapshot.
func (c *Client) Fetch() (*usage.Record, error) {
	if c.session == nil {
		path := c.StatePath
		if path == "" {
			var err error
			path, err = DefaultStatePath()
			if err != nil {
				return nil, err
			}
		}
		sess, err := ReadSession(path)
		if err != nil {
			return nil, err
		}
		c.session = sess
	}

	rec, err := c.fetchUsage(c.session)
	if err != nil {
		if usage.KindOf(err) == usage.KindAuthExpired {
			c.session = nil
		}
		return nil, err
	}
	return rec, nil
}

func (c *Client) fetchUsage(sess *Session) (*usage.Record, error) {
	req, err := http.NewRequest("GET", c.BaseURL+usagePath+"?user="+sess.UserID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", "WorkosCursorSessionToken="+sess.Cookie)
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Referer", "https://cursor.com/dashboard")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, usage.E(usage.KindNetwork, "can't reach cursor.com", err)
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
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, usage.E(usage.KindAuthExpired, "Cursor session expired — sign in to Cursor again", nil)
	default:
		return nil, usage.E(usage.KindNetwork, fmt.Sprintf("API error (HTTP %d)", resp.StatusCode), nil)
	}

	return normalize(body)
}

// normalize maps the dashboard response, a flat object mixing
// per-model blocks with scalar fields, into a Record. The premium bar
// tracks "gpt-4", the bucket Cursor bills premium requests under.
func normalize(body []byte) (*usage.Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, usage.E(usage.KindMalformed, "failed to parse usage response", err)
	}

	var premium modelUsage
	if blob, ok := raw["gpt-4"]; ok {
		if err := json.Unmarshal(blob, &premium); err != nil {
			return nil, usage.E(usage.KindMalformed, "failed to parse premium usage", err)
		}
	}

	limit := int64(defaultRequestLimit)
	if premium.MaxRequestUsage != nil {
		limit = *premium.MaxRequestUsage
	}
	pct := 0.0
	if limit > 0 {
		pct = 100 * float64(premium.NumRequests) / float64(limit)
	}

	rec := &usage.Record{
		Windows: []usage.Window{{
			Label:       "Premium",
			PercentUsed: usage.ClampPercent(pct),
		}},
		Period:    periodLabel(raw["startOfMonth"]),
		FetchedAt: time.Now(),
	}

	for key, blob := range raw {
		var mu modelUsage
		if err := json.Unmarshal(blob, &mu); err != nil {
			continue // scalar field, not a model block
		}
		if mu.NumRequests == 0 && mu.NumTokens == 0 {
			continue
		}
		rec.Models = append(rec.Models, usage.ModelRequests{Model: key, Requests: mu.NumRequests})
	}
	sort.Slice(rec.Models, func(i, j int) bool {
		if rec.Models[i].Requests != rec.Models[j].Requests {
			return rec.Models[i].Requests > rec.Models[j].Requests
		}
		return rec.Models[i].Model < rec.Models[j].Model
	})

	return rec, nil
}

func periodLabel(blob json.RawMessage) string {
	var start string
	if err := json.Unmarshal(blob, &start); err != nil || start == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		if len(start) >= 10 {
			return "since " + start[:10]
		}
		return ""
	}
	return "since " + t.Format("Jan 2")
}
