// Package usage holds the data model shared by the Claude and Cursor
// providers: the cached usage snapshot, the view selector, and the
// error taxonomy the renderer turns into inline hints.
package usage

import (
	"fmt"
	"math"
	"time"
)

// View identifies one of the two dashboards.
type View int

const (
	ViewClaude View = iota
	ViewCursor
)

func (v View) String() string {
	if v == ViewCursor {
		return "Cursor"
	}
	return "Claude Pro"
}

// Next returns the other view. With two views left and right are the
// same toggle; keeping both spellings makes the key handling read well.
func (v View) Next() View {
	if v == ViewClaude {
		return ViewCursor
	}
	return ViewClaude
}

// Prev returns the other view.
func (v View) Prev() View { return v.Next() }

// Window is one rate-limit window within a snapshot (e.g. the 5h
// session window, or Cursor's monthly premium-request pool).
type Window struct {
	Label       string    `json:"label"`
	PercentUsed float64   `json:"percent_used"` // 0–100
	ResetsAt    time.Time `json:"resets_at,omitzero"`
}

// Extra is the pay-per-use overflow block Anthropic reports alongside
// the subscription windows. Amounts are in cents.
type Extra struct {
	Label       string    `json:"label"`
	PercentUsed float64   `json:"percent_used"`
	UsedCents   float64   `json:"used_cents"`
	LimitCents  float64   `json:"limit_cents"`
	ResetsAt    time.Time `json:"resets_at,omitzero"`
}

// ModelRequests is a per-model request count from the Cursor API.
type ModelRequests struct {
	Model    string `json:"model"`
	Requests int64  `json:"requests"`
}

// Record is one fetched usage snapshot for a view. Records are
// immutable: a successful fetch replaces the whole record, a failed
// fetch leaves the previous one in place.
type Record struct {
	Windows   []Window        `json:"windows"`
	Extra     *Extra          `json:"extra,omitempty"`
	Models    []ModelRequests `json:"models,omitempty"`
	Period    string          `json:"period,omitempty"` // period label, e.g. "since Feb 8"
	Plan      string          `json:"plan,omitempty"`   // subscription type when known, e.g. "pro"
	FetchedAt time.Time       `json:"fetched_at"`
}

// ClampPercent bounds a reported utilization to [0,100] and drops NaN.
func ClampPercent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

// FormatReset renders a reset timestamp relative to now, the way the
// windows are shown under each bar.
func FormatReset(resetsAt, now time.Time) string {
	if resetsAt.IsZero() {
		return ""
	}
	until := resetsAt.Sub(now)
	if until <= 0 {
		return "resetting..."
	}
	if until < time.Hour {
		return fmt.Sprintf("resets in %dm", int(math.Ceil(until.Minutes())))
	}
	if until < 24*time.Hour {
		h := int(until.Hours())
		m := int(until.Minutes()) % 60
		return fmt.Sprintf("resets in %dh %dm", h, m)
	}
	return "resets " + resetsAt.Local().Format("Mon Jan 2")
}
