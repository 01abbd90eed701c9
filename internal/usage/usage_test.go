package usage_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tau/usage-live/internal/usage"
)

func TestViewToggle(t *testing.T) {
	v := usage.ViewClaude
	if v.Next() != usage.ViewCursor {
		t.Errorf("next from claude: got %v", v.Next())
	}
	if v.Next().Next() != usage.ViewClaude {
		t.Error("toggling twice should return to claude")
	}
	if usage.ViewCursor.Prev() != usage.ViewClaude {
		t.Error("prev from cursor should be claude")
	}
}

func TestClampPercent(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{62, 62},
		{-5, 0},
		{150, 100},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := usage.ClampPercent(c.in); got != c.want {
			t.Errorf("ClampPercent(%v): got %v want %v", c.in, got, c.want)
		}
	}
}

func TestFormatReset(t *testing.T) {
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		resetsAt time.Time
		want     string
	}{
		{"zero", time.Time{}, ""},
		{"past", now.Add(-time.Minute), "resetting..."},
		{"minutes", now.Add(42 * time.Minute), "resets in 42m"},
		{"rounds up", now.Add(90 * time.Second), "resets in 2m"},
		{"hours", now.Add(3*time.Hour + 20*time.Minute), "resets in 3h 20m"},
	}
	for _, c := range cases {
		if got := usage.FormatReset(c.resetsAt, now); got != c.want {
			t.Errorf("%s: got %q want %q", c.name, got, c.want)
		}
	}

	// Beyond a day the absolute date is shown; the exact string depends
	// on the local zone, so just check the prefix.
	got := usage.FormatReset(now.Add(72*time.Hour), now)
	if len(got) < len("resets ") || got[:7] != "resets " {
		t.Errorf("days: got %q", got)
	}
}

func TestKindOf(t *testing.T) {
	err := usage.E(usage.KindAuthExpired, "token expired", nil)
	if usage.KindOf(err) != usage.KindAuthExpired {
		t.Error("classified error lost its kind")
	}

	wrapped := usage.E(usage.KindCredentialMissing, "no creds", errors.New("keychain: exit 44"))
	if usage.KindOf(wrapped) != usage.KindCredentialMissing {
		t.Error("wrapped error lost its kind")
	}

	if usage.KindOf(errors.New("dial tcp: timeout")) != usage.KindNetwork {
		t.Error("plain errors should default to network")
	}
}

func TestHint(t *testing.T) {
	err := usage.E(usage.KindCredentialMissing, "open Cursor and sign in", errors.New("stat: no such file"))
	if got := usage.Hint(err); got != "open Cursor and sign in" {
		t.Errorf("got %q", got)
	}
	if got := usage.Hint(errors.New("boom")); got != "boom" {
		t.Errorf("plain error: got %q", got)
	}
}
