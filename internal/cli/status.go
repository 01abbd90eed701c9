// Package cli implements the one-shot status command: fetch both
// views once and print them, for shell prompts and scripts.
package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tau/usage-live/internal/usage"
)

const barWidth = 20

// Fetcher matches the provider clients.
type Fetcher interface {
	Fetch() (*usage.Record, error)
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "now"
	}
	d = d.Round(time.Minute)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func color(pct float64) string {
	switch {
	case pct >= 80:
		return "\033[31m" // red
	case pct >= 60:
		return "\033[33m" // yellow
	default:
		return "\033[32m" // green
	}
}

const reset = "\033[0m"

func bar(pct float64) string {
	filled := int(math.Round(pct / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func printColor(name string, rec *usage.Record) {
	prefix := fmt.Sprintf("%-10s", name)
	for _, w := range rec.Windows {
		pct := w.PercentUsed
		line := fmt.Sprintf("%s %-8s %s%s%s %3.0f%%", prefix, w.Label, color(pct), bar(pct), reset, pct)
		if !w.ResetsAt.IsZero() {
			line += "  resets " + formatDuration(time.Until(w.ResetsAt))
		}
		fmt.Println(line)
		prefix = strings.Repeat(" ", 10)
	}
}

func printPlain(name string, rec *usage.Record) {
	parts := make([]string, 0, len(rec.Windows))
	for _, w := range rec.Windows {
		p := fmt.Sprintf("%s: %.0f%%", w.Label, w.PercentUsed)
		if !w.ResetsAt.IsZero() {
			p += fmt.Sprintf(" (resets %s)", formatDuration(time.Until(w.ResetsAt)))
		}
		parts = append(parts, p)
	}
	fmt.Printf("%s  %s\n", name, strings.Join(parts, "  "))
}

type jsonView struct {
	Record *usage.Record `json:"record,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Status fetches every named view and prints the results. Exit code 0
// when every fetch succeeded, 2 when credentials were the problem,
// 1 otherwise.
func Status(views map[string]Fetcher, jsonMode, plainMode bool) int {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	// Claude first, matching the TUI's view order.
	for i, n := range names {
		if n == "claude" && i != 0 {
			names[0], names[i] = names[i], names[0]
		}
	}

	code := 0
	out := make(map[string]jsonView, len(views))
	for _, name := range names {
		rec, err := views[name].Fetch()
		if err != nil {
			switch usage.KindOf(err) {
			case usage.KindCredentialMissing, usage.KindScopeInsufficient, usage.KindAuthExpired:
				code = 2
			default:
				if code == 0 {
					code = 1
				}
			}
			if jsonMode {
				out[name] = jsonView{Error: usage.Hint(err)}
			} else {
				fmt.Fprintf(os.Stderr, "usage-live: %s: %s\n", name, usage.Hint(err))
			}
			continue
		}
		if jsonMode {
			out[name] = jsonView{Record: rec}
		} else if plainMode || !isTTY() {
			printPlain(name, rec)
		} else {
			printColor(name, rec)
		}
	}

	if jsonMode {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	}
	return code
}
