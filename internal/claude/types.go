package claude

import "time"

// UsageResponse mirrors the Anthropic OAuth usage endpoint. Windows
// the account doesn't have come back as null.
type UsageResponse struct {
	FiveHour     *WindowUsage `json:"five_hour"`
	SevenDay     *WindowUsage `json:"seven_day"`
	SevenDayOpus *WindowUsage `json:"seven_day_opus"`
	ExtraUsage   *ExtraUsage  `json:"extra_usage"`
}

type WindowUsage struct {
	Utilization float64    `json:"utilization"` // 0.0–100.0
	ResetsAt    *time.Time `json:"resets_at"`
}

// ExtraUsage is the pay-per-use overflow block. Amounts are in cents.
type ExtraUsage struct {
	IsEnabled    bool    `json:"is_enabled"`
	MonthlyLimit float64 `json:"monthly_limit"`
	UsedCredits  float64 `json:"used_credits"`
	Utilization  float64 `json:"utilization"`
}

// Credentials is the JSON payload Claude Code stores in the macOS
// Keychain and in ~/.claude/.credentials.json on Linux.
type Credentials struct {
	ClaudeAiOauth struct {
		AccessToken      string   `json:"accessToken"`
		RefreshToken     string   `json:"refreshToken"`
		ExpiresAt        int64    `json:"expiresAt"`
		Scopes           []string `json:"scopes"`
		SubscriptionType string   `json:"subscriptionType"`
	} `json:"claudeAiOauth"`

	tokenOnly string // set when the token came from the env var or a raw keychain value
}

func (c *Credentials) AccessToken() string {
	if c.tokenOnly != "" {
		return c.tokenOnly
	}
	return c.ClaudeAiOauth.AccessToken
}

func (c *Credentials) SubscriptionType() string {
	return c.ClaudeAiOauth.SubscriptionType
}
