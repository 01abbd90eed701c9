package claude

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/tau/usage-live/internal/usage"
)

const (
	keychainService = "Claude Code-credentials"
	keychainTimeout = 30 * time.Second
)

const signInHint = `no Claude Code credentials — run "claude" and sign in first`

// ReadCredentials finds the Claude Code OAuth token. Order:
//  1. CLAUDE_CODE_OAUTH_TOKEN env var (raw access token)
//  2. macOS Keychain (security find-generic-password)
//  3. ~/.claude/.credentials.json
func ReadCredentials() (*Credentials, error) {
	if tok := os.Getenv("CLAUDE_CODE_OAUTH_TOKEN"); tok != "" {
		return &Credentials{tokenOnly: tok}, nil
	}

	if runtime.GOOS == "darwin" {
		if creds, err := readKeychain(); err == nil {
			return creds, nil
		}
	}

	return readCredentialsFile()
}

func readKeychain() (*Credentials, error) {
	securityPath := "/usr/bin/security"
	if _, err := os.Stat(securityPath); err != nil {
		if lp, lookErr := exec.LookPath("security"); lookErr == nil && filepath.IsAbs(lp) {
			securityPath = lp
		}
	}

	// The keychain can block on a user permission prompt.
	ctx, cancel := context.WithTimeout(context.Background(), keychainTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, securityPath, "find-generic-password",
		"-s", keychainService, "-w").Output()
	if err != nil {
		return nil, usage.E(usage.KindCredentialMissing, signInHint, err)
	}
	return parseCredentials([]byte(strings.TrimSpace(string(out))))
}

func readCredentialsFile() (*Credentials, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, usage.E(usage.KindCredentialMissing, signInHint, err)
	}
	data, err := os.ReadFile(filepath.Join(home, ".claude", ".credentials.json"))
	if err != nil {
		return nil, usage.E(usage.KindCredentialMissing, signInHint, err)
	}
	return parseCredentials(data)
}

// parseCredentials accepts either the JSON credentials payload or a
// raw token string (some setups store the bare token).
func parseCredentials(data []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		raw := strings.TrimSpace(string(data))
		if raw != "" && !strings.HasPrefix(raw, "{") {
			return &Credentials{tokenOnly: raw}, nil
		}
		return nil, usage.E(usage.KindMalformed, "Claude Code credentials are not valid JSON — sign in to \"claude\" again", err)
	}
	if creds.AccessToken() == "" {
		return nil, usage.E(usage.KindCredentialMissing, signInHint, nil)
	}
	return &creds, nil
}
