package cursor

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	_ "modernc.org/sqlite"

	"github.com/tau/usage-live/internal/usage"
)

const openCursorHint = "no Cursor credentials — open Cursor, sign in, and try again"

// Session is what the Cursor dashboard API needs: the user id for the
// query string and the composed WorkosCursorSessionToken cookie value.
type Session struct {
	UserID string
	Cookie string
}

// DefaultStatePath returns Cursor's state database. Cursor only stores
// it here on macOS, which is why the view is macOS-only.
func DefaultStatePath() (string, error) {
	if runtime.GOOS != "darwin" {
		return "", usage.E(usage.KindPlatformUnsupported, "Cursor view is only available on macOS", nil)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Application Support", "Cursor",
		"User", "globalStorage", "state.vscdb"), nil
}

// ReadSession pulls the access token out of the state database and
// derives the session cookie. The database is opened read-only; this
// tool never writes credentials anywhere.
func ReadSession(dbPath string) (*Session, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, usage.E(usage.KindCredentialMissing, openCursorHint, err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, usage.E(usage.KindCredentialMissing, "can't open Cursor state database", err)
	}
	defer db.Close()

	var token string
	err = db.QueryRow(`SELECT value FROM ItemTable WHERE key = 'cursorAuth/accessToken'`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usage.E(usage.KindCredentialMissing, openCursorHint, nil)
	}
	if err != nil {
		return nil, usage.E(usage.KindCredentialMissing, "can't read Cursor state database", err)
	}

	return sessionFromToken(strings.TrimSpace(token))
}

// sessionFromToken extracts the user id from the access token's sub
// claim and composes the dashboard cookie. The signature is not
// checked; the token was issued to this machine and is only echoed
// back to cursor.com.
func sessionFromToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, usage.E(usage.KindMalformed, "Cursor access token is malformed — sign in to Cursor again", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, usage.E(usage.KindMalformed, "Cursor access token has no subject — sign in to Cursor again", err)
	}

	// sub looks like "auth0|user_01ABC..."; the user id is the part
	// after the provider prefix.
	userID := sub
	if i := strings.IndexByte(sub, '|'); i >= 0 {
		userID = sub[i+1:]
	}

	// The dashboard expects "<user id>::<token>" URL-encoded.
	return &Session{
		UserID: userID,
		Cookie: userID + "%3A%3A" + token,
	}, nil
}
