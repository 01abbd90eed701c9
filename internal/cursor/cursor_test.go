package cursor

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tau/usage-live/internal/usage"
)

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSessionFromToken(t *testing.T) {
	token := signedToken(t, "auth0|user_01TEST")
	sess, err := sessionFromToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID != "user_01TEST" {
		t.Errorf("user id: got %q", sess.UserID)
	}
	if want := "user_01TEST%3A%3A" + token; sess.Cookie != want {
		t.Errorf("cookie: got %q want %q", sess.Cookie, want)
	}
}

func TestSessionFromToken_bareSubject(t *testing.T) {
	sess, err := sessionFromToken(signedToken(t, "user_02BARE"))
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID != "user_02BARE" {
		t.Errorf("got %q", sess.UserID)
	}
}

func TestSessionFromToken_garbage(t *testing.T) {
	_, err := sessionFromToken("not-a-jwt")
	if err == nil {
		t.Fatal("expected error")
	}
	if usage.KindOf(err) != usage.KindMalformed {
		t.Errorf("kind: got %v", usage.KindOf(err))
	}
}

// writeStateDB builds a minimal state.vscdb with the given token, or
// an empty ItemTable when token is "".
func writeStateDB(t *testing.T, token string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.vscdb")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE ItemTable (key TEXT PRIMARY KEY, value BLOB)`); err != nil {
		t.Fatal(err)
	}
	if token != "" {
		if _, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES ('cursorAuth/accessToken', ?)`, token); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReadSession(t *testing.T) {
	token := signedToken(t, "auth0|user_03DB")
	path := writeStateDB(t, token)

	sess, err := ReadSession(path)
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID != "user_03DB" {
		t.Errorf("user id: got %q", sess.UserID)
	}
}

func TestReadSession_noToken(t *testing.T) {
	path := writeStateDB(t, "")
	_, err := ReadSession(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if usage.KindOf(err) != usage.KindCredentialMissing {
		t.Errorf("kind: got %v", usage.KindOf(err))
	}
}

func TestReadSession_missingFile(t *testing.T) {
	_, err := ReadSession(filepath.Join(t.TempDir(), "absent.vscdb"))
	if usage.KindOf(err) != usage.KindCredentialMissing {
		t.Errorf("kind: got %v", usage.KindOf(err))
	}
}

func TestNormalize(t *testing.T) {
	rec, err := normalize([]byte(`{
		"gpt-4": {"numRequests": 387, "numRequestsTotal": 412, "numTokens": 1820344, "maxRequestUsage": 500},
		"gpt-3.5-turbo": {"numRequests": 25, "numTokens": 50000},
		"startOfMonth": "2026-02-01T00:00:00.000Z"
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Windows) != 1 || rec.Windows[0].Label != "Premium" {
		t.Fatalf("windows: got %+v", rec.Windows)
	}
	if got := rec.Windows[0].PercentUsed; got < 77.3 || got > 77.5 {
		t.Errorf("percent: got %v want ~77.4", got)
	}
	if rec.Period != "since Feb 1" {
		t.Errorf("period: got %q", rec.Period)
	}
	if len(rec.Models) != 2 || rec.Models[0].Model != "gpt-4" {
		t.Errorf("models: got %+v", rec.Models)
	}
}

func TestNormalize_defaultLimit(t *testing.T) {
	rec, err := normalize([]byte(`{"gpt-4": {"numRequests": 250}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Windows[0].PercentUsed; got != 50 {
		t.Errorf("percent with default limit 500: got %v", got)
	}
}

func TestNormalize_zeroLimit(t *testing.T) {
	rec, err := normalize([]byte(`{"gpt-4": {"numRequests": 10, "maxRequestUsage": 0}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Windows[0].PercentUsed; got != 0 {
		t.Errorf("zero limit must not divide: got %v", got)
	}
}

func TestNormalize_garbage(t *testing.T) {
	_, err := normalize([]byte(`<html>gateway error</html>`))
	if err == nil {
		t.Fatal("expected error")
	}
	if usage.KindOf(err) != usage.KindMalformed {
		t.Errorf("kind: got %v", usage.KindOf(err))
	}
}

func TestFetch(t *testing.T) {
	token := signedToken(t, "auth0|user_04HTTP")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user"); got != "user_04HTTP" {
			t.Errorf("user param: got %q", got)
		}
		cookie := r.Header.Get("Cookie")
		if !strings.HasPrefix(cookie, "WorkosCursorSessionToken=user_04HTTP%3A%3A") {
			t.Errorf("cookie: got %q", cookie)
		}
		w.Write([]byte(`{"gpt-4": {"numRequests": 100, "maxRequestUsage": 500}, "startOfMonth": "2026-02-01T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	c := NewClient()
	c.BaseURL = srv.URL
	c.session = &Session{UserID: "user_04HTTP", Cookie: "user_04HTTP%3A%3A" + token}

	rec, err := c.Fetch()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Windows[0].PercentUsed != 20 {
		t.Errorf("percent: got %v", rec.Windows[0].PercentUsed)
	}
}

func TestFetch_expiredSessionDropsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient()
	c.BaseURL = srv.URL
	c.session = &Session{UserID: "u", Cookie: "u%3A%3At"}

	_, err := c.Fetch()
	if usage.KindOf(err) != usage.KindAuthExpired {
		t.Errorf("kind: got %v", usage.KindOf(err))
	}
	if c.session != nil {
		t.Error("cached session should be dropped on 401")
	}
}
