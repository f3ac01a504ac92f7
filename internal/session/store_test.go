package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"wastewatch/web/internal/config"
	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/models"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName:      "ww_session",
		CookieSecret:    "test-secret",
		TTL:             time.Hour,
		RevalidateAfter: 5 * time.Minute,
	}
}

func newTestStore(t *testing.T, handler http.Handler) (*Store, *MemoryRecords, *gateway.Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := gateway.New(config.BackendConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
	}, zerolog.Nop())

	records := NewMemoryRecords()
	store := NewStore(records, client, testSessionConfig(), zerolog.Nop())
	client.SetAuthFailureHook(store.EvictOnAuthFailure)
	return store, records, client
}

func loginBackend(t *testing.T, wantPassword string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := jsonDecode(r, &body); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if body.Password != wantPassword {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Invalid credentials or account disabled"}`))
			return
		}
		w.Write([]byte(`{
			"message": "Login successful",
			"user": {"id": "u1", "email": "asha@example.com", "name": "Asha", "is_admin": false},
			"tokens": {"access": "acc-token", "refresh": "ref-token"}
		}`))
	})
	mux.HandleFunc("/health/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy"}`))
	})
	return mux
}

func jsonDecode(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func TestLoginEstablishesAuthenticatedSession(t *testing.T) {
	store, records, _ := newTestStore(t, loginBackend(t, "secret1"))

	current, errMsg := store.Login(context.Background(), "asha@example.com", "secret1")
	if errMsg != "" {
		t.Fatalf("login returned error message: %q", errMsg)
	}
	if current.State != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", current.State)
	}
	if current.Token() != "acc-token" {
		t.Fatalf("token = %q", current.Token())
	}

	persisted, err := records.Get(context.Background(), current.Record.ID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if persisted.Tokens.Access != "acc-token" || persisted.Tokens.Refresh != "ref-token" {
		t.Fatalf("persisted tokens = %+v", persisted.Tokens)
	}
	if persisted.User.Email != "asha@example.com" {
		t.Fatalf("persisted user = %+v", persisted.User)
	}
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	store, records, _ := newTestStore(t, loginBackend(t, "secret1"))

	current, errMsg := store.Login(context.Background(), "asha@example.com", "wrong")
	if errMsg == "" {
		t.Fatal("expected a non-empty error message")
	}
	if current.State != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", current.State)
	}

	if n := len(records.entries); n != 0 {
		t.Fatalf("records persisted on failed login: %d", n)
	}
}

func TestResumeRevalidatesAgainstBackend(t *testing.T) {
	healthCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/health/", func(w http.ResponseWriter, r *http.Request) {
		healthCalls++
		if r.Header.Get("Authorization") != "Bearer stored-token" {
			t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"status": "healthy"}`))
	})
	store, records, _ := newTestStore(t, mux)

	record := models.SessionRecord{
		ID:          "sess1",
		User:        models.User{ID: "u1", Name: "Asha"},
		Tokens:      models.TokenPair{Access: "stored-token", Refresh: "r"},
		ValidatedAt: time.Now().Add(-time.Hour), // stale, forces the probe
	}
	if err := records.Put(context.Background(), record, time.Hour); err != nil {
		t.Fatal(err)
	}

	current := store.Resume(context.Background(), "sess1")
	if current.State != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", current.State)
	}
	if current.User().Name != "Asha" {
		t.Fatalf("cached user not restored: %+v", current.User())
	}
	if healthCalls != 1 {
		t.Fatalf("health called %d times, want 1", healthCalls)
	}

	// Freshly validated: the next resume trusts the record without a probe.
	if got := store.Resume(context.Background(), "sess1"); got.State != StateAuthenticated {
		t.Fatalf("second resume state = %v", got.State)
	}
	if healthCalls != 1 {
		t.Fatalf("health re-called despite fresh validation: %d", healthCalls)
	}
}

func TestResumeRejectedTokenClearsEverything(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "Authentication required"}`))
	})
	store, records, _ := newTestStore(t, mux)

	record := models.SessionRecord{
		ID:          "sess1",
		Tokens:      models.TokenPair{Access: "rejected", Refresh: "r"},
		ValidatedAt: time.Now().Add(-time.Hour),
	}
	if err := records.Put(context.Background(), record, time.Hour); err != nil {
		t.Fatal(err)
	}

	current := store.Resume(context.Background(), "sess1")
	if current.State != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", current.State)
	}
	if _, err := records.Get(context.Background(), "sess1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("record survived rejected revalidation: %v", err)
	}
}

func TestResumeExpiredTokenSkipsBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend called for an already-expired token")
	})
	store, records, _ := newTestStore(t, mux)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatal(err)
	}

	record := models.SessionRecord{
		ID:          "sess1",
		Tokens:      models.TokenPair{Access: expired},
		ValidatedAt: time.Now(), // even freshly validated, expiry wins
	}
	if err := records.Put(context.Background(), record, time.Hour); err != nil {
		t.Fatal(err)
	}

	if got := store.Resume(context.Background(), "sess1"); got.State != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got.State)
	}
	if _, err := records.Get(context.Background(), "sess1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatal("expired record survived")
	}
}

func TestResumeUnknownSessionIsAnonymous(t *testing.T) {
	store, _, _ := newTestStore(t, http.NewServeMux())

	if got := store.Resume(context.Background(), "nope"); got.State != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got.State)
	}
	if got := store.Resume(context.Background(), ""); got.State != StateAnonymous {
		t.Fatalf("empty id state = %v, want anonymous", got.State)
	}
}

func TestGatewayUnauthorizedEvictsSessionRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "Authentication required"}`))
	})
	_, records, client := newTestStore(t, mux)

	record := models.SessionRecord{ID: "sess1", Tokens: models.TokenPair{Access: "stale"}}
	if err := records.Put(context.Background(), record, time.Hour); err != nil {
		t.Fatal(err)
	}

	ctx := WithID(context.Background(), "sess1")
	if _, err := client.ListReports(ctx, "stale", gateway.ListQuery{}); err == nil {
		t.Fatal("expected 401 error")
	}

	if _, err := records.Get(context.Background(), "sess1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatal("session record survived a 401 response")
	}
}

func TestMemoryRecordsSweep(t *testing.T) {
	records := NewMemoryRecords()

	fresh := models.SessionRecord{ID: "fresh"}
	stale := models.SessionRecord{ID: "stale"}
	if err := records.Put(context.Background(), fresh, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := records.Put(context.Background(), stale, time.Millisecond); err != nil {
		t.Fatal(err)
	}

	removed := records.Sweep(time.Now().Add(time.Minute))
	if removed != 1 {
		t.Fatalf("swept %d records, want 1", removed)
	}
	if _, err := records.Get(context.Background(), "fresh"); err != nil {
		t.Fatalf("fresh record swept: %v", err)
	}
}
