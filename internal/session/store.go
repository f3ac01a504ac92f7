package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"wastewatch/web/internal/config"
	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/ids"
	"wastewatch/web/internal/models"
)

// State is the session lifecycle: Unknown until the stored record has been
// revalidated, then Authenticated or Anonymous.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Current is the per-request view of the session handed to page handlers.
type Current struct {
	State  State
	Record models.SessionRecord
}

func (c Current) Authenticated() bool { return c.State == StateAuthenticated }
func (c Current) User() models.User   { return c.Record.User }
func (c Current) Token() string       { return c.Record.Tokens.Access }

// Store is the single source of truth for "who is logged in". All session
// mutations go through it; pages never touch the records backend directly.
type Store struct {
	records Records
	client  *gateway.Client
	cfg     config.SessionConfig
	log     zerolog.Logger
}

func NewStore(records Records, client *gateway.Client, cfg config.SessionConfig, log zerolog.Logger) *Store {
	return &Store{
		records: records,
		client:  client,
		cfg:     cfg,
		log:     log,
	}
}

// Resume moves a request from Unknown to Authenticated or Anonymous. A
// stored record is only trusted after the backend has confirmed its token:
// recently validated records skip the round trip, everything else goes
// through a liveness probe. Any failure clears the record.
func (s *Store) Resume(ctx context.Context, sessionID string) Current {
	if sessionID == "" {
		return Current{State: StateAnonymous}
	}

	record, err := s.records.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.log.Error().Err(err).Msg("session load failed")
		}
		return Current{State: StateAnonymous}
	}

	now := time.Now()
	if tokenExpired(record.Tokens.Access, now) {
		s.evict(ctx, sessionID)
		return Current{State: StateAnonymous}
	}

	if now.Sub(record.ValidatedAt) < s.cfg.RevalidateAfter {
		return Current{State: StateAuthenticated, Record: record}
	}

	if err := s.client.Health(ctx, record.Tokens.Access); err != nil {
		s.log.Debug().Err(err).Str("session_id", sessionID).Msg("token revalidation failed")
		s.evict(ctx, sessionID)
		return Current{State: StateAnonymous}
	}

	record.ValidatedAt = now
	if err := s.records.Put(ctx, record, s.cfg.TTL); err != nil {
		s.log.Error().Err(err).Msg("session refresh failed")
	}
	return Current{State: StateAuthenticated, Record: record}
}

// Login authenticates against the backend and, on success, persists a fresh
// record. Failures are reported as a display message, never an error value,
// and leave existing state untouched.
func (s *Store) Login(ctx context.Context, email, password string) (Current, string) {
	payload, err := s.client.Login(ctx, email, password)
	if err != nil {
		return Current{State: StateAnonymous}, gateway.Describe(err)
	}
	return s.establish(ctx, payload)
}

// Register creates an account and signs the new user in.
func (s *Store) Register(ctx context.Context, name, email, password string) (Current, string) {
	payload, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return Current{State: StateAnonymous}, gateway.Describe(err)
	}
	return s.establish(ctx, payload)
}

func (s *Store) establish(ctx context.Context, payload gateway.AuthPayload) (Current, string) {
	if payload.Tokens.Access == "" {
		return Current{State: StateAnonymous}, "Login failed"
	}

	now := time.Now()
	record := models.SessionRecord{
		ID:          ids.New(),
		User:        payload.User,
		Tokens:      payload.Tokens,
		ValidatedAt: now,
		CreatedAt:   now,
	}

	if err := s.records.Put(ctx, record, s.cfg.TTL); err != nil {
		s.log.Error().Err(err).Msg("session persist failed")
		return Current{State: StateAnonymous}, gateway.MsgNetworkError
	}

	s.log.Info().Str("user_id", record.User.ID).Bool("is_admin", record.User.IsAdmin).Msg("session established")
	return Current{State: StateAuthenticated, Record: record}, ""
}

// Logout clears the record. The caller is responsible for the redirect back
// to the landing page.
func (s *Store) Logout(ctx context.Context, sessionID string) {
	s.ClearAuth(ctx, sessionID)
}

// ClearAuth is the non-navigating eviction used by the gateway's 401 hook:
// the page that triggered the failure keeps rendering and decides how to
// surface the signed-out state.
func (s *Store) ClearAuth(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	s.evict(ctx, sessionID)
}

// EvictOnAuthFailure is the hook handed to the gateway client. The session
// ID travels in the request context.
func (s *Store) EvictOnAuthFailure(ctx context.Context) {
	if sessionID, ok := IDFromContext(ctx); ok {
		s.ClearAuth(ctx, sessionID)
	}
}

func (s *Store) evict(ctx context.Context, sessionID string) {
	if err := s.records.Delete(ctx, sessionID); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("session evict failed")
	}
}

// tokenExpired inspects the access token's exp claim without verifying the
// signature; verification is the backend's job. Opaque tokens pass through
// and the backend decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(now)
}

type ctxKey struct{}

// WithID attaches the request's session ID to the context so the gateway's
// 401 hook can evict the right record.
func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sessionID)
}

func IDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(ctxKey{}).(string)
	return sessionID, ok && sessionID != ""
}
