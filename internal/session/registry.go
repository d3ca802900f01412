// internal/session/registry.go
//
// Session token registry for Clash of Cans.
// Responsibilities:
//   - Issue one token per started game, binding a puzzle size and start time.
//   - Validate and consume tokens on score submission (single use).
//   - Expire stale sessions lazily: each Issue sweeps entries older than TTL.
//   - Flag implausible submission timing (too fast for the claimed turn
//     count, or longer than the session has existed).
//
// Token shape: an HS256 JWT carrying a 128-bit crypto-random session id
// ("sid"), the puzzle size, and the issue time. The signature is a cheap
// first gate against forged tokens; the in-memory table is the authority —
// a token whose sid is absent is rejected no matter how valid its signature.
//
// The registry raises the cost of naive cheating only. A client that plays
// a real session and lies about turns within plausible bounds is not
// detectable here.

package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clash-of-cans/go-server/internal/game"
)

var (
	// ErrInvalidSize reports a session request for a puzzle size outside [5,8].
	ErrInvalidSize = errors.New("invalid puzzle size")

	// ErrTokenNotFound reports a token that was never issued, was already
	// consumed, expired, or failed signature verification.
	ErrTokenNotFound = errors.New("session token not found")

	// ErrSizeMismatch reports a submission whose claimed puzzle size differs
	// from the one the token was issued for.
	ErrSizeMismatch = errors.New("puzzle size does not match session")

	// ErrSuspiciousTiming is returned only when RejectSuspiciousTiming is
	// set; the default policy accepts and flags instead.
	ErrSuspiciousTiming = errors.New("implausible submission timing")
)

const (
	// DefaultTTL is how long an unconsumed session stays valid.
	DefaultTTL = time.Hour

	// minTurnDuration is the floor cost of a single check: a human cannot
	// rearrange and check faster than this, repeatedly.
	minTurnDuration = 3 * time.Second

	// elapsedSlack absorbs clock skew between client-measured game time and
	// server-measured session age.
	elapsedSlack = 5 * time.Second
)

// Record is the session metadata returned by a successful consume.
type Record struct {
	Size       int           // Puzzle size the token was issued for.
	StartedAt  time.Time     // Server-side session start.
	Age        time.Duration // now - StartedAt at consume time.
	Suspicious bool          // Claimed timing fell outside plausible bounds.
}

// Registry issues and consumes single-use session tokens. The memory
// implementation below can be swapped for a distributed store without
// touching callers.
type Registry interface {
	// Issue validates size, records a new session, and returns its token.
	Issue(size int) (string, error)

	// ValidateAndConsume checks a submitted token against the registry and
	// deletes it. Replaying a consumed token yields ErrTokenNotFound.
	ValidateAndConsume(token string, size, turns, elapsedMs int) (Record, error)
}

// Config tunes a memory registry. Zero values get sensible defaults.
type Config struct {
	Secret                 []byte           // HMAC key for token signatures. Required.
	TTL                    time.Duration    // Session lifetime; DefaultTTL if zero.
	RejectSuspiciousTiming bool             // Reject instead of flag (see Record.Suspicious).
	Now                    func() time.Time // Clock override for tests.
}

// Memory is the in-process Registry implementation: a mutex-guarded map of
// live sessions keyed by sid. State is lost on restart, which silently
// invalidates outstanding sessions; acceptable for short-lived games.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*record
	cfg      Config
}

type record struct {
	size      int
	startedAt time.Time
}

// NewMemory constructs an empty registry.
func NewMemory(cfg Config) *Memory {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Memory{sessions: make(map[string]*record), cfg: cfg}
}

// Issue starts a session for a puzzle of the given size.
// Sweeps expired sessions as a side effect; there is no background reaper.
func (m *Memory) Issue(size int) (string, error) {
	if size < game.MinSize || size > game.MaxSize {
		return "", ErrInvalidSize
	}

	sid := newSID()
	now := m.cfg.Now()

	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[sid] = &record{size: size, startedAt: now}
	m.mu.Unlock()

	return m.sign(sid, size, now)
}

// ValidateAndConsume resolves the token to a live session, checks the
// claimed puzzle size, deletes the session, and evaluates timing
// plausibility. Token and size failures leave nothing consumed; once the
// sid checks out the session is gone regardless of the timing verdict.
func (m *Memory) ValidateAndConsume(token string, size, turns, elapsedMs int) (Record, error) {
	sid, err := m.verify(token)
	if err != nil {
		return Record{}, ErrTokenNotFound
	}

	now := m.cfg.Now()

	m.mu.Lock()
	rec, ok := m.sessions[sid]
	if ok && now.Sub(rec.startedAt) > m.cfg.TTL {
		delete(m.sessions, sid)
		ok = false
	}
	if !ok {
		m.mu.Unlock()
		return Record{}, ErrTokenNotFound
	}
	if rec.size != size {
		m.mu.Unlock()
		return Record{}, ErrSizeMismatch
	}
	delete(m.sessions, sid) // single use
	m.mu.Unlock()

	age := now.Sub(rec.startedAt)
	out := Record{
		Size:       rec.size,
		StartedAt:  rec.startedAt,
		Age:        age,
		Suspicious: implausible(turns, elapsedMs, age),
	}
	if out.Suspicious && m.cfg.RejectSuspiciousTiming {
		return out, ErrSuspiciousTiming
	}
	return out, nil
}

// Live reports the number of unconsumed sessions. Test and diagnostics hook.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweepLocked removes sessions older than TTL. Caller holds mu.
func (m *Memory) sweepLocked(now time.Time) {
	for sid, rec := range m.sessions {
		if now.Sub(rec.startedAt) > m.cfg.TTL {
			delete(m.sessions, sid)
		}
	}
}

// implausible checks the claimed game time against the floor implied by the
// turn count and the ceiling implied by the session's actual age.
func implausible(turns, elapsedMs int, age time.Duration) bool {
	minPlausible := time.Duration(turns) * minTurnDuration
	if minPlausible < minTurnDuration {
		minPlausible = minTurnDuration
	}
	elapsed := time.Duration(elapsedMs) * time.Millisecond
	return elapsed < minPlausible || elapsed > age+elapsedSlack
}

// sign wraps the sid in an HS256 JWT. The token is opaque to the client.
func (m *Memory) sign(sid string, size int, issued time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":  sid,
		"size": size,
		"iat":  issued.Unix(),
	})
	return t.SignedString(m.cfg.Secret)
}

// verify checks the token signature and extracts the sid.
func (m *Memory) verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !t.Valid {
		return "", ErrTokenNotFound
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", ErrTokenNotFound
	}
	return sid, nil
}

// newSID returns a 128-bit crypto-random session id as 32 hex chars.
func newSID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
