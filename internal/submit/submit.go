// internal/submit/submit.go
//
// Score submission validation: the gate between a win claim and the
// scoreboard. Cross-checks the submitted name, turn count, and session token
// before anything is persisted.
//
// The legacy untokened path (the pre-hardening protocol trusted the
// client's canCount/turns/name outright) survives behind AllowUntokened for
// old clients only. It is insecure: anyone who can POST can plant a score.

package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/clash-of-cans/go-server/internal/scoreboard"
	"github.com/clash-of-cans/go-server/internal/session"
)

const (
	minNameLen = 1
	maxNameLen = 15
)

var (
	// ErrInvalidName reports a trimmed name outside 1-15 characters.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidRequest reports missing or malformed fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrForbidden wraps every session-token failure.
	ErrForbidden = errors.New("forbidden")
)

// Request is one score submission as claimed by the client.
type Request struct {
	Name      string
	Size      int
	Turns     int
	Token     string
	ElapsedMs int
}

// Validator checks submissions against the session registry and commits
// accepted entries to the scoreboard store.
type Validator struct {
	registry       session.Registry
	store          scoreboard.Store
	allowUntokened bool
}

// Option configures a Validator.
type Option func(*Validator)

// AllowUntokened accepts submissions with an empty token, skipping the
// registry check. Insecure; for legacy clients only.
func AllowUntokened() Option {
	return func(v *Validator) { v.allowUntokened = true }
}

// NewValidator wires a validator to its registry and store.
func NewValidator(reg session.Registry, store scoreboard.Store, opts ...Option) *Validator {
	v := &Validator{registry: reg, store: store}
	for _, opt := range opts {
		opt(v)
	}
	if v.allowUntokened {
		log.Warn().Msg("untokened score submissions enabled; scores are forgeable")
	}
	return v
}

// Submit validates the request, consumes its session token, and appends the
// accepted entry to the scoreboard. Returns the entry as persisted.
func (v *Validator) Submit(ctx context.Context, req Request) (scoreboard.Entry, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return scoreboard.Entry{}, fmt.Errorf("%w: name must be %d-%d characters", ErrInvalidName, minNameLen, maxNameLen)
	}
	if req.Size == 0 || req.Turns <= 0 {
		return scoreboard.Entry{}, fmt.Errorf("%w: canCount and a positive turns are required", ErrInvalidRequest)
	}

	if req.Token == "" && v.allowUntokened {
		log.Warn().Str("name", name).Int("size", req.Size).Msg("accepting untokened submission")
	} else {
		rec, err := v.registry.ValidateAndConsume(req.Token, req.Size, req.Turns, req.ElapsedMs)
		if err != nil {
			return scoreboard.Entry{}, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		if rec.Suspicious {
			log.Warn().
				Str("name", name).
				Int("size", req.Size).
				Int("turns", req.Turns).
				Int("claimedMs", req.ElapsedMs).
				Dur("sessionAge", rec.Age).
				Msg("suspicious submission timing accepted")
		}
	}

	entry := scoreboard.Entry{Name: name, Turns: req.Turns}
	if err := v.store.Append(ctx, req.Size, entry); err != nil {
		return scoreboard.Entry{}, err
	}
	return entry, nil
}
