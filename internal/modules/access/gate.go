// Package access guards every mutating or triggering entry point with an
// authorization check followed by a pause-state check. Failing either aborts
// before any read or write happens.
package access

import (
	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// Actions a caller can be granted.
const (
	ActionConfigure = "configure"
	ActionTrigger   = "trigger"
	ActionAdmin     = "admin"
)

// Gate wraps the authorization and pause-state collaborators.
type Gate struct {
	auth  domain.Authorizer
	pause domain.PauseState
	log   zerolog.Logger
}

// NewGate creates a new access gate
func NewGate(auth domain.Authorizer, pause domain.PauseState, log zerolog.Logger) *Gate {
	return &Gate{
		auth:  auth,
		pause: pause,
		log:   log.With().Str("service", "access").Logger(),
	}
}

// Allow returns nil when the caller may perform the action right now.
// Authorization is checked first so an unauthorized caller learns nothing
// about pause state.
func (g *Gate) Allow(caller, action string) error {
	if !g.auth.IsAuthorized(caller, action) {
		g.log.Warn().Str("action", action).Msg("Caller not authorized")
		return domain.ErrUnauthorized
	}
	if g.pause.IsPaused() {
		return domain.ErrSystemPaused
	}
	return nil
}

// AllowAdmin checks authorization only. Admin actions (pause, resume) must
// work while the system is paused.
func (g *Gate) AllowAdmin(caller string) error {
	if !g.auth.IsAuthorized(caller, ActionAdmin) {
		g.log.Warn().Str("action", ActionAdmin).Msg("Caller not authorized")
		return domain.ErrUnauthorized
	}
	return nil
}
