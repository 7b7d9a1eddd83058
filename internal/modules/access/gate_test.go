package access

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
)

func newTestGate(startPaused bool) (*Gate, *PauseSwitch) {
	auth := NewStaticAuthorizer([]string{"op-token"}, []string{"admin-token"})
	pause := NewPauseSwitch(startPaused, nil)
	return NewGate(auth, pause, zerolog.Nop()), pause
}

func TestAllow_OperatorGrants(t *testing.T) {
	gate, _ := newTestGate(false)

	if err := gate.Allow("op-token", ActionConfigure); err != nil {
		t.Errorf("operator configure: %v", err)
	}
	if err := gate.Allow("op-token", ActionTrigger); err != nil {
		t.Errorf("operator trigger: %v", err)
	}
	if err := gate.Allow("op-token", ActionAdmin); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("operator admin: got %v, want ErrUnauthorized", err)
	}
}

func TestAllow_UnknownCaller(t *testing.T) {
	gate, _ := newTestGate(false)

	for _, caller := range []string{"", "stranger"} {
		if err := gate.Allow(caller, ActionTrigger); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("caller %q: got %v, want ErrUnauthorized", caller, err)
		}
	}
}

func TestAllow_AuthorizationCheckedBeforePause(t *testing.T) {
	gate, _ := newTestGate(true)

	// An unauthorized caller must see ErrUnauthorized, not ErrSystemPaused.
	if err := gate.Allow("stranger", ActionTrigger); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if err := gate.Allow("op-token", ActionTrigger); !errors.Is(err, domain.ErrSystemPaused) {
		t.Fatalf("got %v, want ErrSystemPaused", err)
	}
}

func TestAllowAdmin_WorksWhilePaused(t *testing.T) {
	gate, pause := newTestGate(true)

	if err := gate.AllowAdmin("admin-token"); err != nil {
		t.Fatalf("admin while paused: %v", err)
	}
	if err := gate.AllowAdmin("op-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("operator admin: got %v, want ErrUnauthorized", err)
	}

	pause.Resume()
	if err := gate.Allow("op-token", ActionTrigger); err != nil {
		t.Fatalf("after resume: %v", err)
	}
}

func TestPauseSwitch_Toggle(t *testing.T) {
	pause := NewPauseSwitch(false, nil)

	if pause.IsPaused() {
		t.Fatal("fresh switch should be unpaused")
	}
	pause.Pause()
	if !pause.IsPaused() {
		t.Fatal("Pause did not halt")
	}
	// Idempotent in both directions.
	pause.Pause()
	if !pause.IsPaused() {
		t.Fatal("second Pause flipped state")
	}
	pause.Resume()
	pause.Resume()
	if pause.IsPaused() {
		t.Fatal("Resume did not lift the halt")
	}
}
