package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errLedgerDown = errors.New("ledger down")

func failing() error { return errLedgerDown }
func succeeding() error { return nil }

func TestOpensAfterMaxFailures(t *testing.T) {
	b := New(Config{MaxFailures: 3, OpenFor: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Call(failing); !errors.Is(err, errLedgerDown) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	called := false
	err := b.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn invoked while open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{MaxFailures: 3, OpenFor: time.Minute})

	b.Call(failing)
	b.Call(failing)
	b.Call(succeeding)
	b.Call(failing)
	b.Call(failing)

	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed (failures not consecutive)", b.State())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	b := New(Config{MaxFailures: 1, OpenFor: 10 * time.Millisecond, HalfOpenSuccess: 2})

	b.Call(failing)
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Call(succeeding); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open after first probe", b.State())
	}

	if err := b.Call(succeeding); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed after %d probes", b.State(), 2)
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{MaxFailures: 1, OpenFor: 10 * time.Millisecond})

	b.Call(failing)
	time.Sleep(20 * time.Millisecond)

	if err := b.Call(failing); !errors.Is(err, errLedgerDown) {
		t.Fatalf("probe err = %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state = %s, want open after failed probe", b.State())
	}

	// Reopened circuit rejects again without calling through
	if err := b.Call(succeeding); !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
}

func TestReset(t *testing.T) {
	b := New(Config{MaxFailures: 1, OpenFor: time.Hour})

	b.Call(failing)
	if b.State() != StateOpen {
		t.Fatal("breaker did not open")
	}

	b.Reset()
	if b.State() != StateClosed {
		t.Fatal("breaker not closed after reset")
	}
	if err := b.Call(succeeding); err != nil {
		t.Errorf("call after reset: %v", err)
	}
}

func TestMetrics(t *testing.T) {
	b := New(Config{MaxFailures: 5, OpenFor: time.Minute})

	b.Call(failing)
	b.Call(failing)

	m := b.Metrics()
	if m.State != StateClosed {
		t.Errorf("state = %s, want closed", m.State)
	}
	if m.FailureCount != 2 {
		t.Errorf("failure count = %d, want 2", m.FailureCount)
	}
	if m.LastFailureTime.IsZero() {
		t.Error("last failure time not set")
	}
}
