package counter

import (
	"context"
	"testing"
	"time"
)

func newClockedStore() (*MemoryStore, *time.Time) {
	now := time.Unix(1_700_000_000, 0)
	store := NewMemoryStore()
	store.SetClock(func() time.Time { return now })
	return store, &now
}

func TestIncrWithExpiry(t *testing.T) {
	store, now := newClockedStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrWithExpiry(ctx, "k", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("incr = %d, want %d", got, want)
		}
	}

	// TTL is anchored to the first increment, not refreshed by later ones
	*now = now.Add(61 * time.Second)
	got, err := store.IncrWithExpiry(ctx, "k", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("incr after expiry = %d, want 1", got)
	}
}

func TestMarkerExpiry(t *testing.T) {
	store, now := newClockedStore()
	ctx := context.Background()

	if err := store.SetWithExpiry(ctx, "marker", "1700000000", 30*time.Second); err != nil {
		t.Fatal(err)
	}

	value, present, err := store.GetIfPresent(ctx, "marker")
	if err != nil {
		t.Fatal(err)
	}
	if !present || value != "1700000000" {
		t.Fatalf("got (%q, %v), want marker present", value, present)
	}

	*now = now.Add(31 * time.Second)

	_, present, err = store.GetIfPresent(ctx, "marker")
	if err != nil {
		t.Fatal(err)
	}
	if present {
		t.Error("marker still present after TTL")
	}
}

func TestDelete(t *testing.T) {
	store, _ := newClockedStore()
	ctx := context.Background()

	if err := store.SetWithExpiry(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}

	_, present, err := store.GetIfPresent(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if present {
		t.Error("key present after delete")
	}
}

func TestMissingKeyAbsent(t *testing.T) {
	store, _ := newClockedStore()

	_, present, err := store.GetIfPresent(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if present {
		t.Error("missing key reported present")
	}
}
