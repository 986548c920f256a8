package memory

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	l := NewRateLimiter()
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, _ := l.Allow(ctx, "register:ip", 3, time.Minute)
		if !d.Allowed {
			t.Fatalf("hit %d denied", i)
		}
		if d.Remaining != 2-i {
			t.Fatalf("hit %d: remaining %d", i, d.Remaining)
		}
	}
	if d, _ := l.Allow(ctx, "register:ip", 3, time.Minute); d.Allowed {
		t.Fatalf("fourth hit allowed")
	}

	// One token comes back every window/limit.
	now = now.Add(20 * time.Second)
	if d, _ := l.Allow(ctx, "register:ip", 3, time.Minute); !d.Allowed {
		t.Fatalf("refilled token not granted")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	l := NewRateLimiter()
	ctx := context.Background()

	if d, _ := l.Allow(ctx, "a", 1, time.Minute); !d.Allowed {
		t.Fatalf("first hit on a denied")
	}
	if d, _ := l.Allow(ctx, "b", 1, time.Minute); !d.Allowed {
		t.Fatalf("first hit on b denied")
	}
	if d, _ := l.Allow(ctx, "a", 1, time.Minute); d.Allowed {
		t.Fatalf("second hit on a allowed")
	}
}

func TestRateLimiter_ZeroLimitDenies(t *testing.T) {
	l := NewRateLimiter()

	d, err := l.Allow(context.Background(), "k", 0, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("zero limit must deny")
	}
	if l.size() != 0 {
		t.Fatalf("zero limit must not create a bucket")
	}
}

func TestRateLimiter_DropsIdleBuckets(t *testing.T) {
	l := NewRateLimiter()
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"list:ip:1", "list:ip:2", "list:ip:3"} {
		_, _ = l.Allow(ctx, key, 10, time.Minute)
	}
	if l.size() != 3 {
		t.Fatalf("expected 3 buckets, got %d", l.size())
	}

	now = now.Add(30 * time.Second)
	_, _ = l.Allow(ctx, "list:ip:1", 10, time.Minute)

	// ip:2 and ip:3 have been idle for a full window; ip:1 was seen 40s ago.
	now = now.Add(40 * time.Second)
	_, _ = l.Allow(ctx, "list:ip:4", 10, time.Minute)
	if l.size() != 2 {
		t.Fatalf("expected idle buckets to be dropped, got %d", l.size())
	}

	// A recreated bucket starts full, same as the dropped one would have been.
	if d, _ := l.Allow(ctx, "list:ip:2", 10, time.Minute); !d.Allowed || d.Remaining != 9 {
		t.Fatalf("unexpected decision after recreation: %+v", d)
	}
}
