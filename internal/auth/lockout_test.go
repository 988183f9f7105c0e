package auth

import (
	"testing"
	"time"
)

func TestIsLocked(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	u := &User{}
	if IsLocked(u, now) {
		t.Fatal("user without deadline reported locked")
	}

	past := now.Add(-time.Second)
	u.AccountLockedUntil = &past
	if IsLocked(u, now) {
		t.Fatal("expired deadline reported locked")
	}

	future := now.Add(10 * time.Minute)
	u.AccountLockedUntil = &future
	if !IsLocked(u, now) {
		t.Fatal("active deadline reported unlocked")
	}
}

func TestLockoutRemainingRoundsUp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		left time.Duration
		want int
	}{
		{30 * time.Minute, 30},
		{10*time.Minute + time.Second, 11},
		{59 * time.Second, 1},
		{time.Minute, 1},
	}
	for _, tc := range cases {
		until := now.Add(tc.left)
		u := &User{AccountLockedUntil: &until}
		if got := LockoutRemaining(u, now); got != tc.want {
			t.Fatalf("remaining %v: got %d, want %d", tc.left, got, tc.want)
		}
	}

	u := &User{}
	if got := LockoutRemaining(u, now); got != 0 {
		t.Fatalf("unlocked user: got %d, want 0", got)
	}
}
