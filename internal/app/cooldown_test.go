package app

import (
	"testing"
	"time"
)

func TestCooldown(t *testing.T) {
	clk := &clock{t: time.Unix(1700000000, 0)}
	l := NewCooldownLimiter(clk.Now)
	cd := 5 * time.Second

	if ok, _ := l.Allow(1, 10, cd); !ok {
		t.Fatal("first message must pass")
	}

	clk.Advance(1500 * time.Millisecond)
	ok, remaining := l.Allow(1, 10, cd)
	if ok {
		t.Fatal("second message inside the cooldown must be blocked")
	}
	if remaining != 4 {
		t.Fatalf("remaining %d, want 4", remaining)
	}

	// A rejected attempt does not restart the window.
	clk.Advance(3500 * time.Millisecond)
	if ok, _ := l.Allow(1, 10, cd); !ok {
		t.Fatal("message after the cooldown must pass")
	}

	if ok, _ := l.Allow(2, 10, cd); !ok {
		t.Fatal("cooldowns are per room")
	}
	if ok, _ := l.Allow(1, 11, cd); !ok {
		t.Fatal("cooldowns are per user")
	}
}

func TestCooldownZero(t *testing.T) {
	clk := &clock{t: time.Unix(1700000000, 0)}
	l := NewCooldownLimiter(clk.Now)
	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(1, 1, 0); !ok {
			t.Fatal("zero cooldown must always pass")
		}
	}
}

func TestCooldownForget(t *testing.T) {
	l := NewCooldownLimiter(nil)
	l.Allow(1, 1, time.Minute)
	l.Allow(1, 2, time.Minute)
	l.Allow(2, 1, time.Minute)

	l.Forget(1)
	if l.Len() != 1 {
		t.Fatalf("len %d, want 1", l.Len())
	}
	if ok, _ := l.Allow(1, 1, time.Minute); !ok {
		t.Fatal("forgotten entry must pass")
	}
}

func TestPolicyByName(t *testing.T) {
	if _, ok := PolicyByName("drop").(LossyPolicy); !ok {
		t.Fatal("drop must map to LossyPolicy")
	}
	if _, ok := PolicyByName("kick").(SimplePolicy); !ok {
		t.Fatal("kick must map to SimplePolicy")
	}
}
