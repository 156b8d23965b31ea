package debounce

import (
	"testing"
	"time"
)

func TestTargetedKeyWithinCooldown(t *testing.T) {
	k := NewKeys(200 * time.Millisecond)
	now := time.Now()

	if !k.ShouldProcess("enter", now) {
		t.Fatal("first enter should be processed")
	}
	if k.ShouldProcess("enter", now.Add(50*time.Millisecond)) {
		t.Fatal("second enter within cooldown should be dropped")
	}
	if !k.ShouldProcess("enter", now.Add(250*time.Millisecond)) {
		t.Fatal("enter after cooldown should be processed")
	}
}

func TestNonTargetedKeyBypasses(t *testing.T) {
	k := NewKeys(200 * time.Millisecond)
	now := time.Now()

	if !k.ShouldProcess("a", now) {
		t.Fatal("letter should be processed")
	}
	if !k.ShouldProcess("a", now.Add(time.Millisecond)) {
		t.Fatal("letter 1ms later should still be processed")
	}
	// Letters must not touch the shared timestamp either.
	if !k.ShouldProcess("enter", now.Add(2*time.Millisecond)) {
		t.Fatal("enter should be processed after letters only")
	}
}

func TestDroppedKeyDoesNotExtendWindow(t *testing.T) {
	k := NewKeys(200 * time.Millisecond)
	now := time.Now()

	k.ShouldProcess("tab", now)
	k.ShouldProcess("tab", now.Add(150*time.Millisecond)) // dropped
	if !k.ShouldProcess("tab", now.Add(210*time.Millisecond)) {
		t.Fatal("window should be measured from the accepted press")
	}
}

func TestAllTargetedKeys(t *testing.T) {
	for _, key := range []string{"backspace", "delete", "enter", "tab", "shift+tab"} {
		k := NewKeys(200 * time.Millisecond)
		now := time.Now()
		if !k.ShouldProcess(key, now) {
			t.Fatalf("%s: first press should be processed", key)
		}
		if k.ShouldProcess(key, now.Add(10*time.Millisecond)) {
			t.Fatalf("%s: repeat within cooldown should be dropped", key)
		}
	}
}

func TestCooldownAllow(t *testing.T) {
	c := NewCooldown(300 * time.Millisecond)
	now := time.Now()

	if !c.Allow(now) {
		t.Fatal("first interaction should be allowed")
	}
	if c.Allow(now.Add(100 * time.Millisecond)) {
		t.Fatal("interaction within window should be dropped")
	}
	if !c.Allow(now.Add(350 * time.Millisecond)) {
		t.Fatal("interaction after window should be allowed")
	}
}

func TestCooldownReset(t *testing.T) {
	c := NewCooldown(300 * time.Millisecond)
	now := time.Now()

	c.Allow(now)
	c.Reset()
	if !c.Allow(now.Add(time.Millisecond)) {
		t.Fatal("reset should clear the interaction history")
	}
}

func TestDefaultWindows(t *testing.T) {
	k := NewKeys(0)
	if k.cooldown != DefaultCooldown {
		t.Fatalf("expected default cooldown, got %v", k.cooldown)
	}
	c := NewCooldown(0)
	if c.window != DefaultCooldown {
		t.Fatalf("expected default window, got %v", c.window)
	}
}
