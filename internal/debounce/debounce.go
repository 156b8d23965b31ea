// Package debounce suppresses duplicate rapid key events. Some terminals
// emit doubled key-repeat events for editing keys on fast input; character
// and arrow keys must never be delayed, so only a fixed set of keys is
// debounced at all.
package debounce

import "time"

// DefaultCooldown is the window within which a repeated targeted key
// is dropped.
const DefaultCooldown = 200 * time.Millisecond

// targeted is the set of keys subject to debouncing. Keys are identified
// by their bubbletea string form ("enter", "tab", ...).
var targeted = map[string]bool{
	"backspace": true,
	"delete":    true,
	"enter":     true,
	"tab":       true,
	"shift+tab": true,
}

// Keys debounces the targeted key set against a shared last-keypress time.
type Keys struct {
	last     time.Time
	cooldown time.Duration
}

// NewKeys returns a debouncer with the given cooldown; zero means
// DefaultCooldown.
func NewKeys(cooldown time.Duration) *Keys {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Keys{cooldown: cooldown}
}

// ShouldProcess reports whether the key should be handled. Non-targeted
// keys always pass and leave the debouncer untouched. A targeted key
// within the cooldown of the previous accepted targeted key is dropped;
// otherwise the press is recorded and accepted.
func (k *Keys) ShouldProcess(key string, now time.Time) bool {
	if !targeted[key] {
		return true
	}
	if !k.last.IsZero() && now.Sub(k.last) < k.cooldown {
		return false
	}
	k.last = now
	return true
}

// Cooldown guards a modal (or similar surface) against double-fired
// accept keys: every key aimed at the surface goes through Allow first,
// and any key within the window of the previous accepted one is dropped.
type Cooldown struct {
	last   time.Time
	window time.Duration
}

// NewCooldown returns a cooldown with the given window; zero means
// DefaultCooldown.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{window: window}
}

// Allow reports whether an interaction at now is accepted, recording it
// if so. Dropped interactions do not move the window.
func (c *Cooldown) Allow(now time.Time) bool {
	if !c.last.IsZero() && now.Sub(c.last) < c.window {
		return false
	}
	c.last = now
	return true
}

// Reset clears the interaction history, e.g. when a new modal becomes
// interactive.
func (c *Cooldown) Reset() {
	c.last = time.Time{}
}
