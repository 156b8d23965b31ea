// Package autocomplete implements the state machine behind a searchable
// pick-one field: free text input, a candidate list that arrives later
// (locally filtered or fetched remotely), a dropdown selection, and an
// idle-debounce that decides when the current input is worth searching.
//
// The state is a plain value owned by exactly one form field; nothing here
// performs the search itself. The owner checks Ready on a timer tick, runs
// its search strategy, then calls UpdateItems and MarkSearched.
package autocomplete

import "time"

// DefaultDebounce is the idle window after the last keypress before a
// search fires.
const DefaultDebounce = 300 * time.Millisecond

// State tracks one autocomplete field over items of type T.
type State[T any] struct {
	Input     string
	Items     []T
	Selected  int // index into Items, -1 when nothing is selected
	Dropdown  bool
	Loading   bool
	MinChars  int
	Debounce  time.Duration

	lastKeypress time.Time
	searched     bool // current Input has already been searched
}

// New returns an empty state that searches inputs of at least minChars
// runes after the default idle debounce.
func New[T any](minChars int) State[T] {
	return State[T]{
		Selected: -1,
		MinChars: minChars,
		Debounce: DefaultDebounce,
	}
}

// AddChar appends c to the input and marks it unsearched.
func (s *State[T]) AddChar(c rune) {
	s.Input += string(c)
	s.searched = false
}

// RemoveChar removes the last rune from the input and marks it unsearched.
func (s *State[T]) RemoveChar() {
	if s.Input == "" {
		return
	}
	runes := []rune(s.Input)
	s.Input = string(runes[:len(runes)-1])
	s.searched = false
}

// RecordKeypress notes input activity for the idle debounce.
func (s *State[T]) RecordKeypress(now time.Time) {
	s.lastKeypress = now
}

// Ready reports whether an idle-debounced search should fire: the input
// is long enough, has not been searched yet, and the debounce window has
// elapsed since the last keypress. It fires at most once per idle period;
// the caller marks the input searched (MarkSearched) after acting.
func (s *State[T]) Ready(now time.Time) bool {
	if s.searched || len([]rune(s.Input)) < s.MinChars {
		return false
	}
	if s.lastKeypress.IsZero() {
		return false
	}
	return now.Sub(s.lastKeypress) >= s.Debounce
}

// BelowThreshold reports whether the input is too short to search.
// Below the threshold stale suggestions must be cleared immediately.
func (s *State[T]) BelowThreshold() bool {
	return len([]rune(s.Input)) < s.MinChars
}

// MarkSearched records that the current input has been acted on, so a
// selection that rewrites the input to the chosen label does not trigger
// a redundant re-search.
func (s *State[T]) MarkSearched() {
	s.searched = true
}

// UpdateItems replaces the candidate list, clears the selection, and
// shows the dropdown exactly when there is something to show.
func (s *State[T]) UpdateItems(items []T) {
	s.Items = items
	s.Selected = -1
	s.Dropdown = len(items) > 0
}

// SelectNext moves the selection down with wraparound; no-op when empty.
func (s *State[T]) SelectNext() {
	if len(s.Items) == 0 {
		return
	}
	s.Selected = (s.Selected + 1) % len(s.Items)
}

// SelectPrevious moves the selection up with wraparound; no-op when empty.
func (s *State[T]) SelectPrevious() {
	if len(s.Items) == 0 {
		return
	}
	if s.Selected <= 0 {
		s.Selected = len(s.Items) - 1
		return
	}
	s.Selected--
}

// SelectedItem returns the highlighted item, or nil when none is.
func (s *State[T]) SelectedItem() *T {
	if s.Selected < 0 || s.Selected >= len(s.Items) {
		return nil
	}
	return &s.Items[s.Selected]
}

// ClearInput empties the input and candidate list and hides the dropdown.
func (s *State[T]) ClearInput() {
	s.Input = ""
	s.Items = nil
	s.Selected = -1
	s.Dropdown = false
	s.searched = false
}

// HideDropdown hides the suggestion list without touching the input,
// e.g. on a first Esc press in an autocomplete field.
func (s *State[T]) HideDropdown() {
	s.Dropdown = false
}
