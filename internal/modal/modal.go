// Package modal implements a LIFO stack of blocking dialogs. Only the top
// entry is interactive; pushing suspends whatever was interactive below,
// popping resumes it. While the stack is non-empty all raw key input
// belongs to modal handling and no other mode may observe it — that rule
// is enforced by the router, not here.
//
// Entries carry optional follow-up payloads of type M (the host's message
// type) so a confirmed dialog can chain into its action without the modal
// layer knowing what the action is.
package modal

// Kind distinguishes how a modal is resolved and rendered.
type Kind int

const (
	// Confirm asks a yes/no question; accept yields a confirmation.
	Confirm Kind = iota
	// Info is a dismissible notice.
	Info
	// Error is a dismissible failure report.
	Error
)

func (k Kind) String() string {
	switch k {
	case Confirm:
		return "confirm"
	case Info:
		return "info"
	case Error:
		return "error"
	}
	return "unknown"
}

// Entry is one stacked dialog. OnConfirm is dispatched after a Confirm
// entry is accepted; OnCancel after any entry is cancelled. Either may
// be nil.
type Entry[M any] struct {
	ID        string
	Kind      Kind
	Title     string
	Message   string
	OnConfirm *M
	OnCancel  *M
}

// Stack is a LIFO stack of modal entries.
type Stack[M any] struct {
	entries []Entry[M]
}

// Push makes e the interactive modal, suspending the previous top.
func (s *Stack[M]) Push(e Entry[M]) {
	s.entries = append(s.entries, e)
}

// Pop removes and returns the top entry; false when empty.
func (s *Stack[M]) Pop() (Entry[M], bool) {
	if len(s.entries) == 0 {
		var zero Entry[M]
		return zero, false
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top, true
}

// Top returns the interactive entry without removing it.
func (s *Stack[M]) Top() (*Entry[M], bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	return &s.entries[len(s.entries)-1], true
}

// IsEmpty reports whether no modal is active.
func (s *Stack[M]) IsEmpty() bool {
	return len(s.entries) == 0
}

// Len returns the number of stacked entries.
func (s *Stack[M]) Len() int {
	return len(s.entries)
}

// Matches reports whether id addresses the current top entry. An empty
// id matches any top, so generic dismiss messages work without plumbing
// the id through every key handler.
func (s *Stack[M]) Matches(id string) bool {
	top, ok := s.Top()
	if !ok {
		return false
	}
	return id == "" || id == top.ID
}
