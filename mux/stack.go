package mux

import "slices"

// StackEntry is a group of stack items sharing one path matcher.
type StackEntry struct {
	Items   []StackItem
	Matcher Matcher
}

// Stack is the ordered dispatch pipeline. Adjacent entries never have
// equal matchers: Attach extends the last entry when possible and Detach
// merges the neighbours of an entry it empties.
//
// A Stack is not safe for concurrent mutation; mutate it before serving
// traffic or serialise access externally.
type Stack struct {
	entries []StackEntry
}

// Attach appends items under m. Items are appended to the last entry
// when its matcher equals m. Attaching no items is a no-op.
func (s *Stack) Attach(m Matcher, items ...StackItem) error {
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if !validItem(item) {
			return ErrInvalidItem
		}
	}

	if n := len(s.entries); n > 0 && s.entries[n-1].Matcher.Equal(m) {
		s.entries[n-1].Items = append(s.entries[n-1].Items, items...)
		return nil
	}

	s.entries = append(s.entries, StackEntry{Items: slices.Clone(items), Matcher: m})

	return nil
}

// Detach removes one occurrence of each item under m and returns the
// removed items in the order they were requested.
//
// For each item the entries are scanned from last to first; in the first
// entry with a matcher equal to m that contains the item, its last
// occurrence is removed. An emptied entry is deleted, and when its former
// neighbours have equal matchers they are merged into one entry.
func (s *Stack) Detach(m Matcher, items ...StackItem) []StackItem {
	var removed []StackItem

	for _, item := range items {
		for i := len(s.entries) - 1; i >= 0; i-- {
			entry := &s.entries[i]
			if !entry.Matcher.Equal(m) {
				continue
			}

			idx := lastIndex(entry.Items, item)
			if idx == -1 {
				continue
			}

			removed = append(removed, entry.Items[idx])
			entry.Items = slices.Delete(entry.Items, idx, idx+1)

			if len(entry.Items) == 0 {
				s.compact(i)
			}

			break
		}
	}

	return removed
}

// compact deletes the empty entry at i, merging its neighbours when their
// matchers are equal.
func (s *Stack) compact(i int) {
	if i > 0 && i < len(s.entries)-1 && s.entries[i-1].Matcher.Equal(s.entries[i+1].Matcher) {
		s.entries[i-1].Items = append(s.entries[i-1].Items, s.entries[i+1].Items...)
		s.entries = slices.Delete(s.entries, i, i+2)
		return
	}

	s.entries = slices.Delete(s.entries, i, i+1)
}

// Entries returns a snapshot of the stack. Item lists are copied; the
// items themselves are shared.
func (s *Stack) Entries() []StackEntry {
	out := make([]StackEntry, len(s.entries))
	for i, entry := range s.entries {
		out[i] = StackEntry{Items: slices.Clone(entry.Items), Matcher: entry.Matcher}
	}

	return out
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

func validItem(item StackItem) bool {
	switch it := item.(type) {
	case *Middleware:
		return it.valid()
	case *Router:
		return it != nil
	default:
		return false
	}
}
