package matchmaker

import (
	"sync"
)

// Identifier keys an item for selection: a stable numeric key plus the
// value retained when the item is selected.
type Identifier[T, S any] func(item T) (uint32, S)

// Validator decides whether a retained selection is still identifiable
// after the corpus changes.
type Validator[S any] func(S) bool

// Selector is the order-preserving selection set. Keys collide by
// identifier; re-selecting an existing key overwrites its value in place,
// keeping the original position. A disabled selector turns every mutation
// into a no-op, which signals single-select mode.
type Selector[T, S any] struct {
	mu         sync.Mutex
	keys       []uint32
	values     map[uint32]S
	disabled   bool
	identifier Identifier[T, S]
	validator  Validator[S]
}

// NewSelector builds an enabled selector.
func NewSelector[T, S any](identifier Identifier[T, S]) *Selector[T, S] {
	return &Selector[T, S]{
		values:     make(map[uint32]S),
		identifier: identifier,
	}
}

// WithValidator installs a revalidation hook.
func (s *Selector[T, S]) WithValidator(v Validator[S]) *Selector[T, S] {
	s.validator = v
	return s
}

// Disabled marks the selector as single-select: mutations become no-ops.
func (s *Selector[T, S]) Disabled() *Selector[T, S] {
	s.disabled = true
	return s
}

// Enabled reports whether multi-select is active.
func (s *Selector[T, S]) Enabled() bool {
	return !s.disabled
}

// Select inserts the item. Returns true when it was not already present.
func (s *Selector[T, S]) Select(item T) bool {
	if s.disabled {
		return false
	}
	k, v := s.identifier(item)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(k, v)
}

func (s *Selector[T, S]) insert(k uint32, v S) bool {
	if _, ok := s.values[k]; ok {
		s.values[k] = v
		return false
	}
	s.keys = append(s.keys, k)
	s.values[k] = v
	return true
}

// Deselect removes the item. Returns true when it was present.
func (s *Selector[T, S]) Deselect(item T) bool {
	if s.disabled {
		return false
	}
	k, _ := s.identifier(item)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(k)
}

func (s *Selector[T, S]) remove(k uint32) bool {
	if _, ok := s.values[k]; !ok {
		return false
	}
	delete(s.values, k)
	for i, key := range s.keys {
		if key == k {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership.
func (s *Selector[T, S]) Contains(item T) bool {
	if s.disabled {
		return false
	}
	k, _ := s.identifier(item)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[k]
	return ok
}

// Toggle flips the item's membership.
func (s *Selector[T, S]) Toggle(item T) {
	if s.disabled {
		return
	}
	k, v := s.identifier(item)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[k]; ok {
		s.remove(k)
	} else {
		s.insert(k, v)
	}
}

// CycleAll runs over the full result order: when every item is already
// selected, all of them are removed; otherwise items from the first
// unselected one onward are inserted.
func (s *Selector[T, S]) CycleAll(items []T) {
	if s.disabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := true
	first := 0
	for i, item := range items {
		k, _ := s.identifier(item)
		if _, ok := s.values[k]; !ok {
			all = false
			first = i
			break
		}
	}

	if all {
		for _, item := range items {
			k, _ := s.identifier(item)
			s.remove(k)
		}
		return
	}
	for _, item := range items[first:] {
		k, v := s.identifier(item)
		s.insert(k, v)
	}
}

// Clear empties the set.
func (s *Selector[T, S]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = s.keys[:0]
	for k := range s.values {
		delete(s.values, k)
	}
}

// Len returns the selection count.
func (s *Selector[T, S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// IsEmpty reports emptiness; a disabled selector is always empty.
func (s *Selector[T, S]) IsEmpty() bool {
	return s.Len() == 0
}

// Output drains the set in insertion order.
func (s *Selector[T, S]) Output() []S {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]S, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.values[k])
	}
	s.keys = s.keys[:0]
	s.values = make(map[uint32]S)
	return out
}

// Values copies the retained values in insertion order without draining.
func (s *Selector[T, S]) Values() []S {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]S, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.values[k])
	}
	return out
}

// Identify maps items through the identifier without touching the set.
func (s *Selector[T, S]) Identify(items []T) []S {
	out := make([]S, len(items))
	for i, item := range items {
		_, out[i] = s.identifier(item)
	}
	return out
}

// Revalidate purges entries the validator no longer accepts.
func (s *Selector[T, S]) Revalidate() {
	if s.validator == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.keys[:0]
	for _, k := range s.keys {
		if s.validator(s.values[k]) {
			kept = append(kept, k)
		} else {
			delete(s.values, k)
		}
	}
	s.keys = kept
}
