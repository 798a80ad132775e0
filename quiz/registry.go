package quiz

import (
	"fmt"
	"sync"
)

// DefaultRegistrySize is the registry capacity used when none is given
const DefaultRegistrySize = 1024

// PollRef points a sent poll back at its chat and question
type PollRef struct {
	ChatID   int64
	Question int
}

// Registry maps outstanding poll ids to the chat they were sent to.
// It holds at most capacity entries; the oldest one is dropped first.
type Registry struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]PollRef
	order    []string
}

// NewRegistry creates a registry holding at most capacity polls
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistrySize
	}
	return &Registry{
		capacity: capacity,
		entries:  make(map[string]PollRef),
	}
}

// Put records that pollID was sent for ref
func (r *Registry) Put(pollID string, ref PollRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[pollID]; !exists {
		r.order = append(r.order, pollID)
	}
	r.entries[pollID] = ref

	for len(r.entries) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.entries, oldest)
	}
}

// Lookup returns the reference for pollID without removing it
func (r *Registry) Lookup(pollID string) (PollRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.entries[pollID]
	if !ok {
		return PollRef{}, fmt.Errorf("%w: %s", ErrUnknownPoll, pollID)
	}
	return ref, nil
}

// Resolve removes pollID and returns what it pointed at
func (r *Registry) Resolve(pollID string) (PollRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.entries[pollID]
	if !ok {
		return PollRef{}, fmt.Errorf("%w: %s", ErrUnknownPoll, pollID)
	}
	delete(r.entries, pollID)
	r.compact()
	return ref, nil
}

// EvictChat drops every poll sent to chatID and reports how many were removed
func (r *Registry) EvictChat(chatID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, ref := range r.entries {
		if ref.ChatID == chatID {
			delete(r.entries, id)
			n++
		}
	}
	r.compact()
	return n
}

// Len reports how many polls are outstanding
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// compact drops ids from order that are no longer in entries. Must hold mu.
func (r *Registry) compact() {
	live := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.entries[id]; ok {
			live = append(live, id)
		}
	}
	r.order = live
}
