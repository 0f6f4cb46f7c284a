package frontier

import "sync"

// VisitedSet is the deduplication ledger, keyed by normalized URL. A URL
// enters the set when it is claimed for processing, not when it is enqueued,
// which guarantees at most one fetch per URL however many times it was queued.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet creates an empty set
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// MarkVisited adds the URL to the set.
// Returns true if it was newly added, false if already present.
func (v *VisitedSet) MarkVisited(normalizedURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[normalizedURL]; ok {
		return false
	}
	v.seen[normalizedURL] = struct{}{}
	return true
}

// Contains reports whether the URL is in the set
func (v *VisitedSet) Contains(normalizedURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[normalizedURL]
	return ok
}

// Len returns the number of URLs in the set
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
