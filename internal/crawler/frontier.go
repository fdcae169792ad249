package crawler

import (
	"sync"
)

// Frontier is the crawl controller's mutable state: the set of visited
// canonical URLs, the FIFO queue of pending URLs, and the page budget.
//
// Design decision: We model the crawl state as a single owned object with
// one mutex rather than separate synchronized collections because the
// correctness-critical operations (enqueue dedup, visited check-and-mark
// under budget) each need a consistent view of several fields at once.
// One lock around the whole state keeps those operations atomic.
type Frontier struct {
	mu sync.Mutex

	// visited holds every canonical URL that has been claimed for
	// fetching. It grows monotonically and never shrinks.
	visited map[string]struct{}

	// pending mirrors the queue for O(1) duplicate suppression.
	pending map[string]struct{}

	// queue is the FIFO order of pending URLs. Breadth-first traversal
	// depends on strict FIFO dequeueing.
	queue []string

	// maxPages is the hard cap on distinct URLs claimed.
	maxPages int
}

// NewFrontier creates a frontier seeded with a single canonical URL and
// a page budget. A non-positive budget means unlimited.
func NewFrontier(seed string, maxPages int) *Frontier {
	f := &Frontier{
		visited:  make(map[string]struct{}),
		pending:  make(map[string]struct{}),
		queue:    make([]string, 0),
		maxPages: maxPages,
	}
	f.Enqueue(seed)
	return f
}

// Enqueue adds a canonical URL to the pending queue unless it is already
// visited or already pending. Returns true if the URL was enqueued.
func (f *Frontier) Enqueue(canonical string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[canonical]; ok {
		return false
	}
	if _, ok := f.pending[canonical]; ok {
		return false
	}
	f.pending[canonical] = struct{}{}
	f.queue = append(f.queue, canonical)
	return true
}

// TakeQueued removes and returns every URL currently queued, in FIFO
// order. The Spider processes the snapshot as one breadth-first wave:
// URLs discovered while the wave runs land in the next snapshot.
func (f *Frontier) TakeQueued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return nil
	}
	batch := f.queue
	f.queue = make([]string, 0)
	for _, u := range batch {
		delete(f.pending, u)
	}
	return batch
}

// Claim atomically marks a URL as visited if it has not been visited and
// the page budget is not exhausted. Returns true when the caller may
// fetch the URL. A URL for which Claim returned true will never be
// claimable again, so no URL is fetched twice even when discovered by
// two in-flight fetches concurrently.
func (f *Frontier) Claim(canonical string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[canonical]; ok {
		return false
	}
	if f.maxPages > 0 && len(f.visited) >= f.maxPages {
		return false
	}
	f.visited[canonical] = struct{}{}
	return true
}

// VisitedCount returns the number of claimed URLs.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// PendingCount returns the number of queued URLs.
func (f *Frontier) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// BudgetExhausted reports whether the page budget has been reached.
func (f *Frontier) BudgetExhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxPages > 0 && len(f.visited) >= f.maxPages
}
