package frontier

import (
	"sync"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/models"
)

// Frontier is the FIFO queue of pending crawl tasks. Enqueue appends,
// NextBatch removes from the front. Deduplication against the visited set is
// best-effort at enqueue time (the caller checks); the authoritative check
// happens when the batch scheduler claims each task.
type Frontier struct {
	mu    sync.Mutex
	tasks []models.CrawlTask
	log   *logrus.Logger
}

// NewFrontier creates an empty frontier
func NewFrontier(log *logrus.Logger) *Frontier {
	return &Frontier{log: log}
}

// Enqueue appends a task to the back of the queue. A URL enqueued at multiple
// depths keeps whichever depth it was first enqueued with, because the
// visited check prevents any URL from being processed twice.
func (f *Frontier) Enqueue(task models.CrawlTask) {
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
}

// NextBatch removes and returns up to n tasks from the front of the queue
func (f *Frontier) NextBatch(n int) []models.CrawlTask {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n <= 0 || len(f.tasks) == 0 {
		return nil
	}
	if n > len(f.tasks) {
		n = len(f.tasks)
	}
	batch := make([]models.CrawlTask, n)
	copy(batch, f.tasks[:n])
	f.tasks = f.tasks[n:]
	return batch
}

// Len returns the number of pending tasks
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}
