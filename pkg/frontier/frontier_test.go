package frontier

import (
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/models"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestFrontier_FIFOOrder(t *testing.T) {
	f := NewFrontier(testLogger())

	for i := 0; i < 5; i++ {
		f.Enqueue(models.CrawlTask{URL: fmt.Sprintf("https://example.com/%d", i), Depth: 0})
	}
	if f.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", f.Len())
	}

	batch := f.NextBatch(3)
	if len(batch) != 3 {
		t.Fatalf("NextBatch(3) returned %d tasks, want 3", len(batch))
	}
	for i, task := range batch {
		want := fmt.Sprintf("https://example.com/%d", i)
		if task.URL != want {
			t.Errorf("batch[%d].URL = %q, want %q", i, task.URL, want)
		}
	}
	if f.Len() != 2 {
		t.Errorf("after NextBatch(3), Len() = %d, want 2", f.Len())
	}
}

func TestFrontier_NextBatchBounds(t *testing.T) {
	f := NewFrontier(testLogger())
	f.Enqueue(models.CrawlTask{URL: "https://example.com/a"})

	if batch := f.NextBatch(0); batch != nil {
		t.Errorf("NextBatch(0) = %v, want nil", batch)
	}
	if batch := f.NextBatch(10); len(batch) != 1 {
		t.Errorf("NextBatch(10) returned %d tasks, want 1", len(batch))
	}
	if batch := f.NextBatch(5); batch != nil {
		t.Errorf("NextBatch on empty frontier = %v, want nil", batch)
	}
}

func TestFrontier_PreservesTaskFields(t *testing.T) {
	f := NewFrontier(testLogger())
	hint := &models.SitemapHint{Priority: "0.8"}
	f.Enqueue(models.CrawlTask{URL: "https://example.com/page", Depth: 2, Hint: hint})

	batch := f.NextBatch(1)
	if len(batch) != 1 {
		t.Fatalf("NextBatch(1) returned %d tasks, want 1", len(batch))
	}
	if batch[0].Depth != 2 {
		t.Errorf("Depth = %d, want 2", batch[0].Depth)
	}
	if batch[0].Hint == nil || batch[0].Hint.Priority != "0.8" {
		t.Errorf("Hint = %+v, want priority 0.8", batch[0].Hint)
	}
}

func TestVisitedSet_MarkVisited(t *testing.T) {
	v := NewVisitedSet()

	if !v.MarkVisited("https://example.com/a") {
		t.Error("first MarkVisited returned false, want true")
	}
	if v.MarkVisited("https://example.com/a") {
		t.Error("second MarkVisited returned true, want false")
	}
	if !v.Contains("https://example.com/a") {
		t.Error("Contains returned false for visited URL")
	}
	if v.Contains("https://example.com/b") {
		t.Error("Contains returned true for unvisited URL")
	}
	if v.Len() != 1 {
		t.Errorf("Len() = %d, want 1", v.Len())
	}
}

func TestVisitedSet_ConcurrentClaims(t *testing.T) {
	v := NewVisitedSet()

	const goroutines = 50
	var wg sync.WaitGroup
	claims := make([]bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claims[i] = v.MarkVisited("https://example.com/contested")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, claimed := range claims {
		if claimed {
			won++
		}
	}
	if won != 1 {
		t.Errorf("%d goroutines claimed the URL, want exactly 1", won)
	}
}
