package sequence

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryNextStartsAtOne(t *testing.T) {
	t.Parallel()

	alloc := NewMemory()
	n, err := alloc.Next(context.Background(), "CS")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if n != 1 {
		t.Fatalf("first allocation = %d, want 1", n)
	}
}

func TestMemoryConcurrentAllocationsAreGapFree(t *testing.T) {
	t.Parallel()

	const workers = 100
	alloc := NewMemory()

	var wg sync.WaitGroup
	results := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(context.Background(), "CS")
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, workers)
	for n := range results {
		if seen[n] {
			t.Fatalf("number %d allocated twice", n)
		}
		seen[n] = true
	}
	if len(seen) != workers {
		t.Fatalf("got %d numbers, want %d", len(seen), workers)
	}
	for i := int64(1); i <= workers; i++ {
		if !seen[i] {
			t.Fatalf("missing number %d: stream must be exactly {1..%d}", i, workers)
		}
	}
}

func TestMemoryPrefixesAreIndependent(t *testing.T) {
	t.Parallel()

	alloc := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := alloc.Next(ctx, "CS"); err != nil {
			t.Fatalf("Next CS: %v", err)
		}
	}
	n, err := alloc.Next(ctx, "ENG")
	if err != nil {
		t.Fatalf("Next ENG: %v", err)
	}
	if n != 1 {
		t.Fatalf("ENG stream started at %d, want 1", n)
	}
}
