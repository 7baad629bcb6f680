package client

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue(ctx)
		if !ok {
			t.Fatalf("Dequeue() ok = false, want %q", want)
		}
		if got != want {
			t.Errorf("Dequeue() = %q, want %q", got, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", q.Len())
	}
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewQueue()

	got := make(chan string, 1)
	go func() {
		item, ok := q.Dequeue(context.Background())
		if ok {
			got <- item
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Enqueue("woke")

	select {
	case item := <-got:
		if item != "woke" {
			t.Errorf("Dequeue() = %q, want woke", item)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake on Enqueue")
	}
}

func TestQueue_DequeueHonorsContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Error("Dequeue() ok = true after cancellation, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return on context cancellation")
	}
}

func TestQueue_CloseDrainsThenEnds(t *testing.T) {
	q := NewQueue()
	q.Enqueue("before")
	q.Close()

	// Already-queued records stay dequeueable.
	ctx := context.Background()
	got, ok := q.Dequeue(ctx)
	if !ok || got != "before" {
		t.Fatalf("Dequeue() = (%q, %v), want (before, true)", got, ok)
	}

	// Drained and closed: consumer sees the end.
	if _, ok := q.Dequeue(ctx); ok {
		t.Error("Dequeue() ok = true on closed drained queue, want false")
	}

	// Post-close enqueue is a silent no-op.
	q.Enqueue("late")
	if q.Len() != 0 {
		t.Errorf("Len() = %d after post-close enqueue, want 0", q.Len())
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()

	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue("r")
			}
		}()
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Errorf("Len() = %d, want %d", q.Len(), producers*perProducer)
	}
}

func TestQueue_SingleProducerOrderUnderConsumer(t *testing.T) {
	q := NewQueue()
	const n = 500

	var consumed []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			item, ok := q.Dequeue(context.Background())
			if !ok {
				return
			}
			consumed = append(consumed, item)
		}
	}()

	for i := 0; i < n; i++ {
		q.Enqueue(string(rune('0' + i%10)))
	}
	q.Close()
	<-done

	if len(consumed) != n {
		t.Fatalf("consumed %d records, want %d", len(consumed), n)
	}
	for i, item := range consumed {
		if want := string(rune('0' + i%10)); item != want {
			t.Fatalf("record %d = %q, want %q (order broken)", i, item, want)
		}
	}
}
