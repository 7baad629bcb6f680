package server

import (
	"sync"
	"time"

	"github.com/linetap/linetap/internal/domain"
	"github.com/linetap/linetap/pkg/log"
)

// Sink receives each flushed batch of record texts, in order.
// It is invoked from the aggregator goroutine; a slow sink delays the next
// flush but never blocks producers, which only append to the pending batch.
type Sink func(records []string)

// Aggregator collects decoded records from all connections (and local
// injection) into one ordered batch and flushes it to the sink on a debounce
// window: the first record after a flush arms a one-shot timer, further
// records accumulate, and when the timer fires the whole batch is delivered
// as one unit.
//
// A single goroutine owns the batch and the timer, so append ordering and
// the arm-once semantics need no extra locking.
type Aggregator struct {
	window time.Duration
	sink   Sink
	logger log.Logger

	in chan []string

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewAggregator creates an aggregator flushing to sink after window.
func NewAggregator(window time.Duration, sink Sink, logger log.Logger) *Aggregator {
	return &Aggregator{
		window: window,
		sink:   sink,
		logger: logger,
		in:     make(chan []string, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the aggregation goroutine.
func (a *Aggregator) Start() {
	go a.run()
}

// Append queues records for the next flush. Safe for concurrent use from any
// number of connections. Records appended after Stop are dropped.
func (a *Aggregator) Append(records []string) {
	if len(records) == 0 {
		return
	}
	select {
	case a.in <- records:
	case <-a.stop:
	}
}

// Stop shuts the aggregator down. A pending non-empty batch is delivered one
// final time; records that never reached the batch are not. Stop is
// idempotent and returns once the goroutine has exited.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

func (a *Aggregator) run() {
	defer close(a.done)

	batch := domain.NewBatch()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case records := <-a.in:
			if batch.Empty() {
				// First append since the last flush arms the window.
				timer = time.NewTimer(a.window)
				fire = timer.C
			}
			batch.Append(records...)

		case <-fire:
			timer = nil
			fire = nil
			a.flush(batch)

		case <-a.stop:
			if timer != nil {
				timer.Stop()
			}
			// Drain records already handed over before the stop.
			for {
				select {
				case records := <-a.in:
					batch.Append(records...)
					continue
				default:
				}
				break
			}
			a.flush(batch)
			return
		}
	}
}

func (a *Aggregator) flush(batch *domain.Batch) {
	if batch.Empty() {
		return
	}
	records := batch.Take()
	a.logger.Debug("flushing batch", log.Int("records", len(records)))
	a.sink(records)
}
