package observability

import "sync"

// LogEntry is a single queued log line.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// AsyncLogger is a bounded, non-blocking MPSC log queue: producers never
// block on a full queue, instead the oldest entries are dropped and a
// drop counter increments, per spec §5's AsyncLogger policy.
type AsyncLogger struct {
	queue  chan LogEntry
	drops  *Collector
	done   chan struct{}
	wg     sync.WaitGroup
	sinkFn func(LogEntry)
}

// NewAsyncLogger starts a single consumer goroutine draining queue into
// sinkFn, with a bounded channel of the given capacity.
func NewAsyncLogger(capacity int, drops *Collector, sinkFn func(LogEntry)) *AsyncLogger {
	l := &AsyncLogger{
		queue:  make(chan LogEntry, capacity),
		drops:  drops,
		done:   make(chan struct{}),
		sinkFn: sinkFn,
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *AsyncLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			l.drain()
			return
		case entry := <-l.queue:
			l.sinkFn(entry)
		}
	}
}

func (l *AsyncLogger) drain() {
	for {
		select {
		case entry := <-l.queue:
			l.sinkFn(entry)
		default:
			return
		}
	}
}

// Log enqueues entry without blocking; if the queue is full, the oldest
// queued entry is dropped to make room and a drop counter is incremented.
func (l *AsyncLogger) Log(entry LogEntry) {
	select {
	case l.queue <- entry:
	default:
		select {
		case <-l.queue:
		default:
		}
		select {
		case l.queue <- entry:
		default:
		}
		if l.drops != nil {
			l.drops.IncrementCounter("async_logger_drops", 1, "observability", nil)
		}
	}
}

// Close stops the consumer goroutine after draining whatever remains
// queued.
func (l *AsyncLogger) Close() {
	close(l.done)
	l.wg.Wait()
}
