package tracking

// Buffer queues one metric's events in memory and appends them to the Store when it fills
// up or when told to. It is not safe for concurrent use; the Logger serializes access.
type Buffer struct {
	name     string
	capacity int
	pending  []MetricEvent
	store    *Store
}

// NewBuffer creates a buffer for metric that flushes every capacity events.
func NewBuffer(metric string, capacity int, store *Store) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		name:     metric,
		capacity: capacity,
		pending:  make([]MetricEvent, 0, capacity),
		store:    store,
	}
}

// Name returns the metric name.
func (b *Buffer) Name() string {
	return b.name
}

// Capacity returns the flush threshold.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len returns the number of pending events.
func (b *Buffer) Len() int {
	return len(b.pending)
}

// Add queues ev. When the buffer reaches capacity it is flushed before Add returns, on the
// caller's goroutine.
func (b *Buffer) Add(ev MetricEvent) error {
	b.pending = append(b.pending, ev)
	if len(b.pending) >= b.capacity {
		return b.Flush()
	}
	return nil
}

// Flush appends the pending events to the Store and empties the buffer. An empty buffer
// does not touch the file. On failure the events stay pending.
func (b *Buffer) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	if err := b.store.Append(b.name, b.pending); err != nil {
		return err
	}
	b.pending = make([]MetricEvent, 0, b.capacity)
	return nil
}
