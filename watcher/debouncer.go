package watcher

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after which collected events are emitted.
const DefaultDebounce = 2 * time.Second

// Event is a debounced file system event for one path.
type Event struct {
	Path string
	Op   EventOp
}

// EventOp represents the type of file system operation.
type EventOp int

const (
	OpCreate EventOp = iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// Debouncer collects file system events and emits them as one batch after a
// quiet period. Events for the same path inside the window collapse into one,
// keeping the latest operation, except that a create followed by writes stays a create.
type Debouncer struct {
	interval time.Duration
	events   map[string]Event
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []Event
	done     chan struct{}
	sending  sync.WaitGroup
	stopped  bool
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{
		interval: interval,
		events:   make(map[string]Event),
		output:   make(chan []Event, 16),
		done:     make(chan struct{}),
	}
}

// Output returns the channel that receives batched events, sorted by path.
// It is closed by Stop.
func (d *Debouncer) Output() <-chan []Event {
	return d.output
}

// Add records an event and restarts the quiet period.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if previous, ok := d.events[path]; ok && previous.Op == OpCreate && op == OpWrite {
		op = OpCreate
	}
	d.events[path] = Event{Path: path, Op: op}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// flush hands the accumulated events to the output channel and resets the buffer.
// The send happens outside the lock and gives up once Stop is called.
func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.events) == 0 {
		d.mu.Unlock()
		return
	}

	batch := make([]Event, 0, len(d.events))
	for _, event := range d.events {
		batch = append(batch, event)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

	d.events = make(map[string]Event)
	d.sending.Add(1)
	d.mu.Unlock()

	defer d.sending.Done()
	select {
	case d.output <- batch:
	case <-d.done:
	}
}

// Stop drops pending events, waits for in-flight sends to give up and closes
// the output channel.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = nil
	close(d.done)
	d.mu.Unlock()

	d.sending.Wait()
	close(d.output)
}
