package watcher

import (
	"fmt"
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []Event {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/a.jpg", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "/data/a.jpg" {
		t.Errorf("expected path '/data/a.jpg', got '%s'", batch[0].Path)
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected OpWrite, got %s", batch[0].Op)
	}
}

func Test_Debouncer_CreateThenWriteStaysCreate(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/a.jpg", OpCreate)
	d.Add("/data/a.jpg", OpWrite)
	d.Add("/data/a.jpg", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event (collapsed), got %d", len(batch))
	}
	if batch[0].Op != OpCreate {
		t.Errorf("expected OpCreate, got %s", batch[0].Op)
	}
}

func Test_Debouncer_LatestOpWins(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/a.jpg", OpWrite)
	d.Add("/data/a.jpg", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 || batch[0].Op != OpRemove {
		t.Fatalf("expected single OpRemove, got %v", batch)
	}
}

func Test_Debouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/c", OpWrite)
	d.Add("/data/a", OpCreate)
	d.Add("/data/b", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch))
	}
	expectedPaths := []string{"/data/a", "/data/b", "/data/c"}
	for i, expected := range expectedPaths {
		if batch[i].Path != expected {
			t.Errorf("event[%d]: expected path '%s', got '%s'", i, expected, batch[i].Path)
		}
	}
}

func Test_Debouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/a", OpWrite)

	// Wait less than the interval, then add another event; both land in one batch.
	time.Sleep(testInterval / 2)
	d.Add("/data/b", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 2 {
		t.Fatalf("expected 2 events in single batch, got %d", len(batch))
	}
}

func Test_Debouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(testInterval)
	d.Add("/data/a", OpWrite)
	d.Stop()
	d.Stop()

	select {
	case _, ok := <-d.Output():
		if ok {
			t.Error("expected no batch after Stop")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected output to be closed")
	}

	// Adding after Stop must not panic.
	d.Add("/data/b", OpWrite)
}

func Test_Debouncer_StopWithFullOutput(t *testing.T) {
	d := NewDebouncer(time.Millisecond)
	capacity := cap(d.output)

	// One batch per quiet period, with nobody reading, overflows the buffer.
	for i := 0; i <= capacity; i++ {
		d.Add(fmt.Sprintf("/data/%02d", i), OpWrite)
		time.Sleep(10 * time.Millisecond)
	}

	added := make(chan struct{})
	go func() {
		d.Add("/data/late", OpWrite)
		close(added)
	}()
	select {
	case <-added:
	case <-time.After(2 * time.Second):
		t.Fatal("Add blocked behind a pending send")
	}

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked behind a pending send")
	}

	batches := 0
	for range d.Output() {
		batches++
	}
	if batches == 0 || batches > capacity {
		t.Errorf("expected between 1 and %d buffered batches, got %d", capacity, batches)
	}
}

func Test_NewDebouncer_DefaultInterval(t *testing.T) {
	d := NewDebouncer(0)
	if d.interval != DefaultDebounce {
		t.Errorf("expected %s, got %s", DefaultDebounce, d.interval)
	}
}
