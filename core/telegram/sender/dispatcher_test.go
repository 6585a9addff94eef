package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/botkit/core/telegram/api"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 8})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "sendMessage", func(context.Context) error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("ErrorCount = %d", d.ErrorCount())
	}
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "sendMessage", func(context.Context) error {
		if calls.Add(1) < 3 {
			return &api.Error{Code: 502, Description: "bad gateway"}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retry never succeeded")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestDispatcherDoesNotRetryClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	err := d.Enqueue(context.Background(), "sendMessage", func(context.Context) error {
		calls.Add(1)
		return &api.Error{Code: 400, Description: "bad request"}
	})
	if err != nil {
		t.Fatal(err)
	}
	d.Close()

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "sendMessage", func(context.Context) error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}
