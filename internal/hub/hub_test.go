package hub

import (
	"testing"
	"time"
)

func recv(t *testing.T, s *Subscriber) Event {
	t.Helper()
	select {
	case e, ok := <-s.Events():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_DeliversInOrderPerJob(t *testing.T) {
	h := New(16)
	defer h.Close()

	sub := h.Subscribe()
	defer sub.Close()

	for _, p := range []int{10, 40, 100} {
		status := StatusProcessing
		if p == 100 {
			status = StatusCompleted
		}
		h.Publish(Event{JobID: "job-1", Percentage: p, Status: status})
	}

	last := -1
	for {
		e := recv(t, sub)
		if e.JobID != "job-1" {
			t.Fatalf("unexpected job id %q", e.JobID)
		}
		if e.Percentage < last {
			t.Fatalf("percentage went backwards: %d after %d", e.Percentage, last)
		}
		last = e.Percentage
		if e.Terminal() {
			break
		}
	}
	if last != 100 {
		t.Fatalf("terminal percentage = %d, want 100", last)
	}
}

func TestHub_NoReplayForLateSubscribers(t *testing.T) {
	h := New(16)
	defer h.Close()

	h.Publish(Event{JobID: "job-1", Percentage: 50, Status: StatusProcessing})

	sub := h.Subscribe()
	defer sub.Close()

	select {
	case e := <-sub.Events():
		t.Fatalf("late subscriber received replayed event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	h := New(1)
	defer h.Close()

	slow := h.Subscribe()
	defer slow.Close()
	fast := h.Subscribe()
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.Publish(Event{JobID: "job-1", Percentage: i, Status: StatusProcessing})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// the slow subscriber kept only its buffer; the first event it holds is
	// the earliest one published
	e := recv(t, slow)
	if e.Percentage != 0 {
		t.Fatalf("expected first buffered event, got %d", e.Percentage)
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := New(4)
	defer h.Close()

	sub := h.Subscribe()
	sub.Close()

	// must not panic and must not deliver
	h.Publish(Event{JobID: "job-1", Percentage: 10, Status: StatusProcessing})

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed feed after unsubscribe")
	}
}

func TestHub_CloseTearsDownSubscribers(t *testing.T) {
	h := New(4)
	sub := h.Subscribe()
	h.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed feed after hub shutdown")
	}
	// closing again is a no-op
	h.Close()
	sub.Close()
}
