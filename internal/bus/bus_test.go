package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup

	err := bus.Subscribe(context.Background(), TopicRoundCompleted, func(ctx context.Context, event Event) error {
		received.Add(1)
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	wg.Add(3)
	for round := 0; round < 3; round++ {
		ev := NewEvent(TopicRoundCompleted, "test", RoundCompleted{RunID: "run-1", Round: round})
		if err := bus.Publish(context.Background(), TopicRoundCompleted, ev); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for events")
	}

	if got := received.Load(); got != 3 {
		t.Errorf("Received %d events, want 3", got)
	}
}

func TestMemoryBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var count1, count2 atomic.Int32
	var wg sync.WaitGroup

	bus.Subscribe(context.Background(), TopicMethodCompleted, func(ctx context.Context, event Event) error {
		count1.Add(1)
		wg.Done()
		return nil
	})
	bus.Subscribe(context.Background(), TopicMethodCompleted, func(ctx context.Context, event Event) error {
		count2.Add(1)
		wg.Done()
		return nil
	})

	// Both subscribers should receive the single event
	wg.Add(2)
	bus.Publish(context.Background(), TopicMethodCompleted,
		NewEvent(TopicMethodCompleted, "test", MethodCompleted{Method: "Baseline"}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout")
	}

	if count1.Load() != 1 || count2.Load() != 1 {
		t.Errorf("Expected both subscribers to receive 1 event, got %d and %d", count1.Load(), count2.Load())
	}
}

func TestMemoryBus_PublishNoSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	err := bus.Publish(context.Background(), TopicRunStarted,
		NewEvent(TopicRunStarted, "test", RunStarted{RunID: "run-1"}))
	if err != nil {
		t.Errorf("Publish() with no subscribers should not error, got %v", err)
	}
}

func TestMemoryBus_ClosedBus(t *testing.T) {
	bus := NewMemoryBus()
	bus.Close()

	if err := bus.Publish(context.Background(), TopicRunStarted, Event{}); err == nil {
		t.Error("Publish() on closed bus should error")
	}
	if err := bus.Subscribe(context.Background(), TopicRunStarted, nil); err == nil {
		t.Error("Subscribe() on closed bus should error")
	}
}

func TestParseKafkaBrokers(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"localhost:9092", 1},
		{"a:9092, b:9092,c:9092", 3},
	}

	for _, tt := range tests {
		got := ParseKafkaBrokers(tt.input)
		if len(got) != tt.want {
			t.Errorf("ParseKafkaBrokers(%q) = %v, want %d brokers", tt.input, got, tt.want)
		}
		for _, b := range got {
			if b != "" && (b[0] == ' ' || b[len(b)-1] == ' ') {
				t.Errorf("broker %q not trimmed", b)
			}
		}
	}
}
