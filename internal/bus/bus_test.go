package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beirkit/beirkit/internal/config"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	var got atomic.Value
	err := b.Subscribe(context.Background(), TopicDatasetValidated, func(ctx context.Context, event Event) error {
		got.Store(event)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	event := NewEvent(TopicDatasetValidated, "validator", map[string]int{"corpus": 3})
	if err := b.Publish(context.Background(), TopicDatasetValidated, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if !b.DrainTimeout(time.Second) {
		t.Fatal("handlers did not drain")
	}

	received, ok := got.Load().(Event)
	if !ok {
		t.Fatal("handler never ran")
	}
	if received.ID != event.ID {
		t.Errorf("received ID = %s, want %s", received.ID, event.ID)
	}
	if received.Type != TopicDatasetValidated {
		t.Errorf("received Type = %s", received.Type)
	}
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	// No subscribers is not an error
	if err := b.Publish(context.Background(), TopicEvalCompleted, NewEvent(TopicEvalCompleted, "test", nil)); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestMemoryBus_Closed(t *testing.T) {
	b := NewMemoryBus()
	b.Close()

	if err := b.Publish(context.Background(), TopicDatasetValidated, Event{}); err == nil {
		t.Error("Publish() after Close should fail")
	}
	if err := b.Subscribe(context.Background(), TopicDatasetValidated, nil); err == nil {
		t.Error("Subscribe() after Close should fail")
	}
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(TopicDatasetInvalid, "validator", nil)
	b := NewEvent(TopicDatasetInvalid, "validator", nil)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event IDs not unique: %q vs %q", a.ID, b.ID)
	}
	if a.Timestamp == 0 {
		t.Error("timestamp not set")
	}
}

func TestNewBus_Factory(t *testing.T) {
	b, err := NewBus(config.BusConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewBus(memory) error = %v", err)
	}
	if _, ok := b.(*MemoryBus); !ok {
		t.Errorf("NewBus(memory) = %T", b)
	}
	b.Close()

	if _, err := NewBus(config.BusConfig{Type: "kafka"}); err == nil {
		t.Error("NewBus(kafka) without brokers should fail")
	}

	if _, err := NewBus(config.BusConfig{Type: "rabbitmq"}); err == nil {
		t.Error("NewBus(rabbitmq) should fail")
	}
}
