package queue

import "testing"

func TestHubDeliversToSubscribers(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish("order.created")
	select {
	case note := <-ch:
		if note != "order.created" {
			t.Fatalf("note = %q, want order.created", note)
		}
	default:
		t.Fatal("no note delivered")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	// Fill the buffer and one more; Publish must not block.
	for i := 0; i < 16; i++ {
		h.Publish("n")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered = %d, want full buffer %d", len(ch), cap(ch))
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	h.Publish("after-cancel")
	if len(ch) != 0 {
		t.Fatal("cancelled subscriber still received a note")
	}
}
