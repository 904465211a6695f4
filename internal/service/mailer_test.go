package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	q "github.com/idturva/subscription-portal/internal/queue"
)

func TestSendOrderConfirmation(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, "secret-key", "tilaukset@example.fi")
	ev := q.OrderCreatedEvent{
		OrderNumber:     "TIL-ABCDEF123456",
		CustomerName:    "Maija Meikäläinen",
		CustomerEmail:   "maija@example.fi",
		Items:           []q.OrderItemLine{{Title: "Package A", Price: "19.99", Quantity: 2}},
		TotalAmount:     "39.98",
		ConfirmationURL: "https://example.fi/confirm-order/deadbeef",
	}
	if err := m.SendOrderConfirmation(ev); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody.To != "maija@example.fi" {
		t.Errorf("to = %q", gotBody.To)
	}
	if !strings.Contains(gotBody.Subject, "TIL-ABCDEF123456") {
		t.Errorf("subject %q lacks order number", gotBody.Subject)
	}
	// The confirmation link with the token must appear in the body.
	if !strings.Contains(gotBody.Text, "https://example.fi/confirm-order/deadbeef") {
		t.Errorf("body lacks confirmation link:\n%s", gotBody.Text)
	}
	if !strings.Contains(gotBody.Text, "39.98") {
		t.Errorf("body lacks total:\n%s", gotBody.Text)
	}
}

func TestSendOrderConfirmationAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, "k", "f@example.fi")
	err := m.SendOrderConfirmation(q.OrderCreatedEvent{CustomerEmail: "x@example.fi"})
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
