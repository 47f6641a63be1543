package emailjs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/protech/repairbot/internal/emailjs"
	"github.com/protech/repairbot/internal/resilience"
)

func newClient(url string) *emailjs.Client {
	return emailjs.NewClient(emailjs.Config{
		BaseURL:    url,
		ServiceID:  "service_test",
		TemplateID: "template_test",
		PublicKey:  "pub",
		PrivateKey: "priv",
	}, nil)
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.0/email/send" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	err := newClient(server.URL+"/").Send(context.Background(), map[string]string{"name": "Tariro", "message": "hi"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got["service_id"] != "service_test" || got["template_id"] != "template_test" {
		t.Errorf("ids = %v / %v", got["service_id"], got["template_id"])
	}
	if got["user_id"] != "pub" || got["accessToken"] != "priv" {
		t.Errorf("keys = %v / %v", got["user_id"], got["accessToken"])
	}
	params, ok := got["template_params"].(map[string]any)
	if !ok || params["name"] != "Tariro" {
		t.Errorf("template_params = %v", got["template_params"])
	}
}

func TestSend_RelayError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer server.Close()

	err := newClient(server.URL).Send(context.Background(), nil)
	if !errors.Is(err, emailjs.ErrRelay) {
		t.Fatalf("Send() error = %v, want ErrRelay", err)
	}

	var relayErr *emailjs.RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("error %v is not a RelayError", err)
	}
	if relayErr.StatusCode != http.StatusBadRequest || relayErr.Text != "The template ID is invalid" {
		t.Errorf("RelayError = %+v", relayErr)
	}
	if !emailjs.IsPermanent(err) {
		t.Error("400 should be permanent")
	}
}

func TestSend_NotConfigured(t *testing.T) {
	t.Parallel()

	client := emailjs.NewClient(emailjs.Config{BaseURL: "http://127.0.0.1:1"}, nil)
	if client.Configured() {
		t.Error("Configured() = true for empty config")
	}
	if err := client.Send(context.Background(), nil); !errors.Is(err, emailjs.ErrNotConfigured) {
		t.Errorf("Send() error = %v, want ErrNotConfigured", err)
	}
}

func TestSend_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newClient(server.URL)
	for i := 0; i < 5; i++ {
		err := client.Send(context.Background(), nil)
		if emailjs.IsPermanent(err) {
			t.Fatalf("502 should not be permanent: %v", err)
		}
	}

	if err := client.Send(context.Background(), nil); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Send() after 5 failures error = %v, want ErrCircuitOpen", err)
	}
	if n := calls.Load(); n != 5 {
		t.Errorf("server calls = %d, want 5", n)
	}
}

func TestSend_ClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newClient(server.URL)
	for i := 0; i < 7; i++ {
		if err := client.Send(context.Background(), nil); !errors.Is(err, emailjs.ErrRelay) {
			t.Fatalf("attempt %d error = %v, want ErrRelay", i, err)
		}
	}
}
