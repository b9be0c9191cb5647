package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func TestResendMailerSend(t *testing.T) {
	var capturedAuth string
	var captured capturedEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		capturedAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer server.Close()

	mailer, err := NewResendMailer(ResendMailerConfig{APIKey: "re_test", BaseURL: server.URL, Client: server.Client()})
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}

	id, err := mailer.Send(context.Background(), "shop@boxplanet.shop", []string{"ops@boxplanet.shop"}, "subject", "body")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "email_123" {
		t.Fatalf("expected id email_123, got %s", id)
	}
	if capturedAuth != "Bearer re_test" {
		t.Fatalf("expected bearer auth, got %q", capturedAuth)
	}
	if captured.From != "shop@boxplanet.shop" || len(captured.To) != 1 {
		t.Fatalf("payload not forwarded, got %#v", captured)
	}
	if captured.Subject != "subject" || captured.Text != "body" {
		t.Fatalf("subject/body not forwarded, got %#v", captured)
	}
}

func TestResendMailerSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"invalid_from_address","message":"The from address is not verified."}`))
	}))
	defer server.Close()

	mailer, err := NewResendMailer(ResendMailerConfig{APIKey: "re_test", BaseURL: server.URL, Client: server.Client()})
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}

	id, err := mailer.Send(context.Background(), "bad@nowhere", []string{"ops@boxplanet.shop"}, "s", "b")
	if err == nil {
		t.Fatalf("expected error for 422 response")
	}
	if id != "" {
		t.Fatalf("failed send must not report an id, got %q", id)
	}
}

func TestNewResendMailerRequiresKey(t *testing.T) {
	if _, err := NewResendMailer(ResendMailerConfig{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
