package whatsapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFormatPhoneNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"9876543210", "919876543210"},
		{"919876543210", "919876543210"},
		{"98765-43210", "919876543210"},
		{"+91 98765 43210", "919876543210"},
	}
	for _, c := range cases {
		if got := FormatPhoneNumber(c.in); got != c.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	if !ValidatePhoneNumber("9876543210") {
		t.Error("10-digit number should be valid")
	}
	if !ValidatePhoneNumber("919876543210") {
		t.Error("12-digit number with country code should be valid")
	}
	if ValidatePhoneNumber("12345") {
		t.Error("short number should be invalid")
	}
	if ValidatePhoneNumber("") {
		t.Error("empty number should be invalid")
	}
}

func TestCloudAPISendMessage(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/12345/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"messages":[{"id":"wamid.test"}]}`))
	}))
	defer srv.Close()

	svc := NewCloudAPIService("test-token", "12345")
	svc.SetBaseURL(srv.URL)

	if err := svc.SendMessage("9876543210", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["to"] != "919876543210" {
		t.Errorf("to = %v, want 919876543210", gotBody["to"])
	}
	if gotBody["type"] != "text" {
		t.Errorf("type = %v, want text", gotBody["type"])
	}
}

func TestCloudAPISendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid token"}}`))
	}))
	defer srv.Close()

	svc := NewCloudAPIService("bad-token", "12345")
	svc.SetBaseURL(srv.URL)

	if err := svc.SendMessage("9876543210", "hello"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestCloudAPISendMessageRejectsInvalidPhone(t *testing.T) {
	svc := NewCloudAPIService("token", "12345")
	if err := svc.SendMessage("123", "hello"); err == nil {
		t.Fatal("expected error for invalid phone")
	}
}
