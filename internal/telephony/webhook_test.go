package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseStatusCallback(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("CallStatus", "completed")
	form.Set("CallDuration", "42")
	form.Set("From", " +15550001111 ")
	form.Set("To", "+15552223333")

	req := httptest.NewRequest("POST", "/webhooks/voice/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	cb, err := ParseStatusCallback(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cb.CallSid != "CA123" || cb.CallStatus != "completed" {
		t.Fatalf("unexpected callback: %+v", cb)
	}
	if cb.DurationSeconds != 42 {
		t.Fatalf("expected duration parsed, got %d", cb.DurationSeconds)
	}
	if cb.From != "+15550001111" {
		t.Fatalf("expected trimmed phone, got %q", cb.From)
	}
}

func TestParseStatusCallback_MissingDurationIsZero(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("CallStatus", "ringing")

	req := httptest.NewRequest("POST", "/webhooks/voice/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	cb, err := ParseStatusCallback(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cb.DurationSeconds != 0 {
		t.Fatalf("expected zero duration, got %d", cb.DurationSeconds)
	}
}

func TestParseInboundSMS(t *testing.T) {
	form := url.Values{}
	form.Set("MessageSid", "SM123")
	form.Set("From", "+15550001111")
	form.Set("To", "+15552223333")
	form.Set("Body", "hello")

	req := httptest.NewRequest("POST", "/webhooks/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	sms, err := ParseInboundSMS(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sms.MessageSid != "SM123" || sms.Body != "hello" {
		t.Fatalf("unexpected sms: %+v", sms)
	}
}
