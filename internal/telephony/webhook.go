package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// StatusCallback is the subset of the provider's voice status webhook we
// consume. The provider sends application/x-www-form-urlencoded.
type StatusCallback struct {
	CallSid         string
	CallStatus      string
	DurationSeconds int
	From            string
	To              string
}

// ParseStatusCallback pulls the lifecycle fields out of a status webhook.
// CallStatus stays a raw string here; mapping to the closed status set is
// the caller's job so unmapped values stay distinguishable.
func ParseStatusCallback(r *http.Request) (StatusCallback, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallback{}, err
	}
	dur, _ := strconv.Atoi(r.PostFormValue("CallDuration"))
	return StatusCallback{
		CallSid:         r.PostFormValue("CallSid"),
		CallStatus:      r.PostFormValue("CallStatus"),
		DurationSeconds: dur,
		From:            normalizePhone(r.PostFormValue("From")),
		To:              normalizePhone(r.PostFormValue("To")),
	}, nil
}

// InboundSMS is an incoming message webhook.
type InboundSMS struct {
	MessageSid string
	From       string
	To         string
	Body       string
}

func ParseInboundSMS(r *http.Request) (InboundSMS, error) {
	if err := r.ParseForm(); err != nil {
		return InboundSMS{}, err
	}
	return InboundSMS{
		MessageSid: r.PostFormValue("MessageSid"),
		From:       normalizePhone(r.PostFormValue("From")),
		To:         normalizePhone(r.PostFormValue("To")),
		Body:       r.PostFormValue("Body"),
	}, nil
}

func normalizePhone(s string) string {
	// The provider sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}
