package telephony

import (
	"strings"
	"testing"
)

func TestRenderVoiceTwiML_GreetingThenDial(t *testing.T) {
	out, err := RenderVoiceTwiML(VoiceResponse{
		Greeting: "Connecting you now",
		DialTo:   "+15551234567",
		CallerID: "+15550001111",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, want := range []string{
		"<Response>",
		"<Say>Connecting you now</Say>",
		`callerId="+15550001111"`,
		"<Number>+15551234567</Number>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Fatalf("expected xml header")
	}
}

func TestRenderVoiceTwiML_GreetingOnlyHangsUp(t *testing.T) {
	out, err := RenderVoiceTwiML(VoiceResponse{Greeting: "Nobody is available"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(out, "<Hangup") {
		t.Fatalf("expected hangup without dial target:\n%s", out)
	}
}

func TestRenderVoiceTwiML_DialWithoutGreeting(t *testing.T) {
	out, err := RenderVoiceTwiML(VoiceResponse{DialTo: "+15551234567"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Contains(out, "<Say") {
		t.Fatalf("unexpected Say verb:\n%s", out)
	}
}
