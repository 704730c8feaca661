package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Voice markup built directly with encoding/xml; the two verbs we need
// don't justify a provider SDK.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlDial struct {
	XMLName  xml.Name `xml:"Dial"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Number   string   `xml:"Number,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoiceResponse describes what an answered call should do: optionally speak
// a greeting, then bridge to a number or hang up.
type VoiceResponse struct {
	Greeting string
	DialTo   string
	CallerID string
}

// RenderVoiceTwiML produces the markup document returned from the voice
// webhook endpoint.
func RenderVoiceTwiML(v VoiceResponse) (string, error) {
	var r twimlResponse

	if g := strings.TrimSpace(v.Greeting); g != "" {
		r.Verbs = append(r.Verbs, twimlSay{Text: g})
	}
	if d := strings.TrimSpace(v.DialTo); d != "" {
		r.Verbs = append(r.Verbs, twimlDial{CallerID: v.CallerID, Number: d})
	} else {
		r.Verbs = append(r.Verbs, twimlHangup{})
	}
	if len(r.Verbs) == 0 {
		return "", errors.New("telephony: empty voice response")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
