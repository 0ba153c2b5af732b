package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only the verbs this service speaks are modeled: Say, Gather (speech input)
// and Record (voicemail capture).

const promptVoice = "Polly.Amy"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Language      string   `xml:"language,attr"`
	Enhanced      bool     `xml:"enhanced,attr"`
	Say           twimlSay `xml:"Say"`
}

type twimlRecord struct {
	XMLName    xml.Name `xml:"Record"`
	Action     string   `xml:"action,attr"`
	MaxLength  int      `xml:"maxLength,attr"`
	Transcribe bool     `xml:"transcribe,attr"`
	PlayBeep   bool     `xml:"playBeep,attr"`
}

// SayTwiML speaks a message and hangs up.
func SayTwiML(message string) (string, error) {
	if message == "" {
		return "", errors.New("telephony: message required")
	}
	return renderTwiML(twimlSay{Voice: promptVoice, Text: message})
}

// GatherTwiML speaks a message inside a speech gather. The carrier posts the
// recognized speech to actionURL.
func GatherTwiML(message, actionURL string) (string, error) {
	if message == "" {
		return "", errors.New("telephony: message required")
	}
	if actionURL == "" {
		return "", errors.New("telephony: gather action url required")
	}
	return renderTwiML(twimlGather{
		Input:         "speech",
		Timeout:       3,
		SpeechTimeout: "auto",
		Action:        actionURL,
		Method:        "POST",
		Language:      "en-US",
		Enhanced:      true,
		Say:           twimlSay{Voice: promptVoice, Text: message},
	})
}

// VoicemailTwiML speaks a message and then records the callee, posting the
// recording event to actionURL.
func VoicemailTwiML(message, actionURL string) (string, error) {
	if message == "" {
		return "", errors.New("telephony: message required")
	}
	if actionURL == "" {
		return "", errors.New("telephony: record action url required")
	}
	return renderTwiML(
		twimlSay{Voice: promptVoice, Text: message},
		twimlRecord{
			Action:     actionURL,
			MaxLength:  30,
			Transcribe: true,
			PlayBeep:   true,
		},
	)
}

func renderTwiML(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

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
