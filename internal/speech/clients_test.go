package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeepgramClient_TranscribeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
			t.Fatalf("expected url in body, err=%v", err)
		}
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"yes I took them"}]}]}}`))
	}))
	defer srv.Close()

	c, err := NewDeepgramClient("dg-key", WithDeepgramBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := c.TranscribeURL(context.Background(), "https://example.com/audio.mp3")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "yes I took them" {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestDeepgramClient_EmptyTranscriptIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	c, _ := NewDeepgramClient("dg-key", WithDeepgramBaseURL(srv.URL))
	if _, err := c.TranscribeURL(context.Background(), "https://example.com/audio.mp3"); err == nil {
		t.Fatalf("expected error for empty transcript")
	}
}

func TestElevenLabsClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "el-key" {
			t.Fatalf("unexpected api key header %q", got)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c, err := NewElevenLabsClient("el-key", WithElevenLabsBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	audio, err := c.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}
}

func TestClientsRequireAPIKeys(t *testing.T) {
	if _, err := NewDeepgramClient(""); err == nil {
		t.Fatalf("expected error for missing deepgram key")
	}
	if _, err := NewElevenLabsClient(""); err == nil {
		t.Fatalf("expected error for missing elevenlabs key")
	}
}
