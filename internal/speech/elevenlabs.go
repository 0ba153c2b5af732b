package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultElevenLabsVoiceID = "21m00Tcm4TlvDq8ikWAM"

// ElevenLabsClient calls the ElevenLabs text-to-speech API directly over
// HTTP. No provider SDK is used outside this adapter.
type ElevenLabsClient struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
}

type ElevenLabsOption func(*ElevenLabsClient)

// WithElevenLabsBaseURL overrides the API base URL. Intended for tests.
func WithElevenLabsBaseURL(u string) ElevenLabsOption {
	return func(c *ElevenLabsClient) { c.baseURL = u }
}

// WithElevenLabsVoice selects a voice.
func WithElevenLabsVoice(voiceID string) ElevenLabsOption {
	return func(c *ElevenLabsClient) { c.voiceID = voiceID }
}

// WithElevenLabsHTTPClient overrides the underlying HTTP client.
func WithElevenLabsHTTPClient(hc *http.Client) ElevenLabsOption {
	return func(c *ElevenLabsClient) { c.httpClient = hc }
}

func NewElevenLabsClient(apiKey string, opts ...ElevenLabsOption) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("speech: elevenlabs api key is required")
	}
	c := &ElevenLabsClient{
		apiKey:     apiKey,
		voiceID:    defaultElevenLabsVoiceID,
		baseURL:    "https://api.elevenlabs.io",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to MP3 audio.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("speech: text is required")
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech: encode elevenlabs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/text-to-speech/"+c.voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("speech: build elevenlabs request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech: elevenlabs returned %d: %s", resp.StatusCode, snippet)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read elevenlabs audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech: empty audio from elevenlabs")
	}
	return audio, nil
}
