package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DeepgramClient calls the Deepgram pre-recorded transcription API directly
// over HTTP. No provider SDK is used outside this adapter.
type DeepgramClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type DeepgramOption func(*DeepgramClient)

// WithDeepgramBaseURL overrides the API base URL. Intended for tests.
func WithDeepgramBaseURL(u string) DeepgramOption {
	return func(c *DeepgramClient) { c.baseURL = u }
}

// WithDeepgramHTTPClient overrides the underlying HTTP client.
func WithDeepgramHTTPClient(hc *http.Client) DeepgramOption {
	return func(c *DeepgramClient) { c.httpClient = hc }
}

func NewDeepgramClient(apiKey string, opts ...DeepgramOption) (*DeepgramClient, error) {
	if apiKey == "" {
		return nil, errors.New("speech: deepgram api key is required")
	}
	c := &DeepgramClient{
		apiKey:     apiKey,
		baseURL:    "https://api.deepgram.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type deepgramURLRequest struct {
	URL string `json:"url"`
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// TranscribeURL asks Deepgram to fetch and transcribe audio hosted at
// mediaURL.
func (c *DeepgramClient) TranscribeURL(ctx context.Context, mediaURL string) (string, error) {
	if mediaURL == "" {
		return "", errors.New("speech: media url is required")
	}

	body, err := json.Marshal(deepgramURLRequest{URL: mediaURL})
	if err != nil {
		return "", fmt.Errorf("speech: encode deepgram request: %w", err)
	}

	q := url.Values{}
	q.Set("punctuate", "true")
	q.Set("model", "general")
	q.Set("language", "en-US")
	q.Set("smart_format", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/listen?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("speech: build deepgram request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: deepgram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("speech: deepgram returned %d: %s", resp.StatusCode, snippet)
	}

	var out deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("speech: decode deepgram response: %w", err)
	}

	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", errors.New("speech: no transcript in deepgram response")
	}
	transcript := out.Results.Channels[0].Alternatives[0].Transcript
	if transcript == "" {
		return "", errors.New("speech: no transcript in deepgram response")
	}
	return transcript, nil
}
