package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TwilioClient implements Gateway against the Twilio REST API using plain
// net/http with basic auth. No provider SDK is used outside this adapter.
type TwilioClient struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

type TwilioOption func(*TwilioClient)

// WithTwilioBaseURL overrides the API base URL. Intended for tests.
func WithTwilioBaseURL(u string) TwilioOption {
	return func(c *TwilioClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTwilioHTTPClient overrides the underlying HTTP client.
func WithTwilioHTTPClient(hc *http.Client) TwilioOption {
	return func(c *TwilioClient) { c.httpClient = hc }
}

func NewTwilioClient(accountSID, authToken, fromNumber string, opts ...TwilioOption) (*TwilioClient, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("telephony: twilio credentials are required")
	}
	if fromNumber == "" {
		return nil, errors.New("telephony: twilio sender number is required")
	}
	c := &TwilioClient{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    "https://api.twilio.com",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *TwilioClient) Name() string { return "twilio" }

type twilioCallResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

func (c *TwilioClient) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if req.To == "" {
		return PlaceCallResult{}, errors.New("telephony: destination number required")
	}
	if req.AnswerURL == "" {
		return PlaceCallResult{}, errors.New("telephony: answer url required")
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", c.fromNumber)
	form.Set("Url", req.AnswerURL)
	form.Set("Method", "POST")
	// AnsweredBy on the answer webhook distinguishes a person from voicemail.
	form.Set("MachineDetection", "Enable")
	if req.StatusURL != "" {
		form.Set("StatusCallback", req.StatusURL)
		form.Set("StatusCallbackMethod", "POST")
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}
	if req.Record {
		form.Set("Record", "true")
		if req.RecordingURL != "" {
			form.Set("RecordingStatusCallback", req.RecordingURL)
			form.Set("RecordingStatusCallbackMethod", "POST")
			form.Set("RecordingStatusCallbackEvent", "completed")
		}
	}

	var out twilioCallResponse
	path := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	if err := c.postForm(ctx, path, form, &out); err != nil {
		return PlaceCallResult{}, err
	}
	if out.Sid == "" {
		return PlaceCallResult{}, errors.New("telephony: twilio call response missing sid")
	}
	return PlaceCallResult{CallSID: out.Sid, Status: out.Status}, nil
}

type twilioMessageResponse struct {
	Sid string `json:"sid"`
}

func (c *TwilioClient) SendSMS(ctx context.Context, req SendSMSRequest) (SendSMSResult, error) {
	if req.To == "" {
		return SendSMSResult{}, errors.New("telephony: destination number required")
	}
	if req.Body == "" {
		return SendSMSResult{}, errors.New("telephony: message body required")
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", c.fromNumber)
	form.Set("Body", req.Body)

	var out twilioMessageResponse
	path := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	if err := c.postForm(ctx, path, form, &out); err != nil {
		return SendSMSResult{}, err
	}
	return SendSMSResult{MessageSID: out.Sid}, nil
}

type twilioRecordingResponse struct {
	Sid      string `json:"sid"`
	URI      string `json:"uri"`
	Duration string `json:"duration"`
}

func (c *TwilioClient) FetchRecording(ctx context.Context, req FetchRecordingRequest) (FetchRecordingResult, error) {
	if req.RecordingURL == "" {
		return FetchRecordingResult{}, errors.New("telephony: recording url required")
	}

	// The webhook delivers the resource URL without an extension; the JSON
	// representation lives at <url>.json and the audio at <url>.mp3.
	resource := strings.TrimSuffix(req.RecordingURL, ".json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, resource+".json", nil)
	if err != nil {
		return FetchRecordingResult{}, fmt.Errorf("telephony: build recording request: %w", err)
	}
	httpReq.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return FetchRecordingResult{}, fmt.Errorf("telephony: fetch recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FetchRecordingResult{}, twilioAPIError(resp)
	}

	var out twilioRecordingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FetchRecordingResult{}, fmt.Errorf("telephony: decode recording response: %w", err)
	}

	dur, _ := strconv.Atoi(out.Duration)
	uri := out.URI
	if uri == "" {
		uri = resource + ".json"
	}
	return FetchRecordingResult{
		RecordingSID:    out.Sid,
		URI:             uri,
		MediaURL:        resource + ".mp3",
		DurationSeconds: dur,
	}, nil
}

func (c *TwilioClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telephony: build twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return twilioAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("telephony: decode twilio response: %w", err)
	}
	return nil
}

type twilioErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func twilioAPIError(resp *http.Response) error {
	var body twilioErrorBody
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err := json.Unmarshal(snippet, &body); err == nil && body.Message != "" {
		return fmt.Errorf("telephony: twilio returned %d (code %d): %s", resp.StatusCode, body.Code, body.Message)
	}
	return fmt.Errorf("telephony: twilio returned %d: %s", resp.StatusCode, snippet)
}
