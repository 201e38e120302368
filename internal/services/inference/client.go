package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nuttally/internal/logger"
	"nuttally/internal/model"
)

// maxResponseSize bounds how much of a provider response is read.
const maxResponseSize = 10 << 20

// Client calls the hosted detection model.
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a Client. An empty apiKey switches it to placeholder mode.
func NewClient(endpoint, apiKey string, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Live reports whether the client talks to the provider.
func (c *Client) Live() bool {
	return c.apiKey != ""
}

type imageInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type inferRequest struct {
	APIKey string `json:"api_key"`
	Inputs struct {
		Image imageInput `json:"image"`
	} `json:"inputs"`
}

// Infer returns the provider payload for one image. The call is attempted
// once and bounded by the client timeout.
func (c *Client) Infer(ctx context.Context, image []byte, submissionID string) (model.RawResult, error) {
	if !c.Live() {
		c.logger.Warning("Inference key not configured, using placeholder predictions for %s", submissionID)
		return Placeholder(), nil
	}
	c.logger.Info("Running inference for %s with key %s", submissionID, redact(c.apiKey))

	var payload inferRequest
	payload.APIKey = c.apiKey
	payload.Inputs.Image = imageInput{Type: "base64", Value: base64.StdEncoding.EncodeToString(image)}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inference request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: TransportFailure, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: TransportFailure, Message: c.scrub(err.Error()), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: TransportFailure, Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:    ProviderRejected,
			Status:  resp.StatusCode,
			Message: providerMessage(data, resp.StatusCode),
		}
	}

	if !json.Valid(data) {
		return nil, &Error{Kind: ProviderRejected, Status: resp.StatusCode, Message: "response is not valid JSON"}
	}
	if msg, ok := errorObject(data); ok {
		return nil, &Error{Kind: ProviderRejected, Status: resp.StatusCode, Message: msg}
	}

	return model.RawResult(data), nil
}

// scrub keeps the API key out of transport error messages.
func (c *Client) scrub(s string) string {
	return strings.ReplaceAll(s, c.apiKey, redact(c.apiKey))
}

// providerMessage pulls the provider's explanation out of an error body.
func providerMessage(data []byte, status int) string {
	if msg, ok := errorObject(data); ok {
		return msg
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}

// errorObject recognizes {"message": ...} and {"error": ...} bodies that carry
// no predictions.
func errorObject(data []byte) (string, bool) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return "", false
	}
	if _, ok := body["predictions"]; ok {
		return "", false
	}
	if _, ok := body["outputs"]; ok {
		return "", false
	}

	for _, key := range []string{"message", "error"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s, true
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			return nested.Message, true
		}
	}
	return "", false
}

func redact(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}

// IsInferenceError reports whether err came from the provider call.
func IsInferenceError(err error) bool {
	var infErr *Error
	return errors.As(err, &infErr)
}
