package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIURL = "https://api.anthropic.com/v1/messages"

type Client struct {
	apiKey string
	model  string
	apiURL string
	client *http.Client
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: timeout},
	}
}

// SetTestTransport points the client at a test server instead of the real API.
func (c *Client) SetTestTransport(url string) {
	c.apiURL = url
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the envelope handed to the analysis assembler: raw text, the
// model that produced it, and the completion token count.
type Completion struct {
	Text         string
	Model        string
	OutputTokens int
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiError struct {
	status  int
	errType string
	message string
}

func (e *apiError) Error() string {
	if e.errType != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.status, e.errType, e.message)
	}
	return fmt.Sprintf("api error %d: %s", e.status, e.message)
}

// Complete sends a message to the Anthropic API and returns the completion
// envelope. Transport failures and 5xx responses are retried once.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (*Completion, error) {
	comp, err := c.completeOnce(ctx, system, messages, maxTokens)
	if err == nil || !isRetryable(err) || ctx.Err() != nil {
		return comp, err
	}
	return c.completeOnce(ctx, system, messages, maxTokens)
}

func isRetryable(err error) bool {
	if ae, ok := err.(*apiError); ok {
		return ae.status >= 500
	}
	// Transport-level failure (connection refused, reset, client timeout).
	return true
}

func (c *Client) completeOnce(ctx context.Context, system string, messages []Message, maxTokens int) (*Completion, error) {
	reqBody := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Type != "" {
			return nil, &apiError{status: resp.StatusCode, errType: errResp.Error.Type, message: errResp.Error.Message}
		}
		return nil, &apiError{status: resp.StatusCode, message: string(respBody)}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("empty response content")
	}

	model := apiResp.Model
	if model == "" {
		model = c.model
	}

	return &Completion{
		Text:         apiResp.Content[0].Text,
		Model:        model,
		OutputTokens: apiResp.Usage.OutputTokens,
	}, nil
}
