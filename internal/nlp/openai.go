package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultNLPBase     = "https://api.openai.com/v1"
	defaultFastModel   = "gpt-4o-mini"
	defaultStrongModel = "gpt-4o"
	defaultTimeout     = 30 * time.Second
)

// Config configures the OpenAI-compatible provider.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint. Useful for local models or any
	// other OpenAI-compatible endpoint. Defaults to the public OpenAI API.
	BaseURL string

	// FastModel handles every first classification attempt.
	// Defaults to gpt-4o-mini.
	FastModel string

	// StrongModel handles escalations when the fast tier is unsure.
	// Defaults to gpt-4o.
	StrongModel string

	// Timeout is the HTTP request timeout. Defaults to 30s.
	Timeout time.Duration
}

// openAIProvider implements Provider using the chat completions API with
// JSON-mode output, so the answer is always parseable JSON (though not
// necessarily schema-valid — that is checked separately).
type openAIProvider struct {
	cfg    Config
	client *http.Client
}

// NewProvider returns a Provider backed by the OpenAI (or compatible) chat
// API. The returned provider is safe for concurrent use.
func NewProvider(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNLPBase
	}
	if cfg.FastModel == "" {
		cfg.FastModel = defaultFastModel
	}
	if cfg.StrongModel == "" {
		cfg.StrongModel = defaultStrongModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &openAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal OpenAI wire types ---

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model          string       `json:"model"`
	Messages       []oaiMessage `json:"messages"`
	MaxTokens      int          `json:"max_tokens,omitempty"`
	ResponseFormat *oaiFormat   `json:"response_format,omitempty"`
}

type oaiFormat struct {
	Type string `json:"type"` // "json_object"
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

func (p *openAIProvider) model(tier Tier) string {
	if tier == TierStrong {
		return p.cfg.StrongModel
	}
	return p.cfg.FastModel
}

// Classify sends one message to the model and returns its raw classification.
func (p *openAIProvider) Classify(ctx context.Context, req Request) (*RawResult, error) {
	messages := make([]oaiMessage, 0, len(req.Context.History)+2)
	messages = append(messages, oaiMessage{Role: "system", Content: BuildSystemPrompt(req.Context)})
	for _, h := range req.Context.History {
		messages = append(messages, oaiMessage{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: req.Message})

	body := oaiRequest{
		Model:          p.model(req.Tier),
		Messages:       messages,
		MaxTokens:      512,
		ResponseFormat: &oaiFormat{Type: "json_object"},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("nlp: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("nlp: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nlp: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimit
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nlp: read response body: %w", err)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("nlp: decode API response: %w", err)
	}

	if oaiResp.Error != nil {
		return nil, fmt.Errorf("nlp: API error (%s): %s", oaiResp.Error.Type, oaiResp.Error.Message)
	}

	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("nlp: no choices returned (HTTP %d)", resp.StatusCode)
	}

	content := oaiResp.Choices[0].Message.Content
	return decodeRawResult([]byte(content))
}

// decodeRawResult parses and schema-checks the model's JSON answer.
func decodeRawResult(content []byte) (*RawResult, error) {
	var decoded any
	if err := json.Unmarshal(content, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := validateRaw(decoded); err != nil {
		return nil, err
	}
	var raw RawResult
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return &raw, nil
}
