package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/tlproxy"
)

// OpenAIProvider implements Upstream using OpenAI's chat completion API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	targetLang  string
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
	TargetLang  string  // Target language code (default: "en")
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	target := cfg.TargetLang
	if target == "" {
		target = "en"
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		targetLang:  target,
	}
}

// Translate translates one text using OpenAI.
func (p *OpenAIProvider) Translate(ctx context.Context, text string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(text)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", apiError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &tlproxy.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) buildSystemPrompt() string {
	targetName := tlproxy.GetLanguageName(p.targetLang)

	return fmt.Sprintf(`# Role
You are a translation engine. Detect the language of the input and translate it to %s.

# Rules
- Translate short interface and content snippets faithfully and naturally.
- Keep numbers, placeholders (e.g. {name}, %%s, $1) and punctuation intact.
- If the text is already in %s, return it unchanged.
- Do not add explanations, notes or quotes.

# Format
Return a valid JSON object with a single key "translation" holding the translated string.
Example: { "translation": "translated text" }
- Do NOT wrap in Markdown code blocks.`, targetName, targetName)
}

func (p *OpenAIProvider) buildUserMessage(text string) string {
	data, _ := json.Marshal(map[string]string{"text": text})
	return string(data)
}

func (p *OpenAIProvider) parseResponse(content string) (string, error) {
	content = strings.TrimSpace(content)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if s, ok := obj["translation"].(string); ok {
			return s, nil
		}

		// Some models pick a different key
		for _, v := range obj {
			if s, ok := v.(string); ok {
				return s, nil
			}
		}
	}

	var direct string
	if err := json.Unmarshal([]byte(content), &direct); err == nil {
		return direct, nil
	}

	return "", &tlproxy.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

// apiError classifies a go-openai error, preferring the HTTP status when the
// client reports one.
func apiError(err error) *tlproxy.ProviderError {
	pe := &tlproxy.ProviderError{
		Message:   "OpenAI API call failed",
		Cause:     err,
		Retryable: isRetryableError(err),
	}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0:
		pe.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	if pe.StatusCode > 0 {
		pe.Retryable = retryableStatus(pe.StatusCode)
	}
	return pe
}

// Verify OpenAIProvider implements Upstream
var _ Upstream = (*OpenAIProvider)(nil)
