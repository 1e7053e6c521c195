package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/ZaguanLabs/tlproxy"
)

const defaultGoogleBaseURL = "https://translate.googleapis.com"

// maxGoogleResponse caps how much of a response body is read.
const maxGoogleResponse = 1 << 20

// GoogleProvider translates through the public Google Translate web endpoint.
// The source language is detected upstream; the target is fixed.
type GoogleProvider struct {
	client     *http.Client
	baseURL    string
	targetLang string
	userAgent  string
}

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	TargetLang string       // Target language code (default: "en")
	BaseURL    string       // Endpoint base URL (default: "https://translate.googleapis.com")
	Client     *http.Client // HTTP client (default: pooled client from go-cleanhttp)
}

// NewGoogleProvider creates a new Google provider.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	client := cfg.Client
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}

	target := cfg.TargetLang
	if target == "" {
		target = "en"
	}

	return &GoogleProvider{
		client:     client,
		baseURL:    baseURL,
		targetLang: tlproxy.BaseLang(target),
		userAgent:  tlproxy.UserAgent(),
	}
}

// Translate translates one text into the configured target language.
func (p *GoogleProvider) Translate(ctx context.Context, text string) (string, error) {
	query := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {p.targetLang},
		"dt":     {"t"},
		"q":      {text},
	}
	endpoint := p.baseURL + "/translate_a/single?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &tlproxy.ProviderError{Message: "creating request", Cause: err}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &tlproxy.ProviderError{
			Message:   "request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGoogleResponse))
	if err != nil {
		return "", &tlproxy.ProviderError{Message: "reading response", Cause: err, Retryable: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &tlproxy.ProviderError{
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	return parseGoogleResponse(body)
}

// parseGoogleResponse joins the translated segments of a response shaped
// like [[["Hello ","Привіт ",...],["world","світ",...]],null,"uk",...].
func parseGoogleResponse(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", &tlproxy.ProviderError{Message: "malformed response", Cause: err}
	}
	if len(top) == 0 {
		return "", &tlproxy.ProviderError{Message: "malformed response: empty"}
	}

	var segments [][]interface{}
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", &tlproxy.ProviderError{Message: "malformed response: no segments", Cause: err}
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}

	if sb.Len() == 0 {
		return "", &tlproxy.ProviderError{Message: "malformed response: no translated text"}
	}
	return sb.String(), nil
}

// Verify GoogleProvider implements Upstream
var _ Upstream = (*GoogleProvider)(nil)
