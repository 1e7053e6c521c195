package tlproxy

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Policy bounds what a single request may ask to translate.
type Policy struct {
	MaxItems        int
	MaxItemLength   int // runes
	MaxTotalLength  int // runes, summed over accepted items
	MaxPayloadBytes int
	AllowPII        bool
	SourceScript    string
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Loose on purpose: seven or more digits with common separators.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{5,}\d`)
	urlPattern   = regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.\-]*://[^\s]+`)
)

// Sanitizer turns a raw request body into the list of texts worth translating.
// It holds no mutable state and is safe for concurrent use.
type Sanitizer struct {
	policy Policy
	script *unicode.RangeTable
}

// NewSanitizer creates a Sanitizer for the given policy.
func NewSanitizer(policy Policy) (*Sanitizer, error) {
	script, ok := LookupScript(policy.SourceScript)
	if !ok {
		return nil, &ConfigError{Field: "source_script", Message: "unknown script " + policy.SourceScript}
	}
	return &Sanitizer{policy: policy, script: script}, nil
}

// Parse decodes body and cleans the texts it carries.
func (s *Sanitizer) Parse(body []byte) ([]string, error) {
	raw, err := s.Decode(body)
	if err != nil {
		return nil, err
	}
	return s.Clean(raw), nil
}

// Decode checks the payload size and extracts the "texts" array.
// Array elements that are not strings are dropped; anything else that does not
// fit the {"texts": [...]} shape is a KindBadRequest error.
func (s *Sanitizer) Decode(body []byte) ([]string, error) {
	if len(body) > s.policy.MaxPayloadBytes {
		return nil, &RequestError{Kind: KindPayloadTooLarge}
	}

	var req TranslateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{Kind: KindBadRequest, Message: "invalid JSON body", Cause: err}
	}

	texts := bytes.TrimSpace(req.Texts)
	if len(texts) == 0 || texts[0] != '[' {
		return nil, &RequestError{Kind: KindBadRequest, Message: `"texts" must be an array`}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(texts, &items); err != nil {
		return nil, &RequestError{Kind: KindBadRequest, Message: `"texts" must be an array`, Cause: err}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err != nil {
			continue
		}
		out = append(out, text)
	}
	return out, nil
}

// Clean normalizes, filters and deduplicates texts in arrival order.
// Accepting stops at MaxItems, or at the first item that would push the
// running length past MaxTotalLength; everything after it is dropped.
func (s *Sanitizer) Clean(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	total := 0

	for _, text := range raw {
		if len(out) >= s.policy.MaxItems {
			break
		}

		text = Normalize(text, s.policy.MaxItemLength)
		if text == "" || seen[text] {
			continue
		}
		if !HasScript(text, s.script) {
			continue
		}
		if !s.policy.AllowPII && ContainsPII(text) {
			continue
		}

		n := utf8.RuneCountInString(text)
		if total+n > s.policy.MaxTotalLength {
			break
		}

		seen[text] = true
		total += n
		out = append(out, text)
	}

	return out
}

// Normalize collapses whitespace runs to single spaces, trims, and truncates
// to maxRunes runes. The result is the cache key for the text.
func Normalize(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxRunes > 0 && utf8.RuneCountInString(text) > maxRunes {
		text = strings.TrimRightFunc(string([]rune(text)[:maxRunes]), unicode.IsSpace)
	}
	return text
}

// ContainsPII reports whether text looks like it carries an email address,
// a phone number or an absolute URL.
func ContainsPII(text string) bool {
	return emailPattern.MatchString(text) ||
		phonePattern.MatchString(text) ||
		urlPattern.MatchString(text)
}
