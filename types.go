package tlproxy

import "encoding/json"

// TranslateRequest is the JSON body accepted by the translate endpoint.
// Texts stays raw so that Decode can tell a missing or non-array field from
// an array holding non-string elements.
type TranslateRequest struct {
	Texts json.RawMessage `json:"texts"`
}

// Response is the JSON body returned by the translate endpoint.
// Translations maps each normalized source text to its translation and is
// never nil, so it always encodes as an object.
type Response struct {
	Translations map[string]string `json:"translations"`
	Error        string            `json:"error,omitempty"`
}

// newResponse returns a Response with an empty, non-nil translations map.
func newResponse() Response {
	return Response{Translations: map[string]string{}}
}

