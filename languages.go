package tlproxy

import (
	"strings"
	"unicode"
)

// LanguageNames maps base language codes to human-readable names for AI prompts.
var LanguageNames = map[string]string{
	"en": "English",
	"uk": "Ukrainian",
	"ru": "Russian",
	"be": "Belarusian",
	"bg": "Bulgarian",
	"sr": "Serbian",
	"mk": "Macedonian",
	"kk": "Kazakh",
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"pl": "Polish",
	"pt": "Portuguese",
	"nl": "Dutch",
	"cs": "Czech",
	"tr": "Turkish",
	"el": "Greek",
	"he": "Hebrew",
	"ar": "Arabic",
	"ja": "Japanese",
	"zh": "Chinese",
	"ko": "Korean",
}

// GetLanguageName returns the human-readable name for a language code.
// Locale forms ("en_US", "en-GB") resolve to their base language.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	if name, ok := LanguageNames[BaseLang(langCode)]; ok {
		return name
	}
	return langCode
}

// BaseLang extracts the lower-cased base language code (e.g., "en" from "en_US").
func BaseLang(langCode string) string {
	base, _, _ := strings.Cut(strings.ReplaceAll(langCode, "-", "_"), "_")
	return strings.ToLower(base)
}

// LookupScript resolves a unicode script name such as "Cyrillic" or "Greek".
func LookupScript(name string) (*unicode.RangeTable, bool) {
	table, ok := unicode.Scripts[name]
	return table, ok
}

// HasScript reports whether text contains at least one rune of the script.
// This is the "is there anything to translate" heuristic; it does no
// language detection beyond script presence.
func HasScript(text string, script *unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.Is(script, r) {
			return true
		}
	}
	return false
}
