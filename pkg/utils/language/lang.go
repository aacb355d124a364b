// package language normalizes the free-form language labels emitted by
// speech recognizers using x/text/language.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonical returns the BCP 47 form of raw ("EN" -> "en", "pt_br" -> "pt-BR").
// Labels that do not parse (e.g. "unknown") are returned lowercased.
func Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil || tag == language.Und {
		return strings.ToLower(s)
	}
	return tag.String()
}

// DisplayName returns the English name of a canonical tag, or code itself
// when it is not a known language.
func DisplayName(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}
