// Package redact provides privacy filtering for sensitive data.
package redact

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultFieldDenylist contains field names whose values are redacted by default.
var DefaultFieldDenylist = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apikey",
	"api_key",
	"accesstoken",
	"access_token",
	"refreshtoken",
	"refresh_token",
	"private_key",
	"privatekey",
	"client_secret",
	"clientsecret",
	"credential",
	"credentials",
	"auth",
	"ssn",
	"social_security",
	"credit_card",
	"creditcard",
	"card_number",
	"cardnumber",
	"cvv",
	"pin",
}

var (
	// fieldPattern matches "name=value" and "name: value" pairs.
	fieldPattern = regexp.MustCompile(`([A-Za-z0-9_\-]+)(\s*[=:]\s*)([^\s,;&]+)`)

	// cardPattern matches 13-19 digit runs, optionally grouped by spaces or dashes.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// matchFieldName reports whether actual names the pattern field
// (case-insensitive). Names are compared word by word, splitting on "_",
// "-" and camelCase humps, so "user_password" and "passwordHash" match
// "password" while "shipping" does not match "pin". A run of adjacent
// words also matches its concatenation: "apiKey" matches "apikey".
func matchFieldName(actual, pattern string) bool {
	want := strings.Join(fieldWords(pattern), "")
	if want == "" {
		return false
	}

	words := fieldWords(actual)
	for i := range words {
		joined := ""
		for _, w := range words[i:] {
			joined += w
			if joined == want {
				return true
			}
			if len(joined) >= len(want) {
				break
			}
		}
	}
	return false
}

// fieldWords splits a field name into lowercase words.
func fieldWords(name string) []string {
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		if r == '_' || r == '-' {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// "userPassword" and "APIKey" both break before the last capital.
			if !unicode.IsUpper(prev) || nextLower {
				flush()
			}
		}
		cur = append(cur, unicode.ToLower(r))
	}
	flush()

	return words
}
