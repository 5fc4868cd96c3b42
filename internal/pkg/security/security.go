// Package security holds the input sanitization and validation helpers shared
// by the persistence layer and the HTTP adapter.
package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UnknownEmail is what MaskEmail renders for an empty address.
const UnknownEmail = "unknown"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// '&' is not escaped: none of the replacements contain an escaped
// character, so SanitizeText(SanitizeText(s)) == SanitizeText(s).
var textEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// SanitizeText escapes markup-significant characters. nil becomes "" and any
// other non-string value is rendered with fmt before escaping.
func SanitizeText(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		return textEscaper.Replace(v)
	default:
		return textEscaper.Replace(fmt.Sprint(v))
	}
}

// IsValidEmail checks the trimmed address against a permissive user@host.tld shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidTextLength reports whether text has between min and max characters.
func IsValidTextLength(text string, min, max int) bool {
	if text == "" {
		return false
	}
	n := utf8.RuneCountInString(text)
	return n >= min && n <= max
}

// MaskEmail hides most of the local part: at most two leading characters stay
// visible and at least one is always masked.
//
//	ab@example.com     -> a*@example.com
//	abcdef@example.com -> ab****@example.com
func MaskEmail(email string) string {
	if email == "" {
		return UnknownEmail
	}
	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return email
	}

	local := []rune(parts[0])
	keep := len(local) - 1
	if keep > 2 {
		keep = 2
	}
	return string(local[:keep]) + strings.Repeat("*", len(local)-keep) + "@" + parts[1]
}

// IsSafeRedirect accepts target only when it resolves to the same scheme and
// host as origin. Relative paths are resolved against origin. The target is
// first normalized the way browsers read http(s) URLs, so `/\evil.com` is
// treated as "//evil.com".
func IsSafeRedirect(origin, target string) bool {
	target = normalizeRedirect(target)
	if target == "" {
		return false
	}
	base, err := url.Parse(origin)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return false
	}
	ref, err := url.Parse(target)
	if err != nil {
		return false
	}
	resolved := base.ResolveReference(ref)
	return strings.EqualFold(resolved.Scheme, base.Scheme) && strings.EqualFold(resolved.Host, base.Host)
}

// normalizeRedirect trims leading and trailing C0 controls and spaces, drops
// tabs and newlines, turns backslashes into slashes and collapses a run of
// leading slashes to "//"
func normalizeRedirect(target string) string {
	target = strings.TrimFunc(target, func(r rune) bool { return r <= ' ' })
	target = redirectNormalizer.Replace(target)
	if strings.HasPrefix(target, "//") {
		target = "//" + strings.TrimLeft(target, "/")
	}
	return target
}

var redirectNormalizer = strings.NewReplacer(
	"\t", "",
	"\n", "",
	"\r", "",
	`\`, "/",
)

// GenerateCSRFToken returns 32 random bytes, hex encoded.
func GenerateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
