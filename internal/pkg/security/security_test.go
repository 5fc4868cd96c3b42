package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"script tag", "<script>", "&lt;script&gt;"},
		{"quotes", `"it's"`, "&quot;it&#x27;s&quot;"},
		{"slashes", `a/b\c`, "a&#x2F;b&#x5C;c"},
		{"backtick", "`cmd`", "&#96;cmd&#96;"},
		{"ampersand untouched", "fish & chips", "fish & chips"},
		{"nil", nil, ""},
		{"number", 42, "42"},
		{"plain", "hello world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input))
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"<img src=x onerror='alert(1)'>",
		`C:\path\to "file"`,
		"</div>`${x}`",
		"&lt;already escaped&gt;",
	}
	for _, in := range inputs {
		once := SanitizeText(in)
		assert.Equal(t, once, SanitizeText(once), "input %q", in)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"user@example.com", "  padded@example.org  ", "a.b+c@sub.domain.io"}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{"", "plain", "no-at.example.com", "user@nodot", "user @example.com", "user@@example.com", "@example.com"}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestIsValidTextLength(t *testing.T) {
	assert.False(t, IsValidTextLength("", 0, 10))
	assert.True(t, IsValidTextLength("abc", 1, 3))
	assert.False(t, IsValidTextLength("abcd", 1, 3))
	assert.True(t, IsValidTextLength("ÿÿÿ", 3, 3), "counts characters, not bytes")
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"ab@example.com":       "a*@example.com",
		"abcdef@example.com":   "ab****@example.com",
		"a@example.com":        "*@example.com",
		"abc@example.com":      "ab*@example.com",
		"":                     UnknownEmail,
		"not-an-email":         "not-an-email",
		"@example.com":         "@example.com",
		"user@":                "user@",
		"john.doe@example.com": "jo******@example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskEmail(in), "input %q", in)
	}
}

func TestIsSafeRedirect(t *testing.T) {
	origin := "http://localhost:3000"

	assert.True(t, IsSafeRedirect(origin, "login.html"))
	assert.True(t, IsSafeRedirect(origin, "/dashboard.html?tab=1"))
	assert.True(t, IsSafeRedirect(origin, "http://localhost:3000/index.html"))

	assert.False(t, IsSafeRedirect(origin, ""))
	assert.False(t, IsSafeRedirect(origin, "https://evil.example.com/login.html"))
	assert.False(t, IsSafeRedirect(origin, "//evil.example.com/login.html"))
	assert.False(t, IsSafeRedirect(origin, "javascript:alert(1)"))
	assert.False(t, IsSafeRedirect("not an origin", "/login.html"))
}

func TestIsSafeRedirect_BackslashAndWhitespaceTricks(t *testing.T) {
	origin := "http://localhost:3000"

	for _, target := range []string{
		`/\evil.com`,
		`\\evil.com`,
		`/\/evil.com`,
		"///evil.com",
		"////evil.com/login.html",
		`\/evil.com`,
		"/\t/evil.com",
		"/\n/evil.com",
		" //evil.com",
		"\x00//evil.com",
		`https:\\evil.com`,
	} {
		assert.False(t, IsSafeRedirect(origin, target), target)
	}

	assert.True(t, IsSafeRedirect(origin, ` /apply.html `))
	assert.True(t, IsSafeRedirect(origin, `/docs\index.html`))
}

func TestGenerateCSRFToken(t *testing.T) {
	first, err := GenerateCSRFToken()
	require.NoError(t, err)
	second, err := GenerateCSRFToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
	assert.Equal(t, strings.ToLower(first), first)
}
