package guard

import (
	"regexp"
	"strings"

	"github.com/tressa/tressa/internal/apperror"
)

// Content size ceilings in bytes (UTF-8 length of the body). Anonymous
// submitters get the smaller budget.
const (
	MaxContentSizeAnonymous     = 256 * 1024  // 256 KiB
	MaxContentSizeAuthenticated = 1024 * 1024 // 1 MiB
)

// scriptPattern matches an already-escaped <script>...</script> fragment.
// Sanitize escapes the whole body first, so any script tag in the input
// arrives here in its &lt;...&gt; form. (?s) lets . span newlines.
var scriptPattern = regexp.MustCompile(`(?is)&lt;script.*?&gt;.*?&lt;/script&gt;`)

// entityPrefix matches, at the start of a string, one of the entities the
// escape pass itself produces. The escape pass leaves these alone so that
// sanitizing already-sanitized content is a no-op.
var entityPrefix = regexp.MustCompile(`^&(amp|lt|gt|quot|#34|#39);`)

// Sanitize HTML-escapes the body so embedded markup can never render, then
// strips any residual escaped script fragment as defense-in-depth.
//
// Applied at write time, before persistence. Stored content is already
// sanitized and reads return it verbatim.
//
// Sanitize is idempotent: Sanitize(Sanitize(c)) == Sanitize(c). The escape
// pass recognises its own output entities (&amp;, &lt;, ...) and leaves
// them untouched instead of double-encoding the ampersand, and the script
// strip repeats until a fixpoint — removing a fragment can re-join the
// surrounding text into a fresh one (`<scr<script>x</script>ipt>...`).
func Sanitize(content string) string {
	if content == "" {
		return content
	}
	out := escapeMarkup(content)
	for {
		stripped := scriptPattern.ReplaceAllString(out, "")
		if stripped == out {
			return stripped
		}
		out = stripped
	}
}

// escapeMarkup escapes the same character set as html.EscapeString
// (&, <, >, ", ') but skips ampersands that already begin one of the
// entities this function emits.
func escapeMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			if ent := entityPrefix.FindString(s[i:]); ent != "" {
				b.WriteString(ent)
				i += len(ent) - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&#34;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// languageSignatures maps a lowercased language tag to patterns expected to
// appear somewhere in authentic content of that language. A tabulated
// language passes if ANY one pattern matches (case-insensitive); languages
// not listed here always pass.
var languageSignatures = map[string][]*regexp.Regexp{
	"javascript": compileSignatures(`function\s+\w+`, `var\s+\w+`, `const\s+\w+`, `let\s+\w+`),
	"python":     compileSignatures(`def\s+\w+`, `import\s+\w+`, `from\s+\w+`, `class\s+\w+`),
	"java":       compileSignatures(`public\s+class`, `private\s+\w+`, `public\s+\w+`),
	"html":       compileSignatures(`<html`, `<head`, `<body`, `<div`),
	"css":        compileSignatures(`\w+\s*{`, `:\s*\w+;`, `@media`),
	"json":       compileSignatures(`^\s*{`, `^\s*\[`),
	"sql":        compileSignatures(`SELECT\s+`, `INSERT\s+`, `UPDATE\s+`, `DELETE\s+`),
}

func compileSignatures(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// ValidateLanguage reports whether the content plausibly matches the
// declared language. Empty language or content, and languages without a
// signature table, pass permissively — the table exists to catch obvious
// mislabeling, not to be a classifier.
func ValidateLanguage(language, content string) bool {
	if language == "" || content == "" {
		return true
	}
	signatures, ok := languageSignatures[strings.ToLower(language)]
	if !ok {
		return true
	}
	for _, sig := range signatures {
		if sig.MatchString(content) {
			return true
		}
	}
	return false
}

// ValidateSize checks the UTF-8 byte length of content against the ceiling
// for the caller's authentication state. Returns a payload-too-large error
// carrying the measured size and the applicable limit.
func ValidateSize(content string, authenticated bool) error {
	limit := MaxContentSizeAnonymous
	if authenticated {
		limit = MaxContentSizeAuthenticated
	}
	if size := len(content); size > limit {
		return apperror.PayloadTooLarge(size, limit)
	}
	return nil
}
