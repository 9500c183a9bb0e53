package guard

import "strings"

// contentTypes maps a lowercased language tag to the media type served on
// raw fetches. This is versioned configuration data, not logic — extend the
// table, don't touch the raw handler.
var contentTypes = map[string]string{
	"javascript": "application/javascript",
	"python":     "text/x-python",
	"java":       "text/x-java",
	"html":       "text/html",
	"css":        "text/css",
	"json":       "application/json",
	"sql":        "application/sql",
	"xml":        "application/xml",
	"markdown":   "text/markdown",
	"yaml":       "application/yaml",
	"go":         "text/x-go",
	"rust":       "text/x-rust",
	"c":          "text/x-c",
	"cpp":        "text/x-c",
	"shell":      "application/x-sh",
	"bash":       "application/x-sh",
}

// ContentTypeFor returns the media type for a language tag, falling back to
// plain text for anything untabulated.
func ContentTypeFor(language string) string {
	if ct, ok := contentTypes[strings.ToLower(language)]; ok {
		return ct
	}
	return "text/plain"
}
