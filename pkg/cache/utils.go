package cache

import "strings"

// GenerateKey joins parts with ':' and appends them to prefix.
func GenerateKey(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// BuildPattern returns a SCAN pattern matching every key that starts with
// prefix. Glob metacharacters in prefix match literally.
func BuildPattern(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}
