// Package resolve maps logical asset names to versioned URLs.
package resolve

import "strings"

// DefaultExtension is used when no extension is given.
const DefaultExtension = "jpg"

// Resolve composes {baseURL}/{version}/{name}.{ext}. The name is trimmed and
// each interior space becomes an underscore, so "das  Haus" maps to
// "das__Haus". It performs no I/O and depends on nothing but its inputs.
func Resolve(baseURL, version, name, ext string) string {
	base := strings.TrimRight(baseURL, "/")
	var b strings.Builder
	b.Grow(len(base) + len(version) + len(name) + len(ext) + 4)
	b.WriteString(base)
	b.WriteByte('/')
	b.WriteString(version)
	b.WriteByte('/')
	b.WriteString(NormalizeName(name))
	b.WriteByte('.')
	b.WriteString(normalizeExtension(ext))
	return b.String()
}

// NormalizeName trims surrounding whitespace and replaces every remaining
// space with an underscore.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

func normalizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}
