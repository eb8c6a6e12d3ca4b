package graph

import "strings"

// sanitize maps any character outside [A-Za-z0-9_] to '_', per §3's node
// identity rule. It intentionally does not collapse runs of '_' — two names
// that sanitize to the same string are meant to collide (that is how the
// spec defines "the same node").
func sanitize(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b[i] = c
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

// Key computes the stable identity key for a node: the lowercased, sanitized
// (kind, name, file, start) tuple, joined so that distinct tuples practically
// never collide (file paths and names cannot contain the separator once
// sanitized).
func Key(kind NodeKind, name, file string, start int) string {
	var b strings.Builder
	b.WriteString(string(kind))
	b.WriteByte('\x1f')
	b.WriteString(strings.ToLower(sanitize(name)))
	b.WriteByte('\x1f')
	b.WriteString(strings.ToLower(sanitize(file)))
	b.WriteByte('\x1f')
	writeInt(&b, start)
	return b.String()
}

func writeInt(b *strings.Builder, n int) {
	if n == 0 {
		b.WriteByte('0')
		return
	}
	if n < 0 {
		b.WriteByte('-')
		n = -n
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	b.Write(digits[i:])
}

// NormalizeFile forward-slash normalizes a path and strips any leading
// slash, per §3's `file` field contract.
func NormalizeFile(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "/")
}
