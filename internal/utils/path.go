package utils

import (
	"strings"
)

// JoinPath joins path parts using forward slashes regardless of host OS.
// It strips leading/trailing slashes from each component, then prefixes the result with "/".
// Pattern:
//   - Root path = "/"
//   - Child of root = "/{child}"
//   - Children of that = "/{child}/{grandchild}" etc.
func JoinPath(parts ...string) string {
	cleaned := cleanParts(parts)
	if len(cleaned) == 0 {
		return "/"
	}
	return "/" + strings.Join(cleaned, "/")
}

// ObjectKey joins parts like JoinPath but without the leading slash, as used by
// artifact keys and io/fs paths. No parts yields "".
func ObjectKey(parts ...string) string {
	return strings.Join(cleanParts(parts), "/")
}

// SafeName turns an item name into a single path element: separators become
// underscores and the reserved names "", "." and ".." are replaced.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	switch name {
	case "", ".", "..":
		return "_"
	}
	return name
}

func cleanParts(parts []string) []string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return cleaned
}
