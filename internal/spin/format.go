package spin

import "strings"

// FormatName keeps mixed CJK/Latin names on one line by replacing the first
// space with a mid-dot separator. Anything else passes through untouched.
func FormatName(name string) string {
	s := strings.TrimSpace(name)
	if s == "" || !strings.Contains(s, " ") {
		return s
	}

	hasCJK := false
	hasLatin := false
	for _, r := range s {
		if isCJK(r) {
			hasCJK = true
		}
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			hasLatin = true
		}
	}
	if !hasCJK || !hasLatin {
		return s
	}

	left, right, _ := strings.Cut(s, " ")
	return left + " · " + strings.TrimSpace(right)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3040 && r <= 0x30FF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}
