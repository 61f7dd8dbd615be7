package llm

import (
	"strings"
)

// StripCodeFences removes markdown code fence markers (```json, ```),
// keeping the fenced content and any other text on the marker's line.
// Lines left holding only a marker are dropped.
func StripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		stripped := false
		if rest, ok := strings.CutPrefix(trimmed, "```"); ok {
			trimmed = strings.TrimLeftFunc(rest, isFenceLangRune)
			stripped = true
		}
		if rest, ok := strings.CutSuffix(trimmed, "```"); ok {
			trimmed = rest
			stripped = true
		}
		if !stripped {
			result = append(result, line)
			continue
		}
		if trimmed = strings.TrimSpace(trimmed); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return strings.Join(result, "\n")
}

// isFenceLangRune matches the info string after an opening fence.
func isFenceLangRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '-' || r == '_' || r == '+'
}

// GreedySpan returns the text from the first open byte to the last close
// byte, inclusive, or "" when there is no such span. Brackets inside string
// values and prose are not considered.
func GreedySpan(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		return ""
	}
	return s[start : end+1]
}

// BalancedSpan returns the first balanced open...close block, starting at the
// first open byte. Delimiters inside JSON string values are ignored.
func BalancedSpan(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		switch c {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}
