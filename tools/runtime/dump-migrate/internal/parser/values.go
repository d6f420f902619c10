package parser

import "strings"

// ParseValueSets splits the text after VALUES into tuples of raw tokens.
// Text outside parentheses (separating commas, whitespace, the trailing
// semicolon) is ignored. A quote is literal when the previous byte is a
// backslash; doubled quotes are not treated as escapes.
func ParseValueSets(values string) [][]string {
	var sets [][]string
	var current strings.Builder
	inString := false
	quote := byte(0)
	depth := 0

	for i := 0; i < len(values); i++ {
		char := values[i]

		if inString {
			current.WriteByte(char)
			if char == quote && !escaped(values, i) {
				inString = false
				quote = 0
			}
			continue
		}

		switch char {
		case '\'', '"':
			if depth > 0 {
				inString = true
				quote = char
				current.WriteByte(char)
			}

		case '(':
			depth++
			current.WriteByte(char)

		case ')':
			if depth == 0 {
				continue
			}
			depth--
			current.WriteByte(char)
			if depth == 0 {
				sets = append(sets, SplitTuple(current.String()))
				current.Reset()
			}

		default:
			if depth > 0 {
				current.WriteByte(char)
			}
		}
	}

	return sets
}

// SplitTuple strips the outer parentheses of one tuple and splits it on
// top-level commas. Nested parentheses such as NOW() stay in one token.
// A blank final token is dropped, so "()" yields no tokens.
func SplitTuple(tuple string) []string {
	inner := strings.TrimSpace(tuple)
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")

	var tokens []string
	var current strings.Builder
	inString := false
	quote := byte(0)
	depth := 0

	for i := 0; i < len(inner); i++ {
		char := inner[i]

		switch {
		case inString:
			if char == quote && !escaped(inner, i) {
				inString = false
				quote = 0
			}
		case char == '\'' || char == '"':
			inString = true
			quote = char
		case char == '(':
			depth++
		case char == ')':
			if depth > 0 {
				depth--
			}
		case char == ',' && depth == 0:
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}

		current.WriteByte(char)
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		tokens = append(tokens, last)
	}

	return tokens
}

func escaped(s string, i int) bool {
	return i > 0 && s[i-1] == '\\'
}
