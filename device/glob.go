package device

// Match reports whether text matches pattern, where '*' matches any run of
// bytes (including none). No other wildcard is recognized.
func Match(text, pattern string) bool {
	t, p := 0, 0
	star, anchor := -1, 0
	for t < len(text) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star = p
			anchor = t
			p++
		case p < len(pattern) && pattern[p] == text[t]:
			t++
			p++
		case star >= 0:
			anchor++
			t = anchor
			p = star + 1
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
