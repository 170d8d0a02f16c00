package trace

// WildcardMatcher is the default Matcher: `?` matches any one byte, `*` any
// run of bytes, `/` a word boundary (zero width). Everything else matches
// literally. The pattern may match anywhere within the text.
type WildcardMatcher struct{}

func (WildcardMatcher) Match(pattern, text string) (Match, bool) {
	for off := 0; off <= len(text); off++ {
		if n, ok := matchAt(pattern, text, off); ok {
			return Match{Offset: off, Length: n}, true
		}
	}
	return Match{}, false
}

// matchAt matches pattern against text starting at pos, returning the number
// of text bytes consumed.
func matchAt(pattern, text string, pos int) (int, bool) {
	if pattern == "" {
		return 0, true
	}

	switch pattern[0] {
	case '*':
		// Shortest match first; the search wants the earliest hit, not the
		// greediest.
		for k := pos; k <= len(text); k++ {
			if n, ok := matchAt(pattern[1:], text, k); ok {
				return (k - pos) + n, true
			}
		}
		return 0, false
	case '?':
		if pos >= len(text) {
			return 0, false
		}
		if n, ok := matchAt(pattern[1:], text, pos+1); ok {
			return 1 + n, true
		}
		return 0, false
	case '/':
		if !wordBoundary(text, pos) {
			return 0, false
		}
		return matchAt(pattern[1:], text, pos)
	default:
		if pos >= len(text) || text[pos] != pattern[0] {
			return 0, false
		}
		if n, ok := matchAt(pattern[1:], text, pos+1); ok {
			return 1 + n, true
		}
		return 0, false
	}
}

func wordBoundary(text string, pos int) bool {
	before := pos > 0 && isWordByte(text[pos-1])
	after := pos < len(text) && isWordByte(text[pos])
	return before != after
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
