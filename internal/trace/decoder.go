package trace

// Message is one event produced by an external structured stream decoder
// (e.g. a CTF decoder) from a channel's byte stream.
type Message struct {
	StreamID  int
	EventID   int
	Severity  Severity
	Timestamp float64 // decoder clock; 0 means "use the capture timestamp"
	Text      string
}

// StreamDecoder turns a channel's reassembled bytes into complete messages.
// Decode is called with each chunk in capture order and may buffer partial
// messages internally; Reset discards that buffered state after the ITM
// layer detects corruption.
type StreamDecoder interface {
	Decode(channel int, data []byte) []Message
	Reset()
}

// Match is the location of a pattern hit within a line's text.
type Match struct {
	Offset int
	Length int
}

// Matcher is the string-matching engine used by Store.Find. Patterns support
// `?` (any one character), `*` (any run) and `/` (word boundary).
type Matcher interface {
	Match(pattern, text string) (Match, bool)
}
