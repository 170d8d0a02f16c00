// Package trace turns reassembled ITM channel chunks into an ordered,
// searchable, persistable log of trace lines.
package trace

import "fmt"

// Severity of a trace line, 0..6. Plain-text lines default to info;
// structured decoders assign their own.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
	SeverityAssert
	SeverityPanic

	severityCount
)

var severityNames = [severityCount]string{
	"debug", "info", "warn", "error", "fatal", "assert", "panic",
}

func (s Severity) Name() string {
	if s < 0 || s >= severityCount {
		return "info"
	}
	return severityNames[s]
}

func (s Severity) Valid() bool {
	return s >= 0 && s < severityCount
}

func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// Line is one trace line. Append-only while open; once a later line starts,
// only the bookmark flags may change.
type Line struct {
	Channel   int
	Severity  Severity
	Timestamp float64 // capture seconds
	Text      []byte

	// TimeText is the display timestamp, relative to the first line in the
	// store, formatted once at line creation.
	TimeText string

	Bookmarked     bool
	ActiveBookmark bool

	open bool // end-of-line not yet seen
	next *Line
}

func (l *Line) String() string {
	return string(l.Text)
}

// Open reports whether the line is still accepting bytes.
func (l *Line) Open() bool {
	return l.open
}
