package trace

import "fmt"

// Store is the append-only ordered log of trace lines. A singly linked list
// with a tail pointer: appends are O(1), and view code walks it front to
// back. Owned by the decode side; no locking.
type Store struct {
	head  *Line
	tail  *Line
	count int

	// baseTS is the first line's timestamp, captured once when the first
	// line is appended and held until Clear. Relative display timestamps are
	// always computed against it, so pruning the view never shifts the
	// formatted text of existing lines.
	baseTS   float64
	haveBase bool

	// skip hides the first n lines from display-limited views without
	// discarding them.
	skip int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Len() int {
	return s.count
}

// Base returns the first line's timestamp, or 0 before any line exists.
func (s *Store) Base() float64 {
	return s.baseTS
}

func (s *Store) SkipCount() int {
	return s.skip
}

func (s *Store) SetSkipCount(n int) {
	if n < 0 {
		n = 0
	}
	s.skip = n
}

// Each walks the store in append order, stopping early if fn returns false.
func (s *Store) Each(fn func(i int, l *Line) bool) {
	i := 0
	for l := s.head; l != nil; l = l.next {
		if !fn(i, l) {
			return
		}
		i++
	}
}

// At returns the i-th line, or nil. Linear walk.
func (s *Store) At(i int) *Line {
	if i < 0 || i >= s.count {
		return nil
	}
	l := s.head
	for ; i > 0; i-- {
		l = l.next
	}
	return l
}

// Clear drops every line. The relative-timestamp base resets with them.
func (s *Store) Clear() {
	s.head = nil
	s.tail = nil
	s.count = 0
	s.haveBase = false
	s.baseTS = 0
	s.skip = 0
}

// OpenLine returns the line currently accepting bytes, or nil.
func (s *Store) OpenLine() *Line {
	if s.tail != nil && s.tail.open {
		return s.tail
	}
	return nil
}

// CloseOpen marks the open line, if any, as ended.
func (s *Store) CloseOpen() {
	if s.tail != nil {
		s.tail.open = false
	}
}

// StartLine closes any open line and appends a new open one. The display
// timestamp is formatted here, once, relative to the store's base; micro
// selects microsecond precision (structured decoders) over millisecond.
func (s *Store) StartLine(channel int, severity Severity, timestamp float64, micro bool) *Line {
	s.CloseOpen()
	if !s.haveBase {
		s.baseTS = timestamp
		s.haveBase = true
	}

	l := &Line{
		Channel:   channel,
		Severity:  severity,
		Timestamp: timestamp,
		TimeText:  formatRelative(timestamp-s.baseTS, micro),
		open:      true,
	}
	if s.tail == nil {
		s.head = l
	} else {
		s.tail.next = l
	}
	s.tail = l
	s.count++
	return l
}

func formatRelative(delta float64, micro bool) string {
	if micro {
		return fmt.Sprintf("%.6f", delta)
	}
	return fmt.Sprintf("%.3f", delta)
}

// Find searches line text for pattern, starting just after from and wrapping
// around, checking from itself last. Returns the matching line index or -1.
func (s *Store) Find(m Matcher, pattern string, from int) int {
	if s.count == 0 || m == nil {
		return -1
	}
	if from < 0 || from >= s.count {
		from = s.count - 1
	}
	for step := 1; step <= s.count; step++ {
		i := (from + step) % s.count
		if _, ok := m.Match(pattern, s.At(i).String()); ok {
			return i
		}
	}
	return -1
}

// FindByTimestamp returns the index of the last line with a timestamp
// strictly before t, or -1.
func (s *Store) FindByTimestamp(t float64) int {
	found := -1
	s.Each(func(i int, l *Line) bool {
		if l.Timestamp >= t {
			return false
		}
		found = i
		return true
	})
	return found
}

// ToggleBookmark flips the bookmark on line i. A newly set bookmark becomes
// the active one; clearing the active bookmark leaves none active.
func (s *Store) ToggleBookmark(i int) {
	l := s.At(i)
	if l == nil {
		return
	}
	if l.Bookmarked {
		l.Bookmarked = false
		l.ActiveBookmark = false
		return
	}
	s.clearActive()
	l.Bookmarked = true
	l.ActiveBookmark = true
}

func (s *Store) clearActive() {
	s.Each(func(_ int, l *Line) bool {
		l.ActiveBookmark = false
		return true
	})
}

// BookmarkNext moves the active bookmark to the next bookmarked line,
// wrapping, and returns its index, or -1 when nothing is bookmarked.
func (s *Store) BookmarkNext() int {
	return s.cycleBookmark(+1)
}

// BookmarkPrev is BookmarkNext in the other direction.
func (s *Store) BookmarkPrev() int {
	return s.cycleBookmark(-1)
}

func (s *Store) cycleBookmark(dir int) int {
	var marked []int
	active := -1
	s.Each(func(i int, l *Line) bool {
		if l.Bookmarked {
			if l.ActiveBookmark {
				active = len(marked)
			}
			marked = append(marked, i)
		}
		return true
	})
	if len(marked) == 0 {
		return -1
	}

	next := 0
	if active >= 0 {
		next = (active + dir + len(marked)) % len(marked)
	} else if dir < 0 {
		next = len(marked) - 1
	}

	s.clearActive()
	target := s.At(marked[next])
	target.ActiveBookmark = true
	return marked[next]
}
