package trace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mabhi256/swotrace/internal/itm"
)

// Persisted trace format: UTF-8 CSV with a header row. Fields containing
// commas or quotes are double-quoted with internal quotes doubled. The
// timestamp column is seconds relative to the first line, 6 decimals. The
// bookmark column holds `#n` ordinals and is otherwise empty.
const (
	csvHeader = "Channel,Name,Severity,Timestamp,Text,Bookmark"

	// Older traces had no channel-name column and stored severity as a
	// number.
	csvLegacyHeader = "Channel,Severity,Timestamp,Text,Bookmark"
)

// Save writes the store to path. Returns the number of lines written.
// Best-effort: a failure partway leaves a truncated but row-consistent file.
func (s *Store) Save(path string, table *itm.ChannelTable) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return 0, err
	}

	count := 0
	ordinal := 0
	var werr error
	s.Each(func(_ int, l *Line) bool {
		bookmark := ""
		if l.Bookmarked {
			ordinal++
			bookmark = fmt.Sprintf("#%d", ordinal)
		}
		_, werr = fmt.Fprintf(w, "%d,%s,%s,%.6f,%s,%s\n",
			l.Channel,
			quoteField(table.Name(l.Channel)),
			l.Severity.Name(),
			l.Timestamp-s.baseTS,
			quoteField(string(l.Text)),
			bookmark)
		if werr != nil {
			return false
		}
		count++
		return true
	})
	if werr != nil {
		return count, werr
	}
	if err := w.Flush(); err != nil {
		return count, err
	}
	return count, nil
}

// Load reads a trace saved by Save (or its 5-column predecessor) into the
// store, replacing its contents. Channel names from the file update the
// table. Returns the number of lines loaded; on any parse error the store is
// left untouched.
func (s *Store) Load(path string, table *itm.ChannelTable) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return 0, fmt.Errorf("%s: empty trace file", path)
	}
	header := scanner.Text()
	legacy := false
	switch header {
	case csvHeader:
	case csvLegacyHeader:
		legacy = true
	default:
		return 0, fmt.Errorf("%s: unrecognized trace header %q", path, header)
	}

	type parsedLine struct {
		channel    int
		name       string
		severity   Severity
		timestamp  float64
		text       string
		bookmarked bool
	}

	var parsed []parsedLine
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		row := scanner.Text()
		if row == "" {
			continue
		}
		fields, err := splitRow(row)
		if err != nil {
			return 0, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}

		var p parsedLine
		var sevField, tsField, textField, bmField string
		if legacy {
			if len(fields) != 5 {
				return 0, fmt.Errorf("%s:%d: got %d fields, want 5", path, lineNo, len(fields))
			}
			sevField, tsField, textField, bmField = fields[1], fields[2], fields[3], fields[4]
		} else {
			if len(fields) != 6 {
				return 0, fmt.Errorf("%s:%d: got %d fields, want 6", path, lineNo, len(fields))
			}
			p.name = fields[1]
			sevField, tsField, textField, bmField = fields[2], fields[3], fields[4], fields[5]
		}

		p.channel, err = strconv.Atoi(fields[0])
		if err != nil || p.channel < 0 || p.channel >= itm.NumChannels {
			return 0, fmt.Errorf("%s:%d: bad channel %q", path, lineNo, fields[0])
		}
		if legacy {
			n, err := strconv.Atoi(sevField)
			if err != nil || !Severity(n).Valid() {
				return 0, fmt.Errorf("%s:%d: bad severity %q", path, lineNo, sevField)
			}
			p.severity = Severity(n)
		} else {
			p.severity, err = ParseSeverity(sevField)
			if err != nil {
				return 0, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
		}
		p.timestamp, err = strconv.ParseFloat(tsField, 64)
		if err != nil {
			return 0, fmt.Errorf("%s:%d: bad timestamp %q", path, lineNo, tsField)
		}
		p.text = textField
		p.bookmarked = strings.HasPrefix(bmField, "#")
		parsed = append(parsed, p)
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	s.Clear()
	for _, p := range parsed {
		if p.name != "" {
			table.SetName(p.channel, p.name)
		}
		l := s.StartLine(p.channel, p.severity, p.timestamp, false)
		l.Text = append(l.Text, p.text...)
		l.Bookmarked = p.bookmarked
		s.CloseOpen()
	}
	return len(parsed), nil
}

// quoteField double-quotes a field, doubling internal quotes.
func quoteField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// splitRow splits one CSV row. A field is either double-quoted (`""`
// unescapes to `"`) or a bare run up to the next comma.
func splitRow(row string) ([]string, error) {
	var fields []string
	i := 0
	for {
		if i < len(row) && row[i] == '"' {
			var b strings.Builder
			i++
			closed := false
			for i < len(row) {
				if row[i] == '"' {
					if i+1 < len(row) && row[i+1] == '"' {
						b.WriteByte('"')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				b.WriteByte(row[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted field")
			}
			fields = append(fields, b.String())
			if i < len(row) {
				if row[i] != ',' {
					return nil, fmt.Errorf("garbage after quoted field")
				}
				i++
			} else {
				return fields, nil
			}
			continue
		}

		end := strings.IndexByte(row[i:], ',')
		if end < 0 {
			fields = append(fields, row[i:])
			return fields, nil
		}
		fields = append(fields, row[i:i+end])
		i += end + 1
	}
}
