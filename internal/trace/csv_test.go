package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mabhi256/swotrace/internal/itm"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore()
	table := itm.NewChannelTable()
	table.SetName(0, "console")
	table.SetName(2, `weird "name", quoted`)

	type row struct {
		channel  int
		severity Severity
		ts       float64
		text     string
	}
	rows := []row{
		{0, SeverityInfo, 100.0, "plain text"},
		{2, SeverityError, 100.123456, `text with, commas, and "quotes"`},
		{0, SeverityWarn, 100.5, ""},
		{31, SeverityPanic, 101.25, `""`},
	}
	for _, r := range rows {
		l := store.StartLine(r.channel, r.severity, r.ts, false)
		l.Text = append(l.Text, r.text...)
		store.CloseOpen()
	}
	store.ToggleBookmark(1)

	path := filepath.Join(t.TempDir(), "trace.csv")
	saved, err := store.Save(path, table)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved != len(rows) {
		t.Errorf("Save count = %d, want %d", saved, len(rows))
	}

	loaded := NewStore()
	loadedTable := itm.NewChannelTable()
	n, err := loaded.Load(path, loadedTable)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != len(rows) {
		t.Errorf("Load count = %d, want %d", n, len(rows))
	}

	for i, r := range rows {
		l := loaded.At(i)
		if l.Channel != r.channel {
			t.Errorf("row %d: channel = %d, want %d", i, l.Channel, r.channel)
		}
		if l.Severity != r.severity {
			t.Errorf("row %d: severity = %v, want %v", i, l.Severity, r.severity)
		}
		if l.String() != r.text {
			t.Errorf("row %d: text = %q, want %q", i, l.String(), r.text)
		}
		// Timestamps persist relative to the first line, 6 decimals.
		wantTS := r.ts - rows[0].ts
		if diff := l.Timestamp - wantTS; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("row %d: timestamp = %v, want %v", i, l.Timestamp, wantTS)
		}
	}
	if !loaded.At(1).Bookmarked {
		t.Error("bookmark lost in round trip")
	}
	if loaded.At(0).Bookmarked {
		t.Error("spurious bookmark after round trip")
	}
	if got := loadedTable.Name(2); got != `weird "name", quoted` {
		t.Errorf("channel 2 name = %q", got)
	}

	// A second save must reproduce the file byte for byte.
	path2 := filepath.Join(t.TempDir(), "trace2.csv")
	if _, err := loaded.Save(path2, loadedTable); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	b1, _ := os.ReadFile(path)
	b2, _ := os.ReadFile(path2)
	if diff := cmp.Diff(string(b1), string(b2)); diff != "" {
		t.Errorf("second save differs (-first +second):\n%s", diff)
	}
}

func TestLoadLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	content := "Channel,Severity,Timestamp,Text,Bookmark\n" +
		"0,1,0.000000,\"hello\",\n" +
		"3,3,0.250000,\"bad, bad\",#1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	n, err := store.Load(path, itm.NewChannelTable())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 2 {
		t.Fatalf("Load count = %d, want 2", n)
	}
	if l := store.At(1); l.Channel != 3 || l.Severity != SeverityError || l.String() != "bad, bad" || !l.Bookmarked {
		t.Errorf("legacy row parsed as %+v", l)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"empty":      "",
		"bad header": "What,Is,This\n",
		"bad row":    csvHeader + "\n" + "nope,\"x\",info,0.0,\"y\",\n",
		"unclosed":   csvHeader + "\n" + "0,\"x,info,0.0,\"y\",\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".csv")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		store := NewStore()
		n, err := store.Load(path, itm.NewChannelTable())
		if err == nil {
			t.Errorf("%s: Load succeeded, want error", name)
		}
		if n != 0 || store.Len() != 0 {
			t.Errorf("%s: partial load: n=%d len=%d", name, n, store.Len())
		}
	}
}

func TestSplitRow(t *testing.T) {
	cases := []struct {
		row  string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"he said ""hi""",x`, []string{`he said "hi"`, "x"}},
		{"a,,c", []string{"a", "", "c"}},
		{"a,b,", []string{"a", "b", ""}},
		{`""`, []string{""}},
	}
	for _, tc := range cases {
		got, err := splitRow(tc.row)
		if err != nil {
			t.Errorf("splitRow(%q): %v", tc.row, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("splitRow(%q) mismatch (-want +got):\n%s", tc.row, diff)
		}
	}
}
