package trace

import "testing"

func TestWildcardMatcher(t *testing.T) {
	m := WildcardMatcher{}

	cases := []struct {
		pattern, text string
		wantOffset    int
		wantOK        bool
	}{
		{"needle", "find the needle here", 9, true},
		{"needle", "nothing", 0, false},
		{"n??dle", "a noodle", 2, true},
		{"he*o", "hello", 0, true},
		{"he*o", "heo", 0, true},
		{"a*z", "abc", 0, false},
		{"/err/", "an err here", 3, true},
		{"/err/", "errors", 0, false}, // no boundary after "err"
		{"", "anything", 0, true},
		{"x", "", 0, false},
		{"*", "", 0, true},
	}

	for _, tc := range cases {
		got, ok := m.Match(tc.pattern, tc.text)
		if ok != tc.wantOK {
			t.Errorf("Match(%q, %q) ok = %v, want %v", tc.pattern, tc.text, ok, tc.wantOK)
			continue
		}
		if ok && got.Offset != tc.wantOffset {
			t.Errorf("Match(%q, %q) offset = %d, want %d", tc.pattern, tc.text, got.Offset, tc.wantOffset)
		}
	}
}

func TestWildcardMatchLength(t *testing.T) {
	m := WildcardMatcher{}
	got, ok := m.Match("a*d", "xx abcd yy")
	if !ok {
		t.Fatal("no match")
	}
	if got.Offset != 3 || got.Length != 4 {
		t.Errorf("match = %+v, want offset 3 length 4", got)
	}
}
