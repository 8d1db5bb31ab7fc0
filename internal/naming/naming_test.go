package naming

import (
	"regexp"
	"testing"
)

func id(n int64) *int64 { return &n }

func TestStableID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		entryID  *int64
		expected string
	}{
		{
			name:     "accents and hyphen with id",
			input:    "Dr. Kovács-Nagy Éva",
			entryID:  id(42),
			expected: "dr-kovacs-nagy-eva---42",
		},
		{
			name:     "hungarian double acute letters",
			input:    "Őri Ödön Szűcs Űr",
			expected: "ori-odon-szucs-ur",
		},
		{
			name:     "punctuation runs collapse",
			input:    "  Kiss   János!!  ",
			expected: "kiss-janos",
		},
		{
			name:     "duplicate names stay distinct",
			input:    "Kiss János",
			entryID:  id(7),
			expected: "kiss-janos---7",
		},
		{
			name:     "empty name keeps suffix",
			input:    "",
			entryID:  id(3),
			expected: "---3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StableID(tt.input, tt.entryID)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestStableIDIdempotentAndCharset(t *testing.T) {
	allowed := regexp.MustCompile(`^[a-z0-9-]*(---[0-9]+)?$`)
	names := []string{
		"Dr. Kovács-Nagy Éva",
		"Szőke Ünige Ágnes",
		"O'Brien, Seán",
		"Müller-Lüdenscheidt  Jr.",
		"123 Ábc",
	}
	for _, n := range names {
		base := StableID(n, nil)
		if again := StableID(base, nil); again != base {
			t.Errorf("Expected %q to be stable, got %q", base, again)
		}
		withID := StableID(n, id(99))
		if !allowed.MatchString(withID) {
			t.Errorf("Unexpected characters in %q", withID)
		}
	}
}

func TestSplitID(t *testing.T) {
	slug, n, ok := SplitID("kiss-janos---42")
	if !ok || slug != "kiss-janos" || n != 42 {
		t.Errorf("Expected kiss-janos/42, got %q/%d/%v", slug, n, ok)
	}
	if _, _, ok := SplitID("kiss-janos"); ok {
		t.Errorf("Expected no id in plain slug")
	}
	if _, _, ok := SplitID("kiss---x"); ok {
		t.Errorf("Expected non-numeric suffix to be rejected")
	}
}

func TestBreakName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		breakAfter int
		expected   string
	}{
		{"disabled", "Kovács Éva Anna", 0, "Kovács Éva Anna"},
		{"single word", "Kovács", 1, "Kovács"},
		{"two real words", "Kovács Éva", 1, "Kovács Éva"},
		{"prefix not counted", "Dr. Kovács Éva", 1, "Dr. Kovács Éva"},
		{"three words break after one", "Kovács Éva Anna", 1, "Kovács\rÉva Anna"},
		{"three words break after two", "Kovács Éva Anna", 2, "Kovács Éva\rAnna"},
		{"threshold never exceeded", "Kovács Éva Anna", 3, "Kovács Éva Anna"},
		{"hyphenated surname wins", "Nagy-Kis Éva Anna", 1, "Nagy-Kis\rÉva Anna"},
		{"hyphenated surname ignores threshold", "Nagy-Kis Éva Anna Mária", 3, "Nagy-Kis\rÉva Anna Mária"},
		{"hyphen in last word falls back", "Kiss Éva Anna-Mária", 1, "Kiss\rÉva Anna-Mária"},
		{"prefix before break point", "Dr. Kiss Éva Anna", 1, "Dr. Kiss\rÉva Anna"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BreakName(tt.input, tt.breakAfter)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}
