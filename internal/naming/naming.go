// Package naming derives stable layer identifiers and caption line breaks
// from display names.
package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LineSeparator is the paragraph break understood by the editor's text layers.
const LineSeparator = "\r"

// IDSeparator joins the slug and the entry id in a stable id.
const IDSeparator = "---"

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

	doubleAcute = strings.NewReplacer(
		"Ő", "O", "ő", "o",
		"Ű", "U", "ű", "u",
	)
)

// StableID turns a display name into a lowercase ASCII slug usable as a
// cache key and layer name. When entryID is non-nil it is appended after
// IDSeparator so entries with identical names stay distinct.
func StableID(displayName string, entryID *int64) string {
	s := doubleAcute.Replace(displayName)
	s = stripMarks(s)
	s = strings.ToLower(s)
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if entryID != nil {
		s += IDSeparator + strconv.FormatInt(*entryID, 10)
	}
	return s
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SplitID separates a stable id into its slug and entry id. ok is false when
// the id carries no numeric suffix.
func SplitID(id string) (slug string, entryID int64, ok bool) {
	idx := strings.LastIndex(id, IDSeparator)
	if idx == -1 {
		return id, 0, false
	}
	n, err := strconv.ParseInt(id[idx+len(IDSeparator):], 10, 64)
	if err != nil {
		return id, 0, false
	}
	return id[:idx], n, true
}

// BreakName inserts LineSeparator into long names. Two-part names are never
// broken; short prefixes such as "Dr." do not count as words. A hyphenated
// surname forces the break right after it.
func BreakName(name string, breakAfter int) string {
	if breakAfter <= 0 {
		return name
	}
	words := strings.Split(name, " ")
	if len(words) < 2 {
		return name
	}

	realWords := 0
	for _, w := range words {
		if !isPrefix(w) {
			realWords++
		}
	}
	if realWords < 3 {
		return name
	}

	for i, w := range words {
		if strings.Contains(w, "-") {
			if i < len(words)-1 {
				return joinAt(words, i+1)
			}
			break
		}
	}

	count := 0
	for i, w := range words {
		if !isPrefix(w) {
			count++
		}
		if count > breakAfter {
			return joinAt(words, i)
		}
	}
	return name
}

func isPrefix(word string) bool {
	return utf8.RuneCountInString(strings.ReplaceAll(word, ".", "")) <= 2
}

func joinAt(words []string, idx int) string {
	return strings.Join(words[:idx], " ") + LineSeparator + strings.Join(words[idx:], " ")
}
