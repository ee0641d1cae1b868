package csvtable

import (
	"strings"
	"unicode/utf8"
)

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	return newlineReplacer.Replace(text)
}

// SplitRows splits text into rows on any line break convention. Blank lines
// are dropped, so leading, trailing and repeated line breaks never produce
// empty rows. Empty input yields a single empty row.
func SplitRows(text string) []string {
	lines := strings.Split(normalizeNewlines(text), "\n")
	return compactRows(lines)
}

// SplitRowsQuoted is SplitRows for tables whose escaped cells may contain
// line breaks. A break inside an escaped cell is kept (as "\n") and does not
// end the row.
func SplitRowsQuoted(text string, sep rune) []string {
	text = normalizeNewlines(text)
	var (
		rows  []string
		start int
		st    cellState
	)
	st.reset()
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' && st.open() {
			rows = append(rows, text[start:i])
			start = i + size
			st.reset()
		} else {
			st.step(r, sep)
		}
		i += size
	}
	rows = append(rows, text[start:])
	return compactRows(rows)
}

// JoinRows joins rows with the given line ending. SplitRows(JoinRows(rows))
// returns rows when none of them is empty.
func JoinRows(rows []string, ending LineEnding) string {
	if ending == "" {
		ending = LF
	}
	return strings.Join(rows, string(ending))
}

func compactRows(lines []string) []string {
	rows := lines[:0]
	for _, line := range lines {
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return []string{""}
	}
	return rows
}

// cellState tracks the escape state of the cell being scanned.
type cellState struct {
	atStart bool
	escaped bool
	// closable is set after an odd number of quotes inside an escaped cell,
	// meaning the last quote may be the closing one.
	closable bool
}

func (s *cellState) reset() {
	*s = cellState{atStart: true}
}

// open reports whether a separator or line break here ends the cell.
func (s *cellState) open() bool {
	return !s.escaped || s.closable
}

// step advances past r and reports whether r belongs to the cell value.
func (s *cellState) step(r, sep rune) bool {
	keep := true
	switch {
	case r == '"':
		switch {
		case s.atStart:
			s.escaped = true
			keep = false
		case s.escaped:
			keep = s.closable
			s.closable = !s.closable
		}
	case r == sep && s.open():
		s.reset()
		return false
	}
	s.atStart = false
	return keep
}
