package blank

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	OpenMarker  = "{{"
	CloseMarker = "}}"
)

type SegmentKind int

const (
	Literal SegmentKind = iota
	Blank
)

func (k SegmentKind) String() string {
	if k == Blank {
		return "blank"
	}
	return "literal"
}

type Segment struct {
	Kind    SegmentKind
	Content string
}

// placeholderRun matches the underscore runs generators use for a blank.
var placeholderRun = regexp.MustCompile(`_{4,}`)

// Parse splits text into literal and blank segments. A blank opens at "{{"
// and closes at the first "}}" after it; an unterminated "{{" stays literal.
// Empty input yields a single empty literal.
func Parse(text string) []Segment {
	var segments []Segment
	rest := text
	for {
		start := strings.Index(rest, OpenMarker)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+len(OpenMarker):], CloseMarker)
		if end < 0 {
			break
		}
		if start > 0 {
			segments = append(segments, Segment{Kind: Literal, Content: rest[:start]})
		}
		contentStart := start + len(OpenMarker)
		segments = append(segments, Segment{Kind: Blank, Content: rest[contentStart : contentStart+end]})
		rest = rest[contentStart+end+len(CloseMarker):]
	}
	if rest != "" || len(segments) == 0 {
		segments = append(segments, Segment{Kind: Literal, Content: rest})
	}
	return segments
}

// Join is the inverse of Parse: blanks are re-wrapped in markers.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind == Blank {
			b.WriteString(OpenMarker)
			b.WriteString(s.Content)
			b.WriteString(CloseMarker)
			continue
		}
		b.WriteString(s.Content)
	}
	return b.String()
}

// ExtractAnswers returns the trimmed content of every blank, left to right.
// Duplicates are kept; blanks that are empty after trimming are skipped.
func ExtractAnswers(text string) []string {
	answers := []string{}
	for _, s := range Parse(text) {
		if s.Kind != Blank {
			continue
		}
		if a := strings.TrimSpace(s.Content); a != "" {
			answers = append(answers, a)
		}
	}
	return answers
}

// HasMarker reports whether text contains at least one non-empty blank.
func HasMarker(text string) bool {
	return len(ExtractAnswers(text)) > 0
}

// CountBlanks counts blank segments including empty ones.
func CountBlanks(text string) int {
	n := 0
	for _, s := range Parse(text) {
		if s.Kind == Blank {
			n++
		}
	}
	return n
}

// Insertion is the result of InsertBlank. Caret is a rune offset into Text.
type Insertion struct {
	Text  string
	Caret int
}

// InsertBlank wraps the selection [selStart, selEnd) in markers, leaving the
// caret after the closing marker. With an empty selection it inserts an empty
// marker at selStart and places the caret between the braces. Offsets count
// runes; they are clamped to the text and swapped when reversed.
func InsertBlank(text string, selStart, selEnd int) Insertion {
	runes := []rune(text)
	selStart = clamp(selStart, 0, len(runes))
	selEnd = clamp(selEnd, 0, len(runes))
	if selEnd < selStart {
		selStart, selEnd = selEnd, selStart
	}

	before := string(runes[:selStart])
	selected := string(runes[selStart:selEnd])
	after := string(runes[selEnd:])

	if selected == "" {
		return Insertion{
			Text:  before + OpenMarker + CloseMarker + after,
			Caret: selStart + utf8.RuneCountInString(OpenMarker),
		}
	}

	wrapped := OpenMarker + selected + CloseMarker
	return Insertion{
		Text:  before + wrapped + after,
		Caret: selStart + utf8.RuneCountInString(wrapped),
	}
}

// ReplacePlaceholder substitutes every run of four or more underscores in
// question with a blank holding answer.
func ReplacePlaceholder(question, answer string) string {
	marker := OpenMarker + answer + CloseMarker
	return placeholderRun.ReplaceAllLiteralString(question, marker)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
