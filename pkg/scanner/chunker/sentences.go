package chunker

import "strings"

// Sentence is one sentence of the document with its rune span.
type Sentence struct {
	Text  string
	Range TextRange
	Index int
}

func isTerminal(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '…', '\n':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '”', '’', '"', '\'', '」', '』', '）', ')', '】', '》':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '　'
}

// Sentences splits text on sentence-terminal punctuation. Trailing closing
// quotes stay with the sentence they close; an English period ends a
// sentence only before whitespace or the end of text.
func Sentences(text string) []Sentence {
	runes := []rune(text)
	var out []Sentence
	start := 0

	emit := func(end int) {
		s, e := start, end
		for s < e && (isSpace(runes[s]) || runes[s] == '\n') {
			s++
		}
		for e > s && (isSpace(runes[e-1]) || runes[e-1] == '\n') {
			e--
		}
		if s < e {
			out = append(out, Sentence{
				Text:  string(runes[s:e]),
				Range: TextRange{Start: s, End: e},
				Index: len(out),
			})
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		terminal := isTerminal(r)
		if r == '.' && (i+1 == len(runes) || isSpace(runes[i+1]) || runes[i+1] == '\n') {
			terminal = true
		}
		if !terminal {
			continue
		}
		j := i + 1
		for j < len(runes) && r != '\n' && (isTerminal(runes[j]) && runes[j] != '\n' || isCloser(runes[j])) {
			j++
		}
		emit(j)
		i = j - 1
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return out
}

// Ellipsis marks a hard-truncated summary.
const Ellipsis = "..."

// DefaultSummaryLength is the maximum summary length in runes.
const DefaultSummaryLength = 200

// Summarize returns text unchanged when it fits in max runes; otherwise the
// longest run of whole leading sentences that fits, or a hard cut plus
// Ellipsis when not even the first sentence fits.
func Summarize(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	end := 0
	for _, s := range Sentences(text) {
		if s.Range.End > max {
			break
		}
		end = s.Range.End
	}
	if end == 0 {
		return string(runes[:max]) + Ellipsis
	}
	return strings.TrimSpace(string(runes[:end]))
}
