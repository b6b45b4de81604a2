// Package chunker segments a manuscript: text cleaning, chapter detection
// (heading patterns or size-based fallback), sentence splitting, word
// counting and the extractive summary.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// DefaultChapterSize is the rune length above which unmarked text is
// partitioned into several chapters.
const DefaultChapterSize = 5000

// PrologueTitle names the text found before the first heading.
const PrologueTitle = "序章"

// TextRange is a half-open rune span [Start, End).
type TextRange struct {
	Start int
	End   int
}

// Len returns the span length in runes.
func (r TextRange) Len() int {
	return r.End - r.Start
}

// Chunker splits text into chapters.
type Chunker struct {
	chapterSize int
}

// New creates a Chunker with the default fallback chapter size.
func New() *Chunker {
	return NewWithSize(DefaultChapterSize)
}

// NewWithSize creates a Chunker whose fallback partitions hold about size
// runes each.
func NewWithSize(size int) *Chunker {
	if size <= 0 {
		size = DefaultChapterSize
	}
	return &Chunker{chapterSize: size}
}

var (
	headingPattern  = regexp.MustCompile(`(?m)^[ \t]*(第[0-9零一二三四五六七八九十百千万两]+[章回节卷部篇集][^\n]*|(?i:chapter)[ \t]+[0-9IVXLCivxlc]+[^\n]*|#{1,3}[ \t]+[^\n]+)$`)
	spaceRunPattern = regexp.MustCompile(`[ \t\f\v]+`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes a raw manuscript: NFC composition, unified line breaks,
// trimmed lines, collapsed blank lines and spaces.
func Clean(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		lines[i] = spaceRunPattern.ReplaceAllString(line, " ")
	}
	text = strings.Join(lines, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Chapters splits cleaned text into chapters. Headings win; without them the
// text is one 第一章 chapter, or several when longer than the chapter size.
func (c *Chunker) Chapters(text string) []graph.Chapter {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	locs := headings(text)
	if len(locs) == 0 {
		return c.partition(text)
	}

	var chapters []graph.Chapter
	if prologue := strings.TrimSpace(text[:locs[0][0]]); prologue != "" {
		chapters = append(chapters, graph.Chapter{Title: PrologueTitle, Content: prologue, Order: 0})
	}

	for i, loc := range locs {
		title := strings.TrimSpace(strings.TrimLeft(text[loc[2]:loc[3]], "#"))
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chapters = append(chapters, graph.Chapter{
			Title:   title,
			Content: strings.TrimSpace(text[loc[1]:end]),
			Order:   i + 1,
		})
	}
	return chapters
}

// maxHeadingLength bounds heading lines; longer lines are prose that merely
// starts like a heading (第三回合...).
const maxHeadingLength = 40

func headings(text string) [][]int {
	var locs [][]int
	for _, loc := range headingPattern.FindAllStringSubmatchIndex(text, -1) {
		if utf8.RuneCountInString(text[loc[2]:loc[3]]) <= maxHeadingLength {
			locs = append(locs, loc)
		}
	}
	return locs
}

// partition cuts unmarked text into chapters of about chapterSize runes at
// sentence boundaries.
func (c *Chunker) partition(text string) []graph.Chapter {
	if utf8.RuneCountInString(text) <= c.chapterSize {
		return []graph.Chapter{{Title: ChapterTitle(1), Content: text, Order: 1}}
	}

	runes := []rune(text)
	var chapters []graph.Chapter
	start := 0
	flush := func(end int) {
		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			n := len(chapters) + 1
			chapters = append(chapters, graph.Chapter{Title: ChapterTitle(n), Content: content, Order: n})
		}
		start = end
	}

	for _, s := range Sentences(text) {
		if s.Range.End-start > c.chapterSize && s.Range.Start > start {
			flush(s.Range.Start)
		}
	}
	flush(len(runes))
	return chapters
}

// ChapterTitle renders 第N章 with a Chinese numeral.
func ChapterTitle(n int) string {
	return "第" + ChineseNumeral(n) + "章"
}

var numerals = []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// ChineseNumeral renders 1..9999 as a Chinese numeral; other values fall
// back to Arabic digits.
func ChineseNumeral(n int) string {
	if n <= 0 || n >= 10000 {
		return strconv.Itoa(n)
	}
	units := []string{"", "十", "百", "千"}
	s := strconv.Itoa(n)

	var b strings.Builder
	pendingZero := false
	for i, ch := range s {
		d := int(ch - '0')
		pos := len(s) - 1 - i
		if d == 0 {
			pendingZero = true
			continue
		}
		if pendingZero {
			b.WriteString(numerals[0])
			pendingZero = false
		}
		// 十一 rather than 一十一 when the tens digit leads.
		if !(d == 1 && pos == 1 && i == 0) {
			b.WriteString(numerals[d])
		}
		b.WriteString(units[pos])
	}
	return b.String()
}

// WordCount counts Han characters individually and Latin/digit runs as one
// word each.
func WordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return count
}

// HasNarrative reports whether text holds any letter at all.
func HasNarrative(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
