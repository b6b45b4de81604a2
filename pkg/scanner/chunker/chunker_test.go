package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChaptersSingleFallback(t *testing.T) {
	text := "  李明是一位勇敢的侠客，他住在长安城。  "
	chapters := New().Chapters(text)

	require.Len(t, chapters, 1)
	assert.Equal(t, "第一章", chapters[0].Title)
	assert.Equal(t, strings.TrimSpace(text), chapters[0].Content)
	assert.Equal(t, 1, chapters[0].Order)
}

func TestChaptersHeadings(t *testing.T) {
	text := "楔子的内容。\n第一章 风起\n李明出发了。\n第二章 云涌\n李明回来了。"
	chapters := New().Chapters(text)

	require.Len(t, chapters, 3)
	assert.Equal(t, PrologueTitle, chapters[0].Title)
	assert.Equal(t, "楔子的内容。", chapters[0].Content)
	assert.Equal(t, "第一章 风起", chapters[1].Title)
	assert.Equal(t, "李明出发了。", chapters[1].Content)
	assert.Equal(t, "第二章 云涌", chapters[2].Title)
	assert.Equal(t, 2, chapters[2].Order)
}

func TestChaptersMarkdownAndEnglish(t *testing.T) {
	text := "# Opening\nIt began.\nChapter 2 The Road\nThey walked."
	chapters := New().Chapters(text)

	require.Len(t, chapters, 2)
	assert.Equal(t, "Opening", chapters[0].Title)
	assert.Equal(t, "Chapter 2 The Road", chapters[1].Title)
	assert.Equal(t, "They walked.", chapters[1].Content)
}

func TestChaptersPartition(t *testing.T) {
	sentence := "他走了很远的路。" // 8 runes
	text := strings.Repeat(sentence, 5)
	chapters := NewWithSize(20).Chapters(text)

	require.Len(t, chapters, 3)
	assert.Equal(t, "第一章", chapters[0].Title)
	assert.Equal(t, "第三章", chapters[2].Title)
	assert.Equal(t, strings.Repeat(sentence, 2), chapters[0].Content)
	assert.Equal(t, sentence, chapters[2].Content)
}

func TestChineseNumeral(t *testing.T) {
	cases := map[int]string{
		1:    "一",
		10:   "十",
		11:   "十一",
		20:   "二十",
		101:  "一百零一",
		110:  "一百一十",
		1000: "一千",
	}
	for n, want := range cases {
		assert.Equal(t, want, ChineseNumeral(n), "n=%d", n)
	}
}

func TestSentences(t *testing.T) {
	text := "李明说：“因为下雨，我们取消了比赛。”李明回到了长安城。He left. Then?"
	sentences := Sentences(text)

	require.Len(t, sentences, 4)
	assert.Equal(t, "李明说：“因为下雨，我们取消了比赛。”", sentences[0].Text)
	assert.Equal(t, "李明回到了长安城。", sentences[1].Text)
	assert.Equal(t, "He left.", sentences[2].Text)
	assert.Equal(t, "Then?", sentences[3].Text)

	runes := []rune(text)
	for i, s := range sentences {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, s.Text, string(runes[s.Range.Start:s.Range.End]))
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 4, WordCount("李明笑了"))
	assert.Equal(t, 5, WordCount("李明 said hello 2024"))
	assert.Equal(t, 0, WordCount("。，！"))
}

func TestSummarize(t *testing.T) {
	short := "很短的文本。"
	assert.Equal(t, short, Summarize(short, 200))

	text := "第一句话。第二句话。第三句话很长很长。"
	assert.Equal(t, "第一句话。第二句话。", Summarize(text, 12))

	noBreak := strings.Repeat("长", 30)
	assert.Equal(t, strings.Repeat("长", 10)+Ellipsis, Summarize(noBreak, 10))
}

func TestClean(t *testing.T) {
	raw := "\r\n　　第一行   有空格\r\n\r\n\r\n\r\n第二行\t\t结束  "
	assert.Equal(t, "第一行 有空格\n\n第二行 结束", Clean(raw))
}

func TestOffsets(t *testing.T) {
	text := "李a明"
	o := NewOffsets(text)
	assert.Equal(t, 0, o.Rune(0))
	assert.Equal(t, 1, o.Rune(3))
	assert.Equal(t, 2, o.Rune(4))
	assert.Equal(t, 3, o.Rune(len(text)))
}
