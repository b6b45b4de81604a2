package chunker

import "unicode/utf8"

// Offsets converts byte offsets of a string into rune offsets.
type Offsets struct {
	runeAt []int
}

// NewOffsets indexes text for byte -> rune conversion.
func NewOffsets(text string) *Offsets {
	runeAt := make([]int, len(text)+1)
	n := 0
	for i := 0; i < len(text); {
		_, w := utf8.DecodeRuneInString(text[i:])
		for k := 0; k < w; k++ {
			runeAt[i+k] = n
		}
		i += w
		n++
	}
	runeAt[len(text)] = n
	return &Offsets{runeAt: runeAt}
}

// Rune returns the rune offset of byte offset b.
func (o *Offsets) Rune(b int) int {
	if b < 0 {
		return 0
	}
	if b >= len(o.runeAt) {
		return o.runeAt[len(o.runeAt)-1]
	}
	return o.runeAt[b]
}

// Window returns the runes of text within radius of [start, end), clamped
// to the text bounds.
func Window(runes []rune, start, end, radius int) string {
	from := start - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(runes) {
		to = len(runes)
	}
	if from >= to {
		return ""
	}
	return string(runes[from:to])
}
