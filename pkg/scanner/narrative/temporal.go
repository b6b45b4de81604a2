package narrative

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kittclouds/storygraph/pkg/graph"
	"github.com/kittclouds/storygraph/pkg/scanner/chunker"
)

// TimeRule is one time-expression pattern. Normalize may be nil.
type TimeRule struct {
	Type      string
	Pattern   *regexp.Regexp
	Normalize func(sub []string) string
}

const cnDigits = `[0-9零〇一二两三四五六七八九十百]`

var seasons = map[string]string{
	"春": "spring", "夏": "summer", "秋": "autumn", "冬": "winter",
	"spring": "spring", "summer": "summer", "autumn": "autumn", "fall": "autumn", "winter": "winter",
}

var daytimes = map[string]string{
	"黎明": "dawn", "清晨": "morning", "早上": "morning", "早晨": "morning", "上午": "morning",
	"中午": "noon", "正午": "noon", "下午": "afternoon", "傍晚": "evening", "黄昏": "evening",
	"晚上": "night", "夜晚": "night", "深夜": "night", "午夜": "midnight",
	"dawn": "dawn", "morning": "morning", "noon": "noon", "afternoon": "afternoon", "evening": "evening", "night": "night", "midnight": "midnight",
}

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

var relativeFixed = map[string]string{
	"昨天": "-1d", "前天": "-2d", "去年": "-1y", "前年": "-2y", "上个月": "-1m",
	"明天": "+1d", "后天": "+2d", "明年": "+1y", "下个月": "+1m",
	"yesterday": "-1d", "tomorrow": "+1d", "last year": "-1y", "next year": "+1y",
}

func ymd(y, m, d string) string {
	return fmt.Sprintf("%04d-%02d-%02d", ParseNumber(y), ParseNumber(m), ParseNumber(d))
}

func lookup(table map[string]string) func([]string) string {
	return func(sub []string) string {
		return table[strings.ToLower(sub[1])]
	}
}

// TimeRules are checked in order; on overlapping matches the earlier start
// wins, then the longer match, then the earlier rule.
var TimeRules = []TimeRule{
	// absolute
	{Type: "absolute_date", Pattern: regexp.MustCompile(`(` + cnDigits + `{4})年(` + cnDigits + `{1,3})月(` + cnDigits + `{1,3})[日号]`),
		Normalize: func(s []string) string { return ymd(s[1], s[2], s[3]) }},
	{Type: "absolute_date", Pattern: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		Normalize: func(s []string) string { return ymd(s[1], s[2], s[3]) }},
	{Type: "absolute_date", Pattern: regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),?\s+(\d{4})\b`),
		Normalize: func(s []string) string {
			return fmt.Sprintf("%04d-%02d-%02d", ParseNumber(s[3]), months[strings.ToLower(s[1])], ParseNumber(s[2]))
		}},
	{Type: "absolute_date", Pattern: regexp.MustCompile(`(` + cnDigits + `{1,3})月(` + cnDigits + `{1,3})[日号]`),
		Normalize: func(s []string) string { return fmt.Sprintf("%02d-%02d", ParseNumber(s[1]), ParseNumber(s[2])) }},
	{Type: "absolute_date", Pattern: regexp.MustCompile(`(\d{4})年`),
		Normalize: func(s []string) string { return s[1] }},
	{Type: "absolute_time", Pattern: regexp.MustCompile(`\b(\d{1,2})[:：](\d{2})\b`),
		Normalize: func(s []string) string { return fmt.Sprintf("%02d:%02d", ParseNumber(s[1]), ParseNumber(s[2])) }},
	{Type: "absolute_time", Pattern: regexp.MustCompile(`(\d{1,2})点(?:(\d{1,2})分|半|钟)?`),
		Normalize: clock},
	{Type: "absolute_time", Pattern: regexp.MustCompile(`(` + cnDigits + `{1,3})点(?:(` + cnDigits + `{1,3})分|半|钟)`),
		Normalize: clock},
	{Type: "absolute_season", Pattern: regexp.MustCompile(`(?:初|暮|深|晚|盛|寒)?(春|夏|秋|冬)(?:天|季|日)`),
		Normalize: lookup(seasons)},
	{Type: "absolute_season", Pattern: regexp.MustCompile(`(?i)\b(spring|summer|autumn|fall|winter)\b`),
		Normalize: lookup(seasons)},
	{Type: "absolute_period", Pattern: regexp.MustCompile(`(黎明|清晨|早上|早晨|上午|中午|正午|下午|傍晚|黄昏|晚上|夜晚|深夜|午夜)`),
		Normalize: lookup(daytimes)},
	{Type: "absolute_period", Pattern: regexp.MustCompile(`(?i)\b(?:in the |at )(dawn|morning|noon|afternoon|evening|night|midnight)\b`),
		Normalize: lookup(daytimes)},

	// relative
	{Type: "relative_past", Pattern: regexp.MustCompile(`(昨天|前天|去年|前年|上个月)`),
		Normalize: lookup(relativeFixed)},
	{Type: "relative_past", Pattern: regexp.MustCompile(`(` + cnDigits + `{1,4}|数|几|多)(年|天|日|个月)(?:以)?前`),
		Normalize: func(s []string) string { return relativeAmount("-", s[1], s[2]) }},
	{Type: "relative_past", Pattern: regexp.MustCompile(`(?i)\b(yesterday|last year)\b`),
		Normalize: lookup(relativeFixed)},
	{Type: "relative_past", Pattern: regexp.MustCompile(`(?i)\b(\d+) (year|day|month)s? ago\b`),
		Normalize: func(s []string) string { return relativeAmount("-", s[1], s[2]) }},
	{Type: "relative_future", Pattern: regexp.MustCompile(`(明天|后天|明年|下个月)`),
		Normalize: lookup(relativeFixed)},
	{Type: "relative_future", Pattern: regexp.MustCompile(`(` + cnDigits + `{1,4}|数|几|多)(年|天|日|个月)(?:以|之)?后`),
		Normalize: func(s []string) string { return relativeAmount("+", s[1], s[2]) }},
	{Type: "relative_future", Pattern: regexp.MustCompile(`(?i)\b(tomorrow|next year)\b`),
		Normalize: lookup(relativeFixed)},
	{Type: "relative_sequence", Pattern: regexp.MustCompile(`(随后|之后|然后|接着|不久|后来|此前|之前|此后|与此同时)`)},
	{Type: "relative_sequence", Pattern: regexp.MustCompile(`(?i)\b(afterwards|later|then|meanwhile|before that)\b`)},
	{Type: "relative_duration", Pattern: regexp.MustCompile(`(` + cnDigits + `{1,4}|数|几|多)(?:个)?(年|天|日|月|时辰|夜)(?:之久|以来|之内|之间)`)},
	{Type: "relative_duration", Pattern: regexp.MustCompile(`(?i)\b(?:for) (\d+|a few|several) (years?|days?|months?|hours?)\b`)},

	// period
	{Type: "period_age", Pattern: regexp.MustCompile(`(上古|远古|太古|洪荒|古时候|末法时代|[\p{Han}]{2,4}?时代)`)},
	{Type: "period_dynasty", Pattern: regexp.MustCompile(`((?:唐|宋|元|明|清|汉|秦|隋|晋|周|商)(?:朝|代)|[\p{Han}]{1,3}王朝)`)},
	{Type: "period_lifecycle", Pattern: regexp.MustCompile(`(童年|小时候|年幼时|少年时|青年时|中年时|晚年|临终前)`)},
}

func clock(s []string) string {
	minute := ParseNumber(s[2])
	if strings.HasSuffix(s[0], "半") {
		minute = 30
	}
	return fmt.Sprintf("%02d:%02d", ParseNumber(s[1]), minute)
}

func relativeAmount(sign, amount, unit string) string {
	n := ParseNumber(amount)
	if n == 0 {
		return ""
	}
	u := "y"
	switch strings.ToLower(unit) {
	case "天", "日", "day":
		u = "d"
	case "个月", "month":
		u = "m"
	}
	return sign + strconv.Itoa(n) + u
}

var cnValue = map[rune]int{
	'零': 0, '〇': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// ParseNumber reads Arabic digits, digit-by-digit Chinese years (二〇二四)
// or positional Chinese numerals up to the hundreds (三十五). Unreadable
// input yields 0.
func ParseNumber(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	runes := []rune(s)
	if !strings.ContainsAny(s, "十百") {
		n := 0
		for _, r := range runes {
			v, ok := cnValue[r]
			if !ok {
				return 0
			}
			n = n*10 + v
		}
		return n
	}
	total, cur := 0, 0
	for _, r := range runes {
		switch r {
		case '百':
			if cur == 0 {
				cur = 1
			}
			total += cur * 100
			cur = 0
		case '十':
			if cur == 0 {
				cur = 1
			}
			total += cur * 10
			cur = 0
		default:
			v, ok := cnValue[r]
			if !ok {
				return 0
			}
			cur = v
		}
	}
	return total + cur
}

// TimeExtractor finds time expressions.
type TimeExtractor struct {
	rules []TimeRule
}

// NewTimeExtractor creates an extractor over TimeRules.
func NewTimeExtractor() *TimeExtractor {
	return &TimeExtractor{rules: TimeRules}
}

type timeMatch struct {
	expr graph.TimeExpression
	end  int
	rule int
}

// Extract returns the non-overlapping time expressions of text sorted by
// rune position.
func (x *TimeExtractor) Extract(text string) []graph.TimeExpression {
	offsets := chunker.NewOffsets(text)
	var all []timeMatch
	for i, r := range x.rules {
		for _, loc := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
			sub := make([]string, len(loc)/2)
			for g := range sub {
				if loc[2*g] >= 0 {
					sub[g] = text[loc[2*g]:loc[2*g+1]]
				}
			}
			expr := graph.TimeExpression{
				Expression: sub[0],
				Type:       r.Type,
				Position:   offsets.Rune(loc[0]),
			}
			if r.Normalize != nil {
				expr.Normalized = r.Normalize(sub)
			}
			all = append(all, timeMatch{expr: expr, end: offsets.Rune(loc[1]), rule: i})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.expr.Position != b.expr.Position {
			return a.expr.Position < b.expr.Position
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return a.rule < b.rule
	})

	out := make([]graph.TimeExpression, 0, len(all))
	cursor := 0
	for _, m := range all {
		if m.expr.Position < cursor {
			continue
		}
		out = append(out, m.expr)
		cursor = m.end
	}
	return out
}
