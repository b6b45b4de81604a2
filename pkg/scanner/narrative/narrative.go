// Package narrative extracts time expressions and sentence-level events and
// orders them into a timeline.
package narrative

import (
	"unicode"

	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
)

// EventClass is the indicator category that made a sentence an event.
type EventClass string

const (
	EventAction      EventClass = "action"
	EventInteraction EventClass = "interaction"
	EventChange      EventClass = "change"
	EventMovement    EventClass = "movement"
)

// indicatorEntry is a static term -> event class mapping. English terms are
// stems and match at a word start.
type indicatorEntry struct {
	term  string
	event EventClass
}

var indicatorEntries = []indicatorEntry{
	// Action
	{"战斗", EventAction}, {"打败", EventAction}, {"击败", EventAction}, {"杀", EventAction},
	{"攻击", EventAction}, {"出手", EventAction}, {"拔剑", EventAction}, {"施展", EventAction},
	{"修炼", EventAction}, {"拿起", EventAction}, {"得到", EventAction}, {"获得", EventAction},
	{"取消", EventAction}, {"救", EventAction}, {"偷", EventAction}, {"建立", EventAction},
	{"attack", EventAction}, {"defeat", EventAction}, {"fight", EventAction}, {"fought", EventAction},
	{"kill", EventAction}, {"slay", EventAction}, {"rescu", EventAction}, {"steal", EventAction},
	{"build", EventAction}, {"destroy", EventAction}, {"take", EventAction}, {"took", EventAction},

	// Interaction
	{"说", EventInteraction}, {"道：", EventInteraction}, {"问", EventInteraction}, {"答", EventInteraction},
	{"喊", EventInteraction}, {"告诉", EventInteraction}, {"遇见", EventInteraction}, {"相遇", EventInteraction},
	{"见到", EventInteraction}, {"拜", EventInteraction}, {"收", EventInteraction}, {"帮助", EventInteraction},
	{"背叛", EventInteraction}, {"答应", EventInteraction}, {"结婚", EventInteraction}, {"加入", EventInteraction},
	{"said", EventInteraction}, {"ask", EventInteraction}, {"repli", EventInteraction}, {"told", EventInteraction},
	{"tell", EventInteraction}, {"meet", EventInteraction}, {"betray", EventInteraction},
	{"promis", EventInteraction}, {"whisper", EventInteraction}, {"shout", EventInteraction}, {"help", EventInteraction},

	// Change
	{"成为", EventChange}, {"变成", EventChange}, {"突破", EventChange}, {"晋升", EventChange},
	{"死", EventChange}, {"出生", EventChange}, {"失去", EventChange}, {"觉醒", EventChange},
	{"became", EventChange}, {"become", EventChange}, {"transform", EventChange}, {"die", EventChange},
	{"died", EventChange}, {"lost", EventChange}, {"born", EventChange},

	// Movement
	{"来到", EventMovement}, {"回到", EventMovement}, {"前往", EventMovement}, {"离开", EventMovement},
	{"走", EventMovement}, {"进入", EventMovement}, {"到达", EventMovement}, {"抵达", EventMovement},
	{"逃", EventMovement}, {"出发", EventMovement}, {"住在", EventMovement}, {"去", EventMovement},
	{"arriv", EventMovement}, {"depart", EventMovement}, {"enter", EventMovement}, {"journey", EventMovement},
	{"leav", EventMovement}, {"left", EventMovement}, {"travel", EventMovement}, {"visit", EventMovement},
	{"went", EventMovement}, {"walk", EventMovement}, {"return", EventMovement},
}

// IndicatorMatcher finds event-indicator vocabulary.
type IndicatorMatcher struct {
	dict *implicitmatcher.Dictionary
}

// NewIndicatorMatcher compiles the indicator vocabulary.
func NewIndicatorMatcher() (*IndicatorMatcher, error) {
	byClass := make(map[EventClass][]string)
	var order []EventClass
	for _, e := range indicatorEntries {
		if _, ok := byClass[e.event]; !ok {
			order = append(order, e.event)
		}
		byClass[e.event] = append(byClass[e.event], e.term)
	}
	entries := make([]implicitmatcher.Entry, 0, len(order))
	for _, c := range order {
		entries = append(entries, implicitmatcher.Entry{ID: string(c), Surfaces: byClass[c]})
	}
	dict, err := implicitmatcher.Compile(entries)
	if err != nil {
		return nil, err
	}
	return &IndicatorMatcher{dict: dict}, nil
}

// Classes returns the indicator classes present in text, in order of first
// hit.
func (m *IndicatorMatcher) Classes(text string) []EventClass {
	runes := []rune(text)
	var out []EventClass
	seen := make(map[string]bool)
	for _, hit := range m.dict.ScanAll(text) {
		if isWordChar(runes[hit.Start]) && hit.Start > 0 && isWordChar(runes[hit.Start-1]) {
			continue
		}
		for _, id := range hit.IDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, EventClass(id))
			}
		}
	}
	return out
}

// DictionarySize returns the number of indicator terms.
func (m *IndicatorMatcher) DictionarySize() int {
	return m.dict.Size()
}

func isWordChar(r rune) bool {
	return r < unicode.MaxLatin1 && unicode.IsLetter(r)
}
