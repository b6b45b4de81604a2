package semantic

import (
	"strings"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
)

// BeliefMarkers flag a description as stating a belief or value.
var BeliefMarkers = []string{
	"相信", "信仰", "信奉", "坚信", "誓言", "发誓", "道义", "天道", "命运", "因果",
	"轮回", "规矩", "祖训", "信条", "believe", "faith", "destiny", "oath",
}

// GroupSuffixes mark a name as a social group even when it was not recognized
// as an organization.
var GroupSuffixes = []string{
	"派", "门", "帮", "宗", "教", "会", "盟", "阁", "宫", "殿", "族", "军", "寨", "堂",
	"Sect", "Clan", "Guild", "Order",
}

// Cultural categories.
var CulturalCategories = []implicitmatcher.Entry{
	{ID: "customs", Surfaces: []string{"习俗", "风俗", "节日", "婚礼", "葬礼", "祭祀", "庆典", "礼节", "传统", "过年", "festival", "custom", "ritual", "wedding", "funeral"}},
	{ID: "beliefs", Surfaces: []string{"神灵", "神明", "佛祖", "菩萨", "寺庙", "道观", "祈祷", "供奉", "天神", "鬼神", "仙人", "temple", "pray", "spirit"}},
	{ID: "values", Surfaces: []string{"忠诚", "孝顺", "仁义", "侠义", "荣誉", "正义", "诚信", "勇气", "尊严", "责任", "loyalty", "honor", "justice", "duty"}},
	{ID: "arts", Surfaces: []string{"诗词", "绘画", "琴声", "弹琴", "下棋", "书法", "音乐", "舞蹈", "唱歌", "戏曲", "poem", "music", "dance", "painting", "song"}},
	{ID: "knowledge", Surfaces: []string{"书籍", "典籍", "秘籍", "医术", "兵法", "学问", "读书", "经书", "算术", "星象", "炼丹", "scroll", "medicine", "scholar"}},
}

// Significance tags and their coverage thresholds (inclusive).
const (
	SignificanceMajor    = "重要"
	SignificanceRelevant = "相关"
	SignificanceMinor    = "次要"

	MajorCoverage    = 0.3
	RelevantCoverage = 0.1
)

// Member tie types, checked in order against the events two members share.
var memberTies = []implicitmatcher.Entry{
	{ID: "master_apprentice", Surfaces: []string{"师父", "师傅", "徒弟", "拜师", "为徒", "为师"}},
	{ID: "fellow_disciple", Surfaces: []string{"师兄", "师弟", "师姐", "师妹", "同门"}},
	{ID: "rival", Surfaces: []string{"敌人", "仇人", "对手", "击败", "打败", "攻击", "背叛"}},
}

const (
	tieAlly   = "ally"
	tieMember = "member"
)

type worldExtractor struct {
	beliefs  *implicitmatcher.Dictionary
	cultural *implicitmatcher.Dictionary
	ties     *implicitmatcher.Dictionary
}

func newWorldExtractor() *worldExtractor {
	return &worldExtractor{
		beliefs:  implicitmatcher.MustCompile([]implicitmatcher.Entry{{ID: "belief", Surfaces: BeliefMarkers}}),
		cultural: implicitmatcher.MustCompile(CulturalCategories),
		ties:     implicitmatcher.MustCompile(memberTies),
	}
}

func (w *worldExtractor) extract(entities []*graph.Entity, events []*graph.Event) graph.WorldBuilding {
	return graph.WorldBuilding{
		CoreBeliefs:      w.coreBeliefs(events),
		SocialStructures: w.socialStructures(entities, events),
		CulturalElements: w.culturalElements(events),
	}
}

// coreBeliefs returns the distinct event descriptions carrying a belief
// marker.
func (w *worldExtractor) coreBeliefs(events []*graph.Event) []string {
	out := []string{}
	for _, ev := range events {
		if len(w.beliefs.ScanLongest(ev.Description)) > 0 {
			out = appendUnique(out, ev.Description)
		}
	}
	return out
}

func isGroup(e *graph.Entity) bool {
	if e.Type == graph.TypeOrganization || e.Type == graph.TypeFaction {
		return true
	}
	if e.Type != graph.TypeCharacter && e.Type != graph.TypeLocation {
		for _, s := range GroupSuffixes {
			if strings.HasSuffix(e.Name, s) {
				return true
			}
		}
	}
	return false
}

// socialStructures lists each group with the characters sharing an event
// with it, and types every member pair from the events they share.
func (w *worldExtractor) socialStructures(entities []*graph.Entity, events []*graph.Event) []graph.SocialStructure {
	characters := make(map[string]bool)
	for _, e := range entities {
		if e.Type == graph.TypeCharacter {
			characters[e.Key()] = true
		}
	}

	out := []graph.SocialStructure{}
	for _, g := range entities {
		if !isGroup(g) {
			continue
		}
		key := g.Key()
		var members []string
		for _, ev := range events {
			if !ev.HasParticipant(key) && !strings.Contains(ev.Description, g.Name) {
				continue
			}
			for _, p := range ev.Participants {
				if characters[p] {
					members = appendUnique(members, p)
				}
			}
		}
		if len(members) == 0 {
			continue
		}

		s := graph.SocialStructure{Name: key, Members: members, Relationships: []graph.MemberRelation{}}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				s.Relationships = append(s.Relationships, graph.MemberRelation{
					Source: members[i],
					Target: members[j],
					Type:   w.tie(members[i], members[j], events),
				})
			}
		}
		out = append(out, s)
	}
	return out
}

func (w *worldExtractor) tie(a, b string, events []*graph.Event) string {
	shared := false
	found := make(map[string]bool)
	for _, ev := range events {
		if !ev.HasParticipant(a) || !ev.HasParticipant(b) {
			continue
		}
		shared = true
		for _, m := range w.ties.ScanLongest(ev.Description) {
			for _, id := range m.IDs {
				found[id] = true
			}
		}
	}
	for _, t := range memberTies {
		if found[t.ID] {
			return t.ID
		}
	}
	if shared {
		return tieAlly
	}
	return tieMember
}

// culturalElements reports every category with at least one keyword hit,
// tagged by the share of events mentioning it.
func (w *worldExtractor) culturalElements(events []*graph.Event) []graph.CulturalElement {
	elements := make(map[string][]string)
	covered := make(map[string]int)
	for _, ev := range events {
		hit := make(map[string]bool)
		for _, m := range w.cultural.ScanLongest(ev.Description) {
			for _, id := range m.IDs {
				elements[id] = appendUnique(elements[id], m.Text)
				hit[id] = true
			}
		}
		for id := range hit {
			covered[id]++
		}
	}

	out := []graph.CulturalElement{}
	for _, c := range CulturalCategories {
		if len(elements[c.ID]) == 0 {
			continue
		}
		ratio := float64(covered[c.ID]) / float64(len(events))
		tag := SignificanceMinor
		switch {
		case ratio >= MajorCoverage:
			tag = SignificanceMajor
		case ratio >= RelevantCoverage:
			tag = SignificanceRelevant
		}
		out = append(out, graph.CulturalElement{Category: c.ID, Elements: elements[c.ID], Significance: tag})
	}
	return out
}
