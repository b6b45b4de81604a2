package discovery

import (
	"fmt"
	"regexp"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// nameChar is a Han character that may appear inside a name. Function
// characters are excluded so a leftmost match cannot swallow the tail of
// the previous clause.
const nameChar = `[^\P{Han}是的了在和与把被向从对他她它我你您们这那着过也都就还很又说道问一]`

// Rule is one compiled surface pattern. Every listed capture group yields a
// candidate name of the rule's type.
type Rule struct {
	Type        graph.EntityType
	Pattern     *regexp.Regexp
	Groups      []int
	Description string
}

func rule(t graph.EntityType, desc, expr string, groups ...int) Rule {
	if len(groups) == 0 {
		groups = []int{1}
	}
	return Rule{
		Type:        t,
		Pattern:     regexp.MustCompile(expr),
		Groups:      groups,
		Description: desc,
	}
}

// n is a lazy run of name characters.
func n(lo, hi int) string {
	return fmt.Sprintf("%s{%d,%d}?", nameChar, lo, hi)
}

// PrimaryRules are the per-type rules of the full recognizer.
var PrimaryRules = []Rule{
	// CHARACTER
	rule(graph.TypeCharacter, "speech verb",
		`(`+n(2, 4)+`)(?:冷笑道|冷声道|笑道|怒道|喝道|叹道|说道|问道|答道|喊道|叫道|低声道|说|道|问|答|喊|叫)[：:，,“"]`),
	rule(graph.TypeCharacter, "identity statement",
		`(`+n(2, 3)+`)是(?:一位|一个|一名|个)`),
	rule(graph.TypeCharacter, "named person",
		`(?:名叫|名为|叫做|唤作)(`+n(2, 3)+`)`),
	rule(graph.TypeCharacter, "companion phrase",
		`(`+n(2, 3)+`)(?:和|与|跟)(`+n(2, 3)+`)(?:一起|一同|并肩)`, 1, 2),
	rule(graph.TypeCharacter, "english speech verb",
		`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?) (?:said|asked|replied|shouted|whispered|answered)\b`),

	// ORGANIZATION
	rule(graph.TypeOrganization, "membership verb",
		`(?:加入了?|属于|拜入|投靠|身为|来自)(`+n(1, 4)+`(?:门派|派|宗|帮|教|盟|堂|会))`),
	rule(graph.TypeOrganization, "rank suffix",
		`(`+n(1, 4)+`(?:门|派|宗|帮|教|盟|会))(?:的)?(?:弟子|掌门|长老|宗主|帮主|教主|盟主|会长)`),

	// LOCATION
	rule(graph.TypeLocation, "place preposition",
		`(?:住在|来到|前往|回到|到达|抵达|位于|离开|进入|走进|在|到|去|进)了?(`+n(1, 4)+`(?:城|镇|村|山|谷|宫|殿|府|州|国|寺|庙|楼|阁|岛|湖|河|江|海|峰|林|关))`),
	rule(graph.TypeLocation, "english place",
		`\b([A-Z][a-z]+ (?:City|Town|Village|Mountains?|Castle|Kingdom|Forest|Lake|River))\b`),

	// ITEM
	rule(graph.TypeItem, "acquisition verb",
		`(?:一把|一柄|一口|一件|一枚|一颗|一块|得到了?|获得了?|拿起|手持|握着|祭出|取出)(`+n(1, 4)+`(?:剑|刀|枪|戟|弓|鼎|珠|镜|印|符|塔|环|甲|袍|扇|琴|钟|杖|丹|令))`),
	rule(graph.TypeItem, "artifact suffix",
		`(`+n(2, 4)+`(?:神剑|宝剑|宝刀|法宝|灵器|神器|宝甲))`),

	// SKILL
	rule(graph.TypeSkill, "practice verb",
		`(?:施展|使出|修炼|学会了?|习得|领悟了?|练成了?|传授)(`+n(1, 6)+`(?:剑法|刀法|拳法|掌法|心法|功法|神功|大法|秘术|法术|剑诀|诀|功|术|掌|拳|阵))`),

	// RACE
	rule(graph.TypeRace, "race statement",
		`(?:是|乃|属于|来自)(`+n(1, 3)+`族)`),
	rule(graph.TypeRace, "known race",
		`(精灵族|矮人族|兽人族|龙族|妖族|魔族|人族|神族|精灵|矮人|兽人)`),

	// TITLE
	rule(graph.TypeTitle, "conferred title",
		`(?:被封为|被尊为|被称为|晋升为|成为了?)(`+n(1, 5)+`(?:王|帝|皇|侯|公|将军|长老|宗主|掌门|盟主|大师|圣))`),
}

// QuickRules back the lightweight path used when the primary rules find
// nothing.
var QuickRules = []Rule{
	rule(graph.TypeCharacter, "speech verb",
		`(`+n(2, 4)+`)(?:说道|问道|答道|笑道|说|道|问)[：:，,“"]`),
	rule(graph.TypeCharacter, "english speech verb",
		`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?) (?:said|asked|replied)\b`),
	rule(graph.TypeItem, "book title mark",
		`《([^》\n]{2,10})》`),
}
