package discovery

import (
	"regexp"
	"strconv"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
	"github.com/kittclouds/storygraph/pkg/scanner/chunker"
)

// TermRule records Value under Key when any of Terms occurs in a context
// window. An empty Value records the matched term itself.
type TermRule struct {
	Key   graph.AttrKey
	Value string
	Terms []string
}

// PatternRule records capture group 1 under Key.
type PatternRule struct {
	Key     graph.AttrKey
	Pattern *regexp.Regexp
}

// TermRules are the vocabulary attribute rules per entity type.
var TermRules = map[graph.EntityType][]TermRule{
	graph.TypeCharacter: {
		{Key: graph.AttrPersonality, Terms: []string{"勇敢", "善良", "聪明", "冷酷", "狡猾", "豪爽", "温柔", "正直", "机智", "沉稳", "傲慢", "胆小", "忠诚", "固执", "brave", "kind", "clever", "cruel"}},
		{Key: graph.AttrAge, Value: "年轻", Terms: []string{"年轻", "少年", "少女", "年少", "young"}},
		{Key: graph.AttrAge, Value: "年老", Terms: []string{"年迈", "苍老", "老者", "白发", "老人", "elderly"}},
		{Key: graph.AttrAge, Value: "中年", Terms: []string{"中年"}},
		{Key: graph.AttrStatus, Terms: []string{"侠客", "掌门", "弟子", "长老", "宗主", "皇帝", "将军", "村长", "公主", "王子", "国王", "商人", "书生", "剑客", "king", "knight"}},
	},
	graph.TypeItem: {
		{Key: graph.AttrQuality, Terms: []string{"极品", "上品", "中品", "下品", "绝品", "精良", "粗糙"}},
		{Key: graph.AttrRarity, Value: "稀有", Terms: []string{"稀有", "罕见", "独一无二", "绝世", "传说中", "上古"}},
		{Key: graph.AttrRarity, Value: "普通", Terms: []string{"普通", "寻常", "常见"}},
		{Key: graph.AttrMaterial, Terms: []string{"玄铁", "寒铁", "精钢", "青铜", "黄金", "白玉", "翡翠", "水晶", "龙骨"}},
	},
	graph.TypeSkill: {
		{Key: graph.AttrLevel, Terms: []string{"入门", "小成", "大成", "圆满", "登峰造极", "炉火纯青"}},
		{Key: graph.AttrPower, Value: "强大", Terms: []string{"威力无穷", "威力巨大", "强大", "惊人", "毁天灭地"}},
		{Key: graph.AttrPower, Value: "一般", Terms: []string{"平平", "寻常", "粗浅"}},
		{Key: graph.AttrElement, Value: "火", Terms: []string{"火焰", "烈火", "烈焰", "火系"}},
		{Key: graph.AttrElement, Value: "冰", Terms: []string{"寒冰", "冰霜", "冰系"}},
		{Key: graph.AttrElement, Value: "雷", Terms: []string{"雷电", "雷霆", "闪电"}},
		{Key: graph.AttrElement, Value: "风", Terms: []string{"狂风", "旋风", "风系"}},
		{Key: graph.AttrElement, Value: "水", Terms: []string{"流水", "水系", "波涛"}},
		{Key: graph.AttrDifficulty, Value: "困难", Terms: []string{"极难", "艰深", "难以修炼", "晦涩"}},
		{Key: graph.AttrDifficulty, Value: "简单", Terms: []string{"简单", "易学", "容易"}},
	},
	graph.TypeLocation: {
		{Key: graph.AttrSize, Value: "大", Terms: []string{"巨大", "宏伟", "辽阔", "广阔", "庞大"}},
		{Key: graph.AttrSize, Value: "小", Terms: []string{"小小的", "狭小", "不大"}},
		{Key: graph.AttrEnvironment, Terms: []string{"繁华", "荒凉", "寒冷", "炎热", "险峻", "幽静", "热闹", "偏僻", "山清水秀"}},
		{Key: graph.AttrResources, Terms: []string{"灵石", "矿脉", "药材", "灵泉", "宝藏", "良田"}},
	},
	graph.TypeOrganization: {
		{Key: graph.AttrScale, Value: "大型", Terms: []string{"第一大", "大派", "名门", "庞大", "弟子众多"}},
		{Key: graph.AttrScale, Value: "小型", Terms: []string{"小门派", "小帮", "人数不多"}},
		{Key: graph.AttrInfluence, Value: "显赫", Terms: []string{"名震天下", "声名显赫", "威名", "赫赫有名", "正道之首"}},
		{Key: graph.AttrInfluence, Value: "衰落", Terms: []string{"没落", "衰败", "式微"}},
	},
	graph.TypeRace: {
		{Key: graph.AttrTraits, Terms: []string{"长寿", "强壮", "敏捷", "善战", "神秘", "高傲", "矮小"}},
	},
	graph.TypeTitle: {
		{Key: graph.AttrStatus, Terms: []string{"尊贵", "世袭", "至高", "荣誉"}},
	},
}

var territoryPattern = regexp.MustCompile(`(?:位于|坐落于|盘踞|统治着?|生活在)(` + n(2, 6) + `)[，。、,.]`)

// PatternRules are the capture attribute rules per entity type.
var PatternRules = map[graph.EntityType][]PatternRule{
	graph.TypeCharacter: {
		{Key: graph.AttrAge, Pattern: regexp.MustCompile(`([0-9一二三四五六七八九十百]+岁)`)},
	},
	graph.TypeItem: {
		{Key: graph.AttrOrigin, Pattern: regexp.MustCompile(`(?:来自|出自|产自)(` + n(2, 6) + `)[，。、,.]`)},
	},
	graph.TypeSkill: {
		{Key: graph.AttrLevel, Pattern: regexp.MustCompile(`第?([一二三四五六七八九十]+重)`)},
	},
	graph.TypeOrganization: {
		{Key: graph.AttrTerritory, Pattern: territoryPattern},
	},
	graph.TypeRace: {
		{Key: graph.AttrTerritory, Pattern: territoryPattern},
	},
	graph.TypeTitle: {
		{Key: graph.AttrHolder, Pattern: regexp.MustCompile(`(` + n(2, 3) + `)(?:被封为|被尊为|被称为|晋升为|成为)`)},
	},
}

// AttributeExtractor applies the attribute rules of an entity's type to a
// symmetric window around each of its occurrences.
type AttributeExtractor struct {
	Window int
	dicts  map[graph.EntityType]*implicitmatcher.Dictionary
}

// NewAttributeExtractor compiles the term rules once.
func NewAttributeExtractor(window int) *AttributeExtractor {
	ax := &AttributeExtractor{
		Window: window,
		dicts:  make(map[graph.EntityType]*implicitmatcher.Dictionary, len(TermRules)),
	}
	for t, rules := range TermRules {
		entries := make([]implicitmatcher.Entry, len(rules))
		for i, r := range rules {
			entries[i] = implicitmatcher.Entry{ID: strconv.Itoa(i), Surfaces: r.Terms}
		}
		ax.dicts[t] = implicitmatcher.MustCompile(entries)
	}
	return ax
}

// Extract fills e.Attributes from the text around e.Positions.
func (ax *AttributeExtractor) Extract(e *graph.Entity, runes []rune) {
	nameLen := len([]rune(e.Name))
	dict := ax.dicts[e.Type]
	rules := TermRules[e.Type]
	patterns := PatternRules[e.Type]

	for _, pos := range e.Positions {
		window := chunker.Window(runes, pos, pos+nameLen, ax.Window)

		if dict != nil {
			for _, m := range dict.ScanLongest(window) {
				for _, id := range m.IDs {
					idx, err := strconv.Atoi(id)
					if err != nil || idx >= len(rules) {
						continue
					}
					value := rules[idx].Value
					if value == "" {
						value = m.Text
					}
					e.Attributes.Add(rules[idx].Key, value)
				}
			}
		}

		for _, p := range patterns {
			for _, sub := range p.Pattern.FindAllStringSubmatch(window, -1) {
				if v := TrimCandidate(sub[1]); v != "" && v != e.Name {
					e.Attributes.Add(p.Key, v)
				}
			}
		}
	}
}
