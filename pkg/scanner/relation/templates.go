package relation

import (
	"regexp"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// span is a clause fragment that may hold an entity name.
const span = `([^，。！？；：、,.!?;:\s“”"‘’「」]{1,16})`

// Template is one explicit relation pattern. Group 1 holds the source
// mention, group 2 the target mention.
type Template struct {
	Name        string
	Type        graph.RelationType
	Pattern     *regexp.Regexp
	SourceTypes []graph.EntityType
	TargetTypes []graph.EntityType
	// Swap reverses the captured roles, for passive phrasings.
	Swap bool
	// Extra is copied into the relation attributes.
	Extra map[string]string
}

var characters = []graph.EntityType{graph.TypeCharacter}

func template(name string, t graph.RelationType, expr string, src, dst []graph.EntityType) Template {
	return Template{
		Name:        name,
		Type:        t,
		Pattern:     regexp.MustCompile(expr),
		SourceTypes: src,
		TargetTypes: dst,
	}
}

func swapped(tpl Template) Template {
	tpl.Swap = true
	return tpl
}

func kinship(tpl Template, kin string) Template {
	tpl.Extra = map[string]string{"kinship": kin}
	return tpl
}

// Templates are the explicit relation rules.
var Templates = []Template{
	template("master_apprentice", graph.RelMasterOf, span+`(?:是|乃)`+span+`的(?:师父|师傅|恩师)`, characters, characters),
	template("master_apprentice", graph.RelMasterOf, span+`收`+span+`为(?:徒|弟子)`, characters, characters),
	swapped(template("master_apprentice", graph.RelMasterOf, span+`拜`+span+`为师`, characters, characters)),

	kinship(template("family", graph.RelFamily, span+`(?:是|乃)`+span+`的(?:父亲|母亲|儿子|女儿)`, characters, characters), "parent_child"),
	kinship(template("family", graph.RelFamily, span+`(?:是|乃)`+span+`的(?:哥哥|姐姐|弟弟|妹妹|兄长)`, characters, characters), "sibling"),
	kinship(template("family", graph.RelFamily, span+`(?:是|乃)`+span+`的(?:妻子|丈夫|夫人)`, characters, characters), "spouse"),

	template("faction_membership", graph.RelMemberOf, span+`(?:加入了?|拜入了?|投靠了?)`+span,
		characters, []graph.EntityType{graph.TypeOrganization}),
	template("faction_membership", graph.RelMemberOf, span+`是`+span+`(?:的)?(?:弟子|门人|成员|长老|掌门)`,
		characters, []graph.EntityType{graph.TypeOrganization}),

	template("location", graph.RelLocatedIn, span+`(?:住在|位于|坐落于|居住在|隐居在|定居在)`+span,
		nil, []graph.EntityType{graph.TypeLocation}),

	template("skill_acquisition", graph.RelLearns, span+`(?:修炼|学会了?|习得|领悟了?|练成了?|施展)`+span,
		characters, []graph.EntityType{graph.TypeSkill}),

	template("item_acquisition", graph.RelAcquires, span+`(?:得到了?|获得了?|拿到了?|拾起了?|拿起了?)(?:一把|一柄|一件|一枚|一颗|一块)?`+span,
		characters, []graph.EntityType{graph.TypeItem}),
}

// CoOccurrenceBase is the base confidence of each inferred relation type.
var CoOccurrenceBase = map[graph.RelationType]float64{
	graph.RelCharacterRelation: 0.7,
	graph.RelBelongsTo:         0.6,
	graph.RelAppearsIn:         0.6,
	graph.RelPossesses:         0.6,
	graph.RelOwns:              0.6,
	graph.RelRelatedTo:         0.5,
}

// inferType labels an entity pair by its types. The returned flag reports
// whether b should be the source.
func inferType(a, b graph.EntityType) (graph.RelationType, bool) {
	if a != graph.TypeCharacter && b == graph.TypeCharacter {
		t, _ := inferType(b, a)
		return t, true
	}
	if a != graph.TypeCharacter {
		return graph.RelRelatedTo, false
	}
	switch b {
	case graph.TypeCharacter:
		return graph.RelCharacterRelation, false
	case graph.TypeOrganization:
		return graph.RelBelongsTo, false
	case graph.TypeLocation:
		return graph.RelAppearsIn, false
	case graph.TypeSkill:
		return graph.RelPossesses, false
	case graph.TypeItem:
		return graph.RelOwns, false
	}
	return graph.RelRelatedTo, false
}
