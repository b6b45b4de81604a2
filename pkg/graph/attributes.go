package graph

// AttrKey names a well-known entity attribute.
type AttrKey string

const (
	AttrPersonality AttrKey = "personality"
	AttrAge         AttrKey = "age"
	AttrStatus      AttrKey = "status"
	AttrQuality     AttrKey = "quality"
	AttrRarity      AttrKey = "rarity"
	AttrMaterial    AttrKey = "material"
	AttrOrigin      AttrKey = "origin"
	AttrLevel       AttrKey = "level"
	AttrPower       AttrKey = "power"
	AttrElement     AttrKey = "element"
	AttrDifficulty  AttrKey = "difficulty"
	AttrSize        AttrKey = "size"
	AttrEnvironment AttrKey = "environment"
	AttrResources   AttrKey = "resources"
	AttrScale       AttrKey = "scale"
	AttrInfluence   AttrKey = "influence"
	AttrTerritory   AttrKey = "territory"
	AttrTraits      AttrKey = "traits"
	AttrHolder      AttrKey = "holder"
)

// keysByType lists the attribute keys each entity type documents.
var keysByType = map[EntityType][]AttrKey{
	TypeCharacter:    {AttrPersonality, AttrAge, AttrStatus},
	TypeItem:         {AttrQuality, AttrRarity, AttrMaterial, AttrOrigin},
	TypeSkill:        {AttrLevel, AttrPower, AttrElement, AttrDifficulty},
	TypeLocation:     {AttrSize, AttrEnvironment, AttrResources},
	TypeOrganization: {AttrScale, AttrInfluence, AttrTerritory},
	TypeRace:         {AttrTraits, AttrTerritory},
	TypeTitle:        {AttrHolder, AttrStatus},
}

// KeysFor returns the well-known attribute keys of an entity type.
func KeysFor(t EntityType) []AttrKey {
	return keysByType[t]
}

// Attributes is the typed attribute map of an entity. Values holds the
// well-known keys; Extra is the escape hatch for anything else.
type Attributes struct {
	Frequency       int                  `json:"frequency"`
	FirstAppearance int                  `json:"firstAppearance"`
	Values          map[AttrKey][]string `json:"values,omitempty"`
	Extra           map[string]string    `json:"extra,omitempty"`
}

// Add records v under k, ignoring empty and repeated values.
func (a *Attributes) Add(k AttrKey, v string) {
	if v == "" {
		return
	}
	if a.Values == nil {
		a.Values = make(map[AttrKey][]string)
	}
	for _, existing := range a.Values[k] {
		if existing == v {
			return
		}
	}
	a.Values[k] = append(a.Values[k], v)
}

// Get returns every value recorded under k.
func (a Attributes) Get(k AttrKey) []string {
	return a.Values[k]
}

// First returns the first value recorded under k, or "".
func (a Attributes) First(k AttrKey) string {
	if vs := a.Values[k]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// SetExtra stores an attribute outside the well-known set.
func (a *Attributes) SetExtra(k, v string) {
	if a.Extra == nil {
		a.Extra = make(map[string]string)
	}
	a.Extra[k] = v
}
