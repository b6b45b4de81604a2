package graph

// ConceptEdge is a weighted link from one concept to another.
type ConceptEdge struct {
	Concept  string   `json:"concept"`
	Strength float64  `json:"strength"`
	Basis    []string `json:"basis"`
}

// ConceptNode is one concept of the co-occurrence network.
type ConceptNode struct {
	Concept          string        `json:"concept"`
	RelatedConcepts  []ConceptEdge `json:"relatedConcepts"`
	GlobalImportance float64       `json:"globalImportance"`
}

// ThematicCluster groups concepts, entities and events around one theme.
type ThematicCluster struct {
	Theme        string   `json:"theme"`
	Concepts     []string `json:"concepts"`
	Entities     []string `json:"entities"`
	Events       []string `json:"events"`
	Significance float64  `json:"significance"`
}

// MemberRelation is an inferred tie between two members of a group.
type MemberRelation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// SocialStructure is a named group with its members.
type SocialStructure struct {
	Name          string           `json:"name"`
	Members       []string         `json:"members"`
	Relationships []MemberRelation `json:"relationships"`
}

// CulturalElement is one cultural category seen in the events.
// Significance is one of 重要, 相关, 次要.
type CulturalElement struct {
	Category     string   `json:"category"`
	Elements     []string `json:"elements"`
	Significance string   `json:"significance"`
}

// WorldBuilding collects the world-building elements of the narrative.
type WorldBuilding struct {
	CoreBeliefs      []string          `json:"coreBeliefs"`
	SocialStructures []SocialStructure `json:"socialStructures"`
	CulturalElements []CulturalElement `json:"culturalElements"`
}

// SemanticAnalysis is the output of the thematic clusterer.
type SemanticAnalysis struct {
	ConceptNetwork        []ConceptNode     `json:"conceptNetwork"`
	ThematicClusters      []ThematicCluster `json:"thematicClusters"`
	WorldBuildingElements WorldBuilding     `json:"worldBuildingElements"`
}
