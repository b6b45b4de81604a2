// Package resolver implements entity resolution (aliases and
// disambiguation of shared names) and coreference resolution (pronouns).
// It maintains a narrative context to track recency, speaker and gender.
package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kittclouds/storygraph/pkg/graph"
	implicitmatcher "github.com/kittclouds/storygraph/pkg/implicit-matcher"
)

// Marker is a title or kinship word written directly before a name.
type Marker struct {
	Prefix string
	Label  string
	Key    graph.AttrKey
}

// Markers are checked longest first.
var Markers = []Marker{
	{Prefix: "老前辈", Label: "年长", Key: graph.AttrAge},
	{Prefix: "前辈", Label: "年长", Key: graph.AttrAge},
	{Prefix: "晚辈", Label: "年幼", Key: graph.AttrAge},
	{Prefix: "师兄", Label: "师兄", Key: graph.AttrStatus},
	{Prefix: "师姐", Label: "师姐", Key: graph.AttrStatus},
	{Prefix: "师弟", Label: "师弟", Key: graph.AttrStatus},
	{Prefix: "师妹", Label: "师妹", Key: graph.AttrStatus},
	{Prefix: "师父", Label: "师父", Key: graph.AttrStatus},
	{Prefix: "掌门", Label: "掌门", Key: graph.AttrStatus},
	{Prefix: "村长", Label: "村长", Key: graph.AttrStatus},
	{Prefix: "老", Label: "年长", Key: graph.AttrAge},
	{Prefix: "小", Label: "年幼", Key: graph.AttrAge},
}

var appositionPattern = regexp.MustCompile(
	`^[，,、]?(?:又称|别名|人称|外号|绰号|号称|也叫|人送外号)[“"「『]?([^\s，。！？、,.!?“”"「」『』]{2,8}?)[”"」』，。！？、,.!?]`)

const (
	// appositionReach is how far after a name an apposition phrase may start.
	appositionReach = 2
	// appositionSpan bounds the text read after a name.
	appositionSpan = 20
)

// Resolver groups recognized entities by name and assigns aliases and
// disambiguated IDs.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

type occurrence struct {
	pos     int // rune offset of the base name
	feature string
	marker  *Marker
	alias   string
	member  *graph.Entity
}

type group struct {
	base    string
	typ     graph.EntityType
	members []*graph.Entity
}

// StripTitle removes a leading marker when at least two runes remain.
func StripTitle(name string) (string, *Marker) {
	for i := range Markers {
		m := &Markers[i]
		if strings.HasPrefix(name, m.Prefix) {
			rest := strings.TrimPrefix(name, m.Prefix)
			if utf8.RuneCountInString(rest) >= 2 {
				return rest, m
			}
		}
	}
	return name, nil
}

// Resolve returns the resolved entity set of text.
func (r *Resolver) Resolve(entities []*graph.Entity, text string) []*graph.Entity {
	if len(entities) == 0 {
		return nil
	}

	groups := r.group(entities)

	entries := make([]implicitmatcher.Entry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, implicitmatcher.Entry{ID: g.base, Surfaces: []string{g.base}})
	}
	dict, err := implicitmatcher.Compile(entries)
	if err != nil {
		return entities
	}
	basePositions := dict.Positions(text)
	runes := []rune(text)

	var out []*graph.Entity
	for _, g := range groups {
		occs := r.occurrences(g, basePositions[g.base], runes)
		out = append(out, r.resolveGroup(g, occs)...)
	}
	return out
}

func (r *Resolver) group(entities []*graph.Entity) []*group {
	index := make(map[string]*group)
	var order []*group
	for _, e := range entities {
		base := e.Name
		if e.Type == graph.TypeCharacter {
			base, _ = StripTitle(e.Name)
		}
		k := string(e.Type) + "\x00" + base
		g, ok := index[k]
		if !ok {
			g = &group{base: base, typ: e.Type}
			index[k] = g
			order = append(order, g)
		}
		g.members = append(g.members, e)
	}
	return order
}

// occurrences reads the local feature of every mention of the group's base
// name.
func (r *Resolver) occurrences(g *group, positions []int, runes []rune) []occurrence {
	baseLen := utf8.RuneCountInString(g.base)
	members := make(map[string]*graph.Entity, len(g.members))
	for _, m := range g.members {
		members[m.Name] = m
	}

	out := make([]occurrence, 0, len(positions))
	for _, p := range positions {
		occ := occurrence{pos: p, member: members[g.base]}

		if g.typ == graph.TypeCharacter {
			if m := markerBefore(runes, p); m != nil {
				occ.marker = m
				occ.feature = m.Label
				occ.member = members[m.Prefix+g.base]
			}
		}

		end := p + baseLen
		limit := end + appositionSpan
		if limit > len(runes) {
			limit = len(runes)
		}
		if end < limit {
			tail := runes[end:limit]
			for skip := 0; skip <= appositionReach && skip < len(tail); skip++ {
				if sub := appositionPattern.FindStringSubmatch(string(tail[skip:])); sub != nil {
					occ.alias = sub[1]
					if occ.feature == "" {
						occ.feature = sub[1]
					}
					break
				}
			}
		}

		if occ.member == nil && len(g.members) == 1 {
			occ.member = g.members[0]
		}
		out = append(out, occ)
	}
	return out
}

func markerBefore(runes []rune, p int) *Marker {
	for i := range Markers {
		m := &Markers[i]
		pr := []rune(m.Prefix)
		start := p - len(pr)
		if start < 0 {
			continue
		}
		if string(runes[start:p]) == m.Prefix {
			return m
		}
	}
	return nil
}

func (r *Resolver) resolveGroup(g *group, occs []occurrence) []*graph.Entity {
	features := distinctFeatures(occs)
	if len(features) < 2 {
		return []*graph.Entity{r.collapse(g, occs)}
	}

	var out []*graph.Entity
	for _, f := range features {
		var mine []occurrence
		for _, o := range occs {
			if o.feature == f {
				mine = append(mine, o)
			}
		}
		e := r.newEntity(g, mine)
		e.DisambiguatedID = g.base + "_" + f
		e.Description = fmt.Sprintf("同名%s，区分特征：%s", g.base, f)
		for _, o := range mine {
			if o.marker != nil {
				e.Attributes.Add(o.marker.Key, o.marker.Label)
				e.AddAlias(o.marker.Prefix + g.base)
			}
			if o.alias != "" {
				e.AddAlias(o.alias)
			}
		}
		out = append(out, e)
	}

	// Mentions without any feature stay apart from every featured entity.
	var rest []occurrence
	first := -1
	for i, o := range occs {
		if o.feature == "" {
			if first < 0 {
				first = i
			}
			rest = append(rest, o)
		}
	}
	if len(rest) > 0 {
		e := r.newEntity(g, rest)
		ordinal := first + 1
		e.DisambiguatedID = fmt.Sprintf("%s_%d", g.base, ordinal)
		e.Description = fmt.Sprintf("第%d处出现", ordinal)
		out = append(out, e)
	}
	return out
}

// collapse merges a group without distinguishing context into one entity
// whose other surface names become aliases.
func (r *Resolver) collapse(g *group, occs []occurrence) *graph.Entity {
	name := g.members[0].Name
	for _, m := range g.members {
		if m.Name == g.base {
			name = m.Name
			break
		}
	}

	e := &graph.Entity{
		Type:        g.typ,
		Name:        name,
		Description: g.members[0].Description,
	}
	var positions []int
	for _, m := range g.members {
		mergeAttributes(&e.Attributes, m.Attributes)
		e.AddAlias(m.Name)
		for _, a := range m.Aliases {
			e.AddAlias(a)
		}
		positions = append(positions, m.Positions...)
	}
	for _, o := range occs {
		if o.alias != "" {
			e.AddAlias(o.alias)
		}
	}
	e.Positions = uniqueSorted(positions)
	e.Attributes.Frequency = len(e.Positions)
	if len(e.Positions) > 0 {
		e.Attributes.FirstAppearance = e.Positions[0]
	}
	return e
}

func (r *Resolver) newEntity(g *group, occs []occurrence) *graph.Entity {
	e := &graph.Entity{Type: g.typ, Name: g.base}
	positions := make([]int, 0, len(occs))
	merged := make(map[*graph.Entity]bool)
	for _, o := range occs {
		positions = append(positions, o.pos)
		if o.member != nil && !merged[o.member] {
			mergeAttributes(&e.Attributes, o.member.Attributes)
			merged[o.member] = true
		}
	}
	e.Positions = uniqueSorted(positions)
	e.Attributes.Frequency = len(e.Positions)
	if len(e.Positions) > 0 {
		e.Attributes.FirstAppearance = e.Positions[0]
	}
	return e
}

func distinctFeatures(occs []occurrence) []string {
	var out []string
	seen := make(map[string]bool)
	for _, o := range occs {
		if o.feature != "" && !seen[o.feature] {
			seen[o.feature] = true
			out = append(out, o.feature)
		}
	}
	return out
}

func mergeAttributes(dst *graph.Attributes, src graph.Attributes) {
	keys := make([]string, 0, len(src.Values))
	for k := range src.Values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range src.Values[graph.AttrKey(k)] {
			dst.Add(graph.AttrKey(k), v)
		}
	}
	for k, v := range src.Extra {
		dst.SetExtra(k, v)
	}
}

func uniqueSorted(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	out := append([]int(nil), in...)
	sort.Ints(out)
	j := 0
	for i := 1; i < len(out); i++ {
		if out[i] != out[j] {
			j++
			out[j] = out[i]
		}
	}
	return out[:j+1]
}
