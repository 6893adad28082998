package matcher

import (
	"github.com/atikulmunna/logsift/internal/classifier"
)

// Group is the set of tokens accepted for one category.
type Group struct {
	Rule     classifier.Rule
	tokens   []string
	accepted map[string]struct{}
}

// Tokens returns the distinct tokens in the order they were supplied.
func (g *Group) Tokens() []string {
	return append([]string(nil), g.tokens...)
}

// Accepts reports whether the field the rule extracts from line is one of the
// group's tokens. Lines without the field are rejected.
func (g *Group) Accepts(line string) bool {
	field, ok := g.Rule.Extract(line)
	if !ok {
		return false
	}
	_, ok = g.accepted[field]
	return ok
}

func (g *Group) add(token string) {
	if _, dup := g.accepted[token]; dup {
		return
	}
	g.accepted[token] = struct{}{}
	g.tokens = append(g.tokens, token)
}

// Grouping maps each category present in a filter request to its tokens.
// Categories keep the order in which they were first seen.
type Grouping struct {
	groups []*Group
	index  map[classifier.Category]*Group
}

// NewGrouping classifies every token and groups them by category.
// It fails on the first unrecognized token without building a partial grouping.
func NewGrouping(tokens []string) (*Grouping, error) {
	g := &Grouping{index: make(map[classifier.Category]*Group)}

	for i, token := range tokens {
		rule, ok := classifier.Classify(token)
		if !ok {
			return nil, &InvalidTokenError{Token: token, Index: i}
		}
		group, exists := g.index[rule.Category]
		if !exists {
			group = &Group{Rule: rule, accepted: make(map[string]struct{})}
			g.index[rule.Category] = group
			g.groups = append(g.groups, group)
		}
		group.add(token)
	}

	return g, nil
}

// Len returns the number of categories present.
func (g *Grouping) Len() int {
	return len(g.groups)
}

// Categories returns the categories present, in first-seen order.
func (g *Grouping) Categories() []classifier.Category {
	out := make([]classifier.Category, 0, len(g.groups))
	for _, group := range g.groups {
		out = append(out, group.Rule.Category)
	}
	return out
}

// Group returns the group for c, if any token fell into it.
func (g *Grouping) Group(c classifier.Category) (*Group, bool) {
	group, ok := g.index[c]
	return group, ok
}

// Match reports whether line satisfies every category in the grouping.
// An empty grouping matches everything.
func (g *Grouping) Match(line string) bool {
	for _, group := range g.groups {
		if !group.Accepts(line) {
			return false
		}
	}
	return true
}

// Summary maps category names to their tokens, for reports.
func (g *Grouping) Summary() map[string][]string {
	out := make(map[string][]string, len(g.groups))
	for _, group := range g.groups {
		out[group.Rule.Category.String()] = group.Tokens()
	}
	return out
}
