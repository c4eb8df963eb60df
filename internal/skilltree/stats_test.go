package skilltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  Summary
	}{
		{"empty", nil, Summary{}},
		{
			"one of three covered",
			[]Node{{ID: "a", CoverageScore: 40}, {ID: "b"}, {ID: "c"}},
			Summary{NodeCount: 3, CoveredCount: 1, UncoveredCount: 2, CoverageRate: 33},
		},
		{
			"two of three covered rounds up",
			[]Node{{ID: "a", CoverageScore: 40}, {ID: "b", CoverageScore: 1}, {ID: "c"}},
			Summary{NodeCount: 3, CoveredCount: 2, UncoveredCount: 1, CoverageRate: 67},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.nodes))
		})
	}
}

func TestFindGaps(t *testing.T) {
	nodes := sampleNodes()
	nodes[1].CoverageScore = 70 // b
	nodes[3].CoverageScore = 30 // a1

	g := FindGaps(nodes)
	var uncovered, ready []string
	for _, n := range g.Uncovered {
		uncovered = append(uncovered, n.ID)
	}
	for _, n := range g.Ready {
		ready = append(ready, n.ID)
	}
	assert.Equal(t, []string{"r", "a", "a2", "orphan"}, uncovered)
	assert.Equal(t, []string{"a", "a2"}, ready)
}

func TestAncestorsAndSiblings(t *testing.T) {
	nodes := sampleNodes()

	var chain []string
	for _, n := range Ancestors(nodes, "a2") {
		chain = append(chain, n.ID)
	}
	assert.Equal(t, []string{"r", "a"}, chain)
	assert.Empty(t, Ancestors(nodes, "r"))
	assert.Empty(t, Ancestors(nodes, "orphan"))

	var sibs []string
	for _, n := range Siblings(nodes, "b") {
		sibs = append(sibs, n.ID)
	}
	assert.Equal(t, []string{"a"}, sibs)
}

func TestGroupByDepth(t *testing.T) {
	groups := GroupByDepth(sampleNodes())
	var sizes []int
	for _, g := range groups {
		sizes = append(sizes, len(g))
	}
	assert.Equal(t, []int{1, 2, 2, 1}, sizes)
	assert.Equal(t, 3, groups[3][0].Depth)
}
