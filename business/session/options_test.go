package session

import (
	"math/rand"
	"strings"
	"testing"

	"poemEval/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionService(cat *fakeCatalog) *Service {
	return &Service{
		catalog: cat,
		rng:     rand.New(rand.NewSource(1)),
	}
}

func TestCleanContent(t *testing.T) {
	in := "\n  \n  line one  \nline two\t\n\n"
	assert.Equal(t, "line one\nline two", cleanContent(in))
	assert.Equal(t, "", cleanContent(""))
	assert.Equal(t, "", cleanContent("\n \n"))
}

func TestPoemOptionFoldsLongContent(t *testing.T) {
	long := strings.Join([]string{"l1", "l2", "l3", "l4", "l5", "l6", "l7", "l8"}, "\n")
	cat := &fakeCatalog{poems: map[string]domain.Poem{
		"long":  {Title: "long", Author: "anon", Content: long},
		"short": {Title: "short", Author: "anon", Content: "l1\nl2"},
	}}
	svc := optionService(cat)

	opt := svc.poemOption("long", "A")
	assert.True(t, opt.HasMoreContent)
	assert.Equal(t, "l1\nl2\nl3", opt.Preview)
	assert.Equal(t, long, opt.Content)

	opt = svc.poemOption("short", "B")
	assert.False(t, opt.HasMoreContent)
	assert.Equal(t, opt.Content, opt.Preview)
}

func TestPickDecoysPrefersConfigured(t *testing.T) {
	cat := &fakeCatalog{poems: map[string]domain.Poem{
		"target": {Title: "target", Decoys: []string{"d1", "d2", "d3"}},
		"d1":     {Title: "d1"},
		"d2":     {Title: "d2"},
		"d3":     {Title: "d3"},
		"other":  {Title: "other"},
	}, titles: []string{"target", "d1", "d2", "d3", "other"}}
	svc := optionService(cat)

	assert.ElementsMatch(t, []string{"d1", "d2", "d3"}, svc.pickDecoys("target"))
}

func TestPickDecoysTopsUpFromCatalog(t *testing.T) {
	// One configured decoy is missing from the catalog and one duplicates
	// the target; both are skipped and random titles fill the gap.
	cat := &fakeCatalog{poems: map[string]domain.Poem{
		"target": {Title: "target", Decoys: []string{"target", "gone", "d1"}},
		"d1":     {Title: "d1"},
		"x1":     {Title: "x1"},
		"x2":     {Title: "x2"},
	}, titles: []string{"target", "d1", "x1", "x2"}}
	svc := optionService(cat)

	decoys := svc.pickDecoys("target")
	require.Len(t, decoys, 3)
	assert.Contains(t, decoys, "d1")
	assert.NotContains(t, decoys, "target")
	assert.NotContains(t, decoys, "gone")
}

func TestBuildOptionsMarksTarget(t *testing.T) {
	cat := &fakeCatalog{poems: map[string]domain.Poem{
		"t":  {Title: "t", Author: "a", Content: "c"},
		"d1": {Title: "d1"}, "d2": {Title: "d2"}, "d3": {Title: "d3"},
	}, titles: []string{"t", "d1", "d2", "d3"}}
	svc := optionService(cat)

	options, target := svc.buildOptions("t", []string{"d1", "d2", "d3"})
	require.Len(t, options, 4)
	assert.Contains(t, []string{"A", "B", "C", "D"}, target)

	letters := make([]string, 0, 4)
	found := false
	for _, opt := range options {
		letters = append(letters, opt.Letter)
		if opt.Letter == target {
			assert.Equal(t, "t", opt.Title)
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, []string{"A", "B", "C", "D"}, letters)
}
