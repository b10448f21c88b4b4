package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaichq/rulegen/internal/detect"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	templates, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, templates)

	seen := make(map[string]bool)
	for _, tpl := range templates {
		assert.NotEmpty(t, tpl.Slug)
		assert.NotEmpty(t, tpl.Output)
		assert.NotEmpty(t, tpl.Body)
		assert.False(t, seen[tpl.Output], "duplicate output path %s", tpl.Output)
		seen[tpl.Output] = true
	}
}

func TestParseTemplateRejectsMissingMeta(t *testing.T) {
	_, err := parseTemplate("broken", "# no meta block here\n")
	assert.Error(t, err)

	_, err = parseTemplate("no-output", "---\npriority: 1\n---\nbody\n")
	assert.Error(t, err)
}

func TestSelectFiltersByRequirements(t *testing.T) {
	templates, err := Load()
	require.NoError(t, err)

	goProfile := &detect.Profile{Languages: []string{"go"}}
	selected := Select(templates, goProfile, nil, nil)

	outputs := make([]string, 0, len(selected))
	for _, tpl := range selected {
		outputs = append(outputs, tpl.Output)
	}
	assert.Contains(t, outputs, "CLAUDE.md")
	assert.Contains(t, outputs, ".cursor/rules/go.mdc")
	assert.NotContains(t, outputs, ".cursor/rules/react.mdc")
	assert.NotContains(t, outputs, ".cursor/rules/python.mdc")
}

func TestSelectSortsByPriorityThenOutput(t *testing.T) {
	all := []Template{
		{Slug: "b", Output: "b.md", Priority: 20},
		{Slug: "a", Output: "a.md", Priority: 20},
		{Slug: "c", Output: "c.md", Priority: 10},
	}
	selected := Select(all, &detect.Profile{}, nil, nil)
	require.Len(t, selected, 3)
	assert.Equal(t, "c", selected[0].Slug)
	assert.Equal(t, "a", selected[1].Slug)
	assert.Equal(t, "b", selected[2].Slug)
}

func TestSelectHonorsEnabledAndDisabled(t *testing.T) {
	all := []Template{
		{Slug: "one", Output: "one.md"},
		{Slug: "two", Output: "two.md"},
		{Slug: "three", Output: "three.md"},
	}
	profile := &detect.Profile{}

	selected := Select(all, profile, []string{"one", "two"}, nil)
	require.Len(t, selected, 2)

	selected = Select(all, profile, nil, []string{"two"})
	require.Len(t, selected, 2)
	for _, tpl := range selected {
		assert.NotEqual(t, "two", tpl.Slug)
	}

	selected = Select(all, profile, []string{"one"}, []string{"one"})
	assert.Empty(t, selected, "disabled wins over enabled")
}

func TestSelectMultiRequirement(t *testing.T) {
	all := []Template{
		{Slug: "both", Output: "both.md", Requires: []string{"go", "grpc"}},
	}
	assert.Empty(t, Select(all, &detect.Profile{Languages: []string{"go"}}, nil, nil))
	assert.Len(t, Select(all, &detect.Profile{
		Languages:  []string{"go"},
		Frameworks: []string{"grpc"},
	}, nil, nil), 1)
}
