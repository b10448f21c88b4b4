package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaichq/rulegen/internal/catalog"
	"github.com/mosaichq/rulegen/internal/detect"
	"github.com/mosaichq/rulegen/pkg/frontmatter"
)

func goProfile() *detect.Profile {
	return &detect.Profile{
		Name:            "service",
		Languages:       []string{"go"},
		Frameworks:      []string{"gin"},
		PackageManagers: []string{"go-modules"},
		TestRunners:     []string{"go-test", "testify"},
		ModulePath:      "github.com/example/service",
	}
}

func TestRenderSubstitutesProfileValues(t *testing.T) {
	tpl := catalog.Template{
		Slug: "t",
		Body: "# {{name}}\nModule: {{module_path}}\nLanguages: {{join languages \", \"}}\n",
	}
	out, err := NewRenderer(nil).Render(tpl, goProfile())
	require.NoError(t, err)
	assert.Contains(t, out, "# service")
	assert.Contains(t, out, "Module: github.com/example/service")
	assert.Contains(t, out, "Languages: go")
}

func TestRenderHasConditionals(t *testing.T) {
	tpl := catalog.Template{
		Slug: "t",
		Body: "{{#if has.testify}}use testify{{/if}}{{#if has.react}}use react{{/if}}",
	}
	out, err := NewRenderer(nil).Render(tpl, goProfile())
	require.NoError(t, err)
	assert.Contains(t, out, "use testify")
	assert.NotContains(t, out, "use react")
}

func TestRenderBuiltinHelpers(t *testing.T) {
	tpl := catalog.Template{
		Slug: "t",
		Body: "{{titlecase name}} {{upper name}} {{lower \"MiXeD\"}}",
	}
	out, err := NewRenderer(nil).Render(tpl, goProfile())
	require.NoError(t, err)
	assert.Contains(t, out, "Service")
	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "mixed")
}

func TestRenderCustomHelperIsScopedToRegistry(t *testing.T) {
	registry := NewHelperRegistry()
	registry.Register("shout", func(s string) string {
		return strings.ToUpper(s) + "!"
	})
	tpl := catalog.Template{Slug: "t", Body: "{{shout name}}"}

	out, err := NewRenderer(registry).Render(tpl, goProfile())
	require.NoError(t, err)
	assert.Equal(t, "SERVICE!", out)

	// A renderer with the default registry must not see the custom helper.
	_, err = NewRenderer(nil).Render(tpl, goProfile())
	assert.Error(t, err)
}

func TestRenderGitContext(t *testing.T) {
	profile := goProfile()
	profile.Git = &detect.GitInfo{Branch: "main", SHA: "abc123"}
	tpl := catalog.Template{Slug: "t", Body: "{{#if git}}branch {{git.branch}}{{/if}}"}

	out, err := NewRenderer(nil).Render(tpl, profile)
	require.NoError(t, err)
	assert.Equal(t, "branch main", out)

	profile.Git = nil
	out, err = NewRenderer(nil).Render(tpl, profile)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRenderEmbeddedCatalogEndToEnd(t *testing.T) {
	templates, err := catalog.Load()
	require.NoError(t, err)

	profile := goProfile()
	renderer := NewRenderer(nil)
	for _, tpl := range catalog.Select(templates, profile, nil, nil) {
		out, err := renderer.Render(tpl, profile)
		require.NoError(t, err, "template %s", tpl.Slug)
		assert.NotEmpty(t, strings.TrimSpace(out), "template %s", tpl.Slug)
		assert.NotContains(t, out, "{{", "template %s left unrendered expressions", tpl.Slug)
	}
}

func TestRenderCursorTemplatesEmitHeaderBlocks(t *testing.T) {
	templates, err := catalog.Load()
	require.NoError(t, err)

	profile := goProfile()
	renderer := NewRenderer(nil)
	for _, tpl := range catalog.Select(templates, profile, nil, nil) {
		if !strings.HasSuffix(tpl.Output, ".mdc") {
			continue
		}
		out, err := renderer.Render(tpl, profile)
		require.NoError(t, err)
		header, body := frontmatter.Split(out)
		require.NotNil(t, header, "template %s must emit a header block", tpl.Slug)
		assert.NotEmpty(t, strings.TrimSpace(body))
	}
}

func TestCollapseBlankRuns(t *testing.T) {
	in := "a\n\n\n\nb\n\nc"
	assert.Equal(t, "a\n\nb\n\nc", collapseBlankRuns(in))
}
