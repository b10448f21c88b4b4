// Package render turns catalog templates and a project profile into the
// incoming text blobs consumed by the merge engine.
package render

import (
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mosaichq/rulegen/internal/catalog"
	"github.com/mosaichq/rulegen/internal/detect"
)

// HelperRegistry is an explicit set of Handlebars helpers. Helpers are
// registered per-template at render time, never process-wide, so two
// renderers with different registries cannot interfere.
type HelperRegistry struct {
	helpers map[string]interface{}
}

var titleCaser = cases.Title(language.English)

// NewHelperRegistry returns a registry pre-loaded with the built-in
// helpers: join, titlecase, upper, lower, and gt.
func NewHelperRegistry() *HelperRegistry {
	r := &HelperRegistry{helpers: make(map[string]interface{})}
	r.Register("join", func(items []string, sep string) string {
		return strings.Join(items, sep)
	})
	r.Register("titlecase", func(s string) string {
		return titleCaser.String(s)
	})
	r.Register("upper", strings.ToUpper)
	r.Register("lower", strings.ToLower)
	r.Register("gt", func(a, b int) bool {
		return a > b
	})
	return r
}

// Register adds or replaces a helper.
func (r *HelperRegistry) Register(name string, fn interface{}) {
	r.helpers[name] = fn
}

// Renderer renders catalog templates against a profile.
type Renderer struct {
	registry *HelperRegistry
}

// NewRenderer returns a Renderer using the given registry; a nil registry
// gets the built-ins.
func NewRenderer(registry *HelperRegistry) *Renderer {
	if registry == nil {
		registry = NewHelperRegistry()
	}
	return &Renderer{registry: registry}
}

// Render executes tpl's body against the profile and returns the rendered
// document.
func (r *Renderer) Render(tpl catalog.Template, profile *detect.Profile) (string, error) {
	parsed, err := raymond.Parse(tpl.Body)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", tpl.Slug, err)
	}
	parsed.RegisterHelpers(r.registry.helpers)

	out, err := parsed.Exec(Context(profile))
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", tpl.Slug, err)
	}
	return collapseBlankRuns(out), nil
}

// Context builds the template data for a profile. The "has" map exposes
// membership checks to {{#if}} blocks.
func Context(profile *detect.Profile) map[string]interface{} {
	has := make(map[string]bool)
	for _, group := range [][]string{
		profile.Languages,
		profile.Frameworks,
		profile.PackageManagers,
		profile.TestRunners,
	} {
		for _, v := range group {
			has[v] = true
		}
	}

	ctx := map[string]interface{}{
		"name":             profile.Name,
		"module_path":      profile.ModulePath,
		"languages":        profile.Languages,
		"frameworks":       profile.Frameworks,
		"package_managers": profile.PackageManagers,
		"test_runners":     profile.TestRunners,
		"has":              has,
	}
	if profile.Git != nil {
		ctx["git"] = map[string]interface{}{
			"branch": profile.Git.Branch,
			"sha":    profile.Git.SHA,
			"dirty":  profile.Git.Dirty,
		}
	}
	return ctx
}

// collapseBlankRuns squeezes the blank-line runs left behind by unexpanded
// {{#if}} blocks down to single blank lines.
func collapseBlankRuns(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blanks = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
