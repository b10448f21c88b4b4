// Package catalog holds the embedded rule templates and selects the set
// applicable to a detected project profile.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/mosaichq/rulegen/internal/detect"
	"github.com/mosaichq/rulegen/pkg/frontmatter"
	"github.com/mosaichq/rulegen/pkg/logger"
)

//go:embed templates/*.hbs
var templatesFS embed.FS

// Template is one catalog entry. Meta comes from the template's leading
// header block; Body is the Handlebars source that renders the output file.
type Template struct {
	Slug        string
	Description string
	Output      string
	Priority    int
	Requires    []string
	Body        string
}

// Load parses every embedded template. Templates without an output path are
// rejected; the catalog is trusted content, so a failure here is a build
// defect rather than a user error.
func Load() ([]Template, error) {
	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read template catalog: %w", err)
	}

	var templates []Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hbs") {
			continue
		}
		data, err := fs.ReadFile(templatesFS, "templates/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		tpl, err := parseTemplate(strings.TrimSuffix(entry.Name(), ".hbs"), string(data))
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func parseTemplate(slug, raw string) (Template, error) {
	header, body := frontmatter.Split(raw)
	if header == nil {
		return Template{}, fmt.Errorf("template %s: missing meta block", slug)
	}

	tpl := Template{Slug: slug, Body: body}
	if v, ok := header.Get("output"); ok {
		if s, ok := v.(string); ok {
			tpl.Output = s
		}
	}
	if tpl.Output == "" {
		return Template{}, fmt.Errorf("template %s: missing output path", slug)
	}
	if v, ok := header.Get("description"); ok {
		if s, ok := v.(string); ok {
			tpl.Description = s
		}
	}
	if v, ok := header.Get("priority"); ok {
		if n, ok := v.(int); ok {
			tpl.Priority = n
		}
	}
	if v, ok := header.Get("requires"); ok {
		if list, ok := v.([]string); ok {
			tpl.Requires = list
		}
	}
	return tpl, nil
}

// Select filters templates by profile conditions and the enabled/disabled
// lists from configuration, then sorts by priority and output path. An
// empty enabled list means all templates are eligible.
func Select(all []Template, profile *detect.Profile, enabled, disabled []string) []Template {
	enabledSet := toSet(enabled)
	disabledSet := toSet(disabled)

	var selected []Template
	for _, tpl := range all {
		if _, off := disabledSet[tpl.Slug]; off {
			continue
		}
		if len(enabledSet) > 0 {
			if _, on := enabledSet[tpl.Slug]; !on {
				continue
			}
		}
		if !matches(tpl, profile) {
			continue
		}
		selected = append(selected, tpl)
	}

	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Priority != selected[j].Priority {
			return selected[i].Priority < selected[j].Priority
		}
		return selected[i].Output < selected[j].Output
	})

	logger.Debug("selected templates",
		logger.Int("total", len(all)),
		logger.Int("selected", len(selected)))
	return selected
}

// matches reports whether every requirement of tpl is present in the
// profile. A template with no requirements always applies.
func matches(tpl Template, profile *detect.Profile) bool {
	for _, req := range tpl.Requires {
		if !profile.Has(req) {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
