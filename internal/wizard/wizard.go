// Package wizard implements the interactive setup form behind
// `rulegen init`.
package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mosaichq/rulegen/internal/catalog"
	"github.com/mosaichq/rulegen/pkg/config"
	"github.com/mosaichq/rulegen/pkg/logger"
)

// Answers holds the raw form state before it is turned into a Config.
type Answers struct {
	Threshold string
	Backup    bool
	MergeMode bool
	Templates []string
	Overwrite bool
}

func defaultAnswers(templates []catalog.Template) *Answers {
	defaults := config.Default()
	a := &Answers{
		Threshold: strconv.FormatFloat(defaults.Generate.AutoMergeThreshold, 'g', -1, 64),
		Backup:    defaults.Generate.Backup,
		MergeMode: defaults.Generate.MergeMode,
	}
	for _, tpl := range templates {
		a.Templates = append(a.Templates, tpl.Slug)
	}
	return a
}

// NewForm builds the setup form. existing marks whether a config file is
// already present, which adds an overwrite confirmation.
func NewForm(answers *Answers, templates []catalog.Template, existing bool) *huh.Form {
	options := make([]huh.Option[string], 0, len(templates))
	for _, tpl := range templates {
		label := tpl.Slug
		if tpl.Description != "" {
			label = fmt.Sprintf("%s (%s)", tpl.Slug, tpl.Description)
		}
		options = append(options, huh.NewOption(label, tpl.Slug).Selected(true))
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Auto-merge threshold").
			Description("Similarity score at or above which existing files are replaced without prompting").
			Value(&answers.Threshold).
			Validate(validateThreshold),
		huh.NewConfirm().
			Title("Create backups before overwriting?").
			WithButtonAlignment(lipgloss.Left).
			Value(&answers.Backup).
			Affirmative("Yes").
			Negative("No"),
		huh.NewConfirm().
			Title("Merge compatible frontmatter headers?").
			Description("When off, near-threshold files are skipped instead of header-merged").
			WithButtonAlignment(lipgloss.Left).
			Value(&answers.MergeMode).
			Affirmative("Yes").
			Negative("No"),
		huh.NewMultiSelect[string]().
			Title("Templates").
			Description("Rule files to generate for this project").
			Options(options...).
			Value(&answers.Templates),
	}
	if existing {
		fields = append(fields, huh.NewConfirm().
			Title("Overwrite existing "+config.DefaultFileName+"?").
			WithButtonAlignment(lipgloss.Left).
			Value(&answers.Overwrite).
			Affirmative("Yes, replace it").
			Negative("No, keep it"))
	}
	return huh.NewForm(huh.NewGroup(fields...))
}

// Config converts the answers into a validated Config. Template selection
// is stored as a disabled list so new templates stay enabled by default.
func (a *Answers) Config(templates []catalog.Template) (*config.Config, error) {
	threshold, err := strconv.ParseFloat(strings.TrimSpace(a.Threshold), 64)
	if err != nil {
		return nil, fmt.Errorf("parse threshold %q: %w", a.Threshold, err)
	}

	cfg := config.Default()
	cfg.Generate.AutoMergeThreshold = threshold
	cfg.Generate.Backup = a.Backup
	cfg.Generate.MergeMode = a.MergeMode
	cfg.Templates.Disabled = disabledSlugs(templates, a.Templates)

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func disabledSlugs(templates []catalog.Template, selected []string) []string {
	keep := make(map[string]bool, len(selected))
	for _, slug := range selected {
		keep[slug] = true
	}
	var disabled []string
	for _, tpl := range templates {
		if !keep[tpl.Slug] {
			disabled = append(disabled, tpl.Slug)
		}
	}
	return disabled
}

// Run drives the form and writes the resulting config file under dir.
// It reports the written path, or "" when the user kept an existing file.
func Run(dir string) (string, error) {
	templates, err := catalog.Load()
	if err != nil {
		return "", err
	}

	_, statErr := os.Stat(filepath.Join(dir, config.DefaultFileName))
	existing := statErr == nil

	answers := defaultAnswers(templates)
	if err := NewForm(answers, templates, existing).Run(); err != nil {
		return "", fmt.Errorf("setup form: %w", err)
	}
	if existing && !answers.Overwrite {
		logger.Info("keeping existing config", logger.String("file", config.DefaultFileName))
		return "", nil
	}

	cfg, err := answers.Config(templates)
	if err != nil {
		return "", err
	}
	path, err := config.Save(dir, cfg)
	if err != nil {
		return "", err
	}
	logger.Info("wrote config", logger.String("file", path))
	return path, nil
}

func validateThreshold(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if v <= 0 || v > 1 {
		return fmt.Errorf("must be greater than 0 and at most 1")
	}
	return nil
}
