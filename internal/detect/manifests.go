package detect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/pelletier/go-toml/v2"
)

// packageJSON is the subset of package.json consulted by detection.
type packageJSON struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *packageJSON) has(name string) bool {
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

var nodeFrameworks = map[string]string{
	"react":   "react",
	"next":    "nextjs",
	"vue":     "vue",
	"nuxt":    "nuxt",
	"svelte":  "svelte",
	"express": "express",
	"fastify": "fastify",
	"@nestjs/core": "nestjs",
}

var nodeTestRunners = map[string]string{
	"jest":    "jest",
	"vitest":  "vitest",
	"mocha":   "mocha",
	"cypress": "cypress",
}

func probePackageJSON(dir string, out *findings) error {
	data, err := readManifest(dir, "package.json")
	if err != nil || data == nil {
		return err
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("parse package.json: %w", err)
	}

	out.add(out.languages, "javascript")
	if pkg.has("typescript") || fileExists(dir, "tsconfig.json") {
		out.add(out.languages, "typescript")
	}
	for dep, framework := range nodeFrameworks {
		if pkg.has(dep) {
			out.add(out.frameworks, framework)
		}
	}
	for dep, runner := range nodeTestRunners {
		if pkg.has(dep) {
			out.add(out.testRunners, runner)
		}
	}

	switch {
	case fileExists(dir, "pnpm-lock.yaml"):
		out.add(out.packageManagers, "pnpm")
	case fileExists(dir, "yarn.lock"):
		out.add(out.packageManagers, "yarn")
	case fileExists(dir, "bun.lockb") || fileExists(dir, "bun.lock"):
		out.add(out.packageManagers, "bun")
	default:
		out.add(out.packageManagers, "npm")
	}
	return nil
}

var goFrameworks = map[string]string{
	"github.com/gin-gonic/gin":     "gin",
	"github.com/labstack/echo":     "echo",
	"github.com/gofiber/fiber":     "fiber",
	"github.com/spf13/cobra":       "cobra",
	"google.golang.org/grpc":       "grpc",
	"github.com/gorilla/mux":       "gorilla",
}

func probeGoMod(dir string, out *findings) error {
	data, err := readManifest(dir, "go.mod")
	if err != nil || data == nil {
		return err
	}

	out.add(out.languages, "go")
	out.add(out.packageManagers, "go-modules")
	out.add(out.testRunners, "go-test")

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "module "); ok {
			out.setModulePath(strings.TrimSpace(after))
			continue
		}
		for prefix, framework := range goFrameworks {
			if strings.Contains(line, prefix) {
				out.add(out.frameworks, framework)
			}
		}
		if strings.Contains(line, "github.com/stretchr/testify") {
			out.add(out.testRunners, "testify")
		}
	}
	return nil
}

// pyproject is the subset of pyproject.toml consulted by detection.
type pyproject struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	// The tool table's shape varies too much to model; only key presence
	// is consulted.
	RawTool map[string]any `toml:"tool"`
}

var pythonFrameworks = map[string]string{
	"django":  "django",
	"flask":   "flask",
	"fastapi": "fastapi",
}

func probePyproject(dir string, out *findings) error {
	data, err := readManifest(dir, "pyproject.toml")
	if err != nil || data == nil {
		return err
	}

	var py pyproject
	if err := toml.Unmarshal(data, &py); err != nil {
		return fmt.Errorf("parse pyproject.toml: %w", err)
	}

	out.add(out.languages, "python")
	for _, dep := range py.Project.Dependencies {
		name := strings.ToLower(normalizeRequirement(dep))
		if framework, ok := pythonFrameworks[name]; ok {
			out.add(out.frameworks, framework)
		}
		if name == "pytest" {
			out.add(out.testRunners, "pytest")
		}
	}
	if _, ok := py.RawTool["poetry"]; ok {
		out.add(out.packageManagers, "poetry")
	} else if fileExists(dir, "uv.lock") {
		out.add(out.packageManagers, "uv")
	} else {
		out.add(out.packageManagers, "pip")
	}
	if _, ok := py.RawTool["pytest"]; ok {
		out.add(out.testRunners, "pytest")
	}
	return nil
}

// normalizeRequirement strips version constraints from a PEP 508 requirement
// string, e.g. "django>=4.2" -> "django".
func normalizeRequirement(req string) string {
	for i, r := range req {
		switch r {
		case '>', '<', '=', '!', '~', '[', ';', ' ':
			return req[:i]
		}
	}
	return req
}

// cargoManifest is the subset of Cargo.toml consulted by detection.
type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

var rustFrameworks = map[string]string{
	"actix-web": "actix",
	"axum":      "axum",
	"rocket":    "rocket",
	"tokio":     "tokio",
}

func probeCargo(dir string, out *findings) error {
	data, err := readManifest(dir, "Cargo.toml")
	if err != nil || data == nil {
		return err
	}

	var cargo cargoManifest
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return fmt.Errorf("parse Cargo.toml: %w", err)
	}

	out.add(out.languages, "rust")
	out.add(out.packageManagers, "cargo")
	out.add(out.testRunners, "cargo-test")
	for dep := range cargo.Dependencies {
		if framework, ok := rustFrameworks[dep]; ok {
			out.add(out.frameworks, framework)
		}
	}
	return nil
}

func probeMaven(dir string, out *findings) error {
	data, err := readManifest(dir, "pom.xml")
	if err != nil || data == nil {
		return err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("parse pom.xml: %w", err)
	}

	out.add(out.languages, "java")
	out.add(out.packageManagers, "maven")

	for _, dep := range doc.FindElements("//dependencies/dependency") {
		group := dep.SelectElement("groupId")
		artifact := dep.SelectElement("artifactId")
		if group == nil || artifact == nil {
			continue
		}
		switch {
		case strings.HasPrefix(group.Text(), "org.springframework"):
			out.add(out.frameworks, "spring")
		case group.Text() == "org.junit.jupiter" || artifact.Text() == "junit":
			out.add(out.testRunners, "junit")
		case group.Text() == "io.quarkus":
			out.add(out.frameworks, "quarkus")
		}
	}
	return nil
}
