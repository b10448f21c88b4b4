// Package detect inspects a project directory and produces the technology
// profile that drives template selection and rendering.
package detect

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mosaichq/rulegen/pkg/logger"
)

// Profile describes the detected technology stack of a project. It is
// consumed as opaque input by template rendering.
type Profile struct {
	Name            string   `json:"name"`
	Languages       []string `json:"languages"`
	Frameworks      []string `json:"frameworks"`
	PackageManagers []string `json:"package_managers"`
	TestRunners     []string `json:"test_runners"`
	ModulePath      string   `json:"module_path,omitempty"`
	Git             *GitInfo `json:"git,omitempty"`
}

// Has reports whether the profile contains value in any category.
func (p *Profile) Has(value string) bool {
	for _, group := range [][]string{p.Languages, p.Frameworks, p.PackageManagers, p.TestRunners} {
		for _, v := range group {
			if v == value {
				return true
			}
		}
	}
	return false
}

// findings accumulates probe results before they are folded into a Profile.
type findings struct {
	mu              sync.Mutex
	languages       map[string]struct{}
	frameworks      map[string]struct{}
	packageManagers map[string]struct{}
	testRunners     map[string]struct{}
	modulePath      string
}

func newFindings() *findings {
	return &findings{
		languages:       make(map[string]struct{}),
		frameworks:      make(map[string]struct{}),
		packageManagers: make(map[string]struct{}),
		testRunners:     make(map[string]struct{}),
	}
}

func (f *findings) add(category map[string]struct{}, values ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		category[v] = struct{}{}
	}
}

func (f *findings) setModulePath(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modulePath == "" {
		f.modulePath = p
	}
}

// probe is one concurrent detection step. Probes that find nothing return
// nil; only real I/O failures surface as errors.
type probe func(dir string, out *findings) error

// Options tunes detection. The zero value is valid.
type Options struct {
	// IgnoreGlobs are doublestar patterns, relative to the project root,
	// whose matches the source probe pretends do not exist. Vendored
	// directories are always ignored.
	IgnoreGlobs []string
}

// Detect probes dir and assembles a Profile. Probes run concurrently; the
// assembled profile is deterministic (all lists sorted, duplicates folded).
func Detect(dir string) (*Profile, error) {
	return DetectWithOptions(dir, Options{})
}

// DetectWithOptions is Detect with explicit Options.
func DetectWithOptions(dir string, opts Options) (*Profile, error) {
	out := newFindings()

	var g errgroup.Group
	for _, p := range []probe{
		probePackageJSON,
		probeGoMod,
		probePyproject,
		probeCargo,
		probeMaven,
		sourceGlobProbe(opts.IgnoreGlobs),
	} {
		g.Go(func() error { return p(dir, out) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &Profile{
		Name:            filepath.Base(absOrSelf(dir)),
		Languages:       sortedKeys(out.languages),
		Frameworks:      sortedKeys(out.frameworks),
		PackageManagers: sortedKeys(out.packageManagers),
		TestRunners:     sortedKeys(out.testRunners),
		ModulePath:      out.modulePath,
	}
	if git := collectGitInfo(dir); git != nil {
		profile.Git = git
	}

	logger.Debug("detected project profile",
		logger.String("name", profile.Name),
		logger.Int("languages", len(profile.Languages)),
		logger.Int("frameworks", len(profile.Frameworks)))
	return profile, nil
}

// sourceGlobs maps file-shape patterns to language hints, for projects
// without a recognized manifest.
var sourceGlobs = []struct {
	pattern  string
	language string
}{
	{"**/*.go", "go"},
	{"**/*.rs", "rust"},
	{"**/*.py", "python"},
	{"**/*.{ts,tsx}", "typescript"},
	{"**/*.{js,jsx}", "javascript"},
	{"**/*.java", "java"},
}

func sourceGlobProbe(ignoreGlobs []string) probe {
	return func(dir string, out *findings) error {
		fsys := os.DirFS(dir)
		for _, sg := range sourceGlobs {
			matches, err := doublestar.Glob(fsys, sg.pattern,
				doublestar.WithFailOnIOErrors(), doublestar.WithNoFollow())
			if err != nil {
				// Unreadable subtrees downgrade the probe, they do not fail
				// detection.
				logger.Debug("source glob probe failed", logger.String("pattern", sg.pattern), logger.Err(err))
				continue
			}
			for _, m := range matches {
				if skipVendorPath(m) || matchesAny(ignoreGlobs, m) {
					continue
				}
				out.add(out.languages, sg.language)
				break
			}
		}
		return nil
	}
}

// matchesAny reports whether path matches one of the globs. Malformed
// globs never match.
func matchesAny(globs []string, path string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, filepath.ToSlash(path)); err == nil && ok {
			return true
		}
	}
	return false
}

func skipVendorPath(p string) bool {
	for _, part := range splitPath(p) {
		switch part {
		case "node_modules", "vendor", ".git", "dist", "target", "__pycache__":
			return true
		}
	}
	return false
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

func absOrSelf(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// readManifest returns the manifest bytes, or nil when the file is absent.
func readManifest(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- fixed manifest names under the project dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func fileExists(dir, name string) bool {
	st, err := fs.Stat(os.DirFS(dir), name)
	return err == nil && !st.IsDir()
}
