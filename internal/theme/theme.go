package theme

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// DefaultName is the bundled theme used when none is configured.
const DefaultName = "default"

//go:embed themes/*.css
var bundled embed.FS

// ErrNotFound is returned for a theme name that is neither a user file nor
// bundled.
var ErrNotFound = errors.New("theme not found")

// @import "x.css"; @import 'x.css'; @import url("x.css");
var importPattern = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?\s*;?`)

// Theme is a stylesheet with its imports inlined.
type Theme struct {
	Name    string
	CSS     string
	Bundled bool
	// Files are the user files the CSS was read from, entry file first.
	Files []string
	// Problems lists imports that could not be inlined.
	Problems []string
}

// UserDir returns ~/.config/isle/themes.
func UserDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "isle", "themes"), nil
}

// Resolver looks themes up in a user directory first and then in the
// bundled set. Partials (files starting with "_") are only reachable through
// @import.
type Resolver struct {
	dir string
}

// NewResolver creates a resolver over dir. An empty dir only serves bundled
// themes.
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Dir returns the user theme directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve loads the theme called name and inlines its imports.
func (r *Resolver) Resolve(name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.HasPrefix(name, "_") || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	file := name + ".css"

	if r.dir != "" {
		p := filepath.Join(r.dir, file)
		data, err := os.ReadFile(p)
		switch {
		case err == nil:
			t := &Theme{Name: name, Files: []string{p}}
			in := inliner{theme: t, seen: map[string]bool{p: true}}
			t.CSS = in.expand(string(data), r.dir)
			return t, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read theme %s: %w", p, err)
		}
	}

	data, err := bundled.ReadFile(path.Join("themes", file))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	t := &Theme{Name: name, Bundled: true}
	in := inliner{theme: t, seen: map[string]bool{"bundled:" + file: true}}
	t.CSS = in.expand(string(data), "")
	return t, nil
}

// Names lists the selectable themes, bundled ones first. A user theme with a
// bundled name overrides it and is listed once.
func (r *Resolver) Names() []string {
	var names []string
	add := func(entries []fs.DirEntry) {
		for _, e := range entries {
			n := e.Name()
			if e.IsDir() || strings.HasPrefix(n, "_") || filepath.Ext(n) != ".css" {
				continue
			}
			n = strings.TrimSuffix(n, ".css")
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	if entries, err := fs.ReadDir(bundled, "themes"); err == nil {
		add(entries)
	}
	if r.dir != "" {
		if entries, err := os.ReadDir(r.dir); err == nil {
			add(entries)
		}
	}
	return names
}

// inliner replaces @import rules with the imported CSS. User files resolve
// relative to the importing file and fall back to the bundled set by base
// name, so a user theme can import "_base.css".
type inliner struct {
	theme *Theme
	seen  map[string]bool
}

func (in *inliner) expand(css, dir string) string {
	return importPattern.ReplaceAllStringFunc(css, func(rule string) string {
		ref := importPattern.FindStringSubmatch(rule)[1]

		if dir != "" {
			p := ref
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			if data, err := os.ReadFile(p); err == nil {
				if in.seen[p] {
					return "/* skipped repeated import " + ref + " */"
				}
				in.seen[p] = true
				in.theme.Files = append(in.theme.Files, p)
				return "/* " + ref + " */\n" + in.expand(string(data), filepath.Dir(p))
			}
		}

		base := path.Base(filepath.ToSlash(ref))
		key := "bundled:" + base
		data, err := bundled.ReadFile(path.Join("themes", base))
		if err != nil {
			in.theme.Problems = append(in.theme.Problems, "missing import "+ref)
			return "/* missing import " + ref + " */"
		}
		if in.seen[key] {
			return "/* skipped repeated import " + ref + " */"
		}
		in.seen[key] = true
		return "/* " + ref + " (bundled) */\n" + in.expand(string(data), "")
	})
}
