package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EnvPlaceholder is replaced by the environment name in filename templates.
const EnvPlaceholder = "{env}"

// DefaultFilenames lists the default templates from lowest to highest precedence.
var DefaultFilenames = []string{".env", ".env.{env}", ".env.local", ".env.{env}.local"}

// Plan describes where to look for env files.
type Plan struct {
	// SearchDirs are the start directories. Empty means the working directory.
	SearchDirs []string
	EnvName    string
	// Filenames are templates ordered from lowest to highest precedence.
	// Nil selects DefaultFilenames.
	Filenames           []string
	StopAtFirstFoundDir bool
}

// Names expands the filename templates. Templates that need an environment
// name are dropped when EnvName is empty.
func (p Plan) Names() []string {
	templates := p.Filenames
	if templates == nil {
		templates = DefaultFilenames
	}
	names := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		if strings.Contains(tmpl, EnvPlaceholder) {
			if p.EnvName == "" {
				continue
			}
			tmpl = strings.ReplaceAll(tmpl, EnvPlaceholder, p.EnvName)
		}
		if tmpl == "" {
			continue
		}
		names = append(names, tmpl)
	}
	return names
}

// Fingerprint identifies the set of files the plan can resolve to. Plans with
// equal fingerprints share cached results.
func (p Plan) Fingerprint() string {
	dirs, err := p.startDirs()
	if err != nil {
		dirs = p.SearchDirs
	}
	var b strings.Builder
	b.WriteString(strings.Join(dirs, "\x00"))
	b.WriteString("\x01")
	b.WriteString(strings.Join(p.Names(), "\x00"))
	b.WriteString("\x01")
	b.WriteString(strconv.FormatBool(p.StopAtFirstFoundDir))
	return b.String()
}

func (p Plan) startDirs() ([]string, error) {
	starts := p.SearchDirs
	if len(starts) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		starts = []string{wd}
	}
	out := make([]string, 0, len(starts))
	for _, dir := range starts {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", dir, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// Candidate is an existing env file. Higher Rank wins.
type Candidate struct {
	Path string
	Dir  string
	Rank int
}

// Discover walks from every start directory up to the filesystem root and
// returns the existing env files ordered from lowest to highest precedence.
//
// Nearer directories outrank their ancestors, earlier start directories
// outrank later ones and later names outrank earlier names in the same
// directory. With StopAtFirstFoundDir the walk ends after the first directory
// holding any candidate.
func Discover(p Plan) ([]Candidate, error) {
	starts, err := p.startDirs()
	if err != nil {
		return nil, err
	}
	names := p.Names()

	visited := make(map[string]struct{})
	var levels [][]Candidate

walk:
	for _, start := range starts {
		for dir := start; ; {
			if _, seen := visited[dir]; seen {
				break
			}
			visited[dir] = struct{}{}

			if found := filesIn(dir, names); len(found) > 0 {
				levels = append(levels, found)
				if p.StopAtFirstFoundDir {
					break walk
				}
			}

			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	var out []Candidate
	for i := len(levels) - 1; i >= 0; i-- {
		for _, c := range levels[i] {
			c.Rank = len(out)
			out = append(out, c)
		}
	}
	return out, nil
}

func filesIn(dir string, names []string) []Candidate {
	var found []Candidate
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		found = append(found, Candidate{Path: path, Dir: dir})
	}
	return found
}
