package source

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const (
	// INIFilename is the settings file looked up by FindINI.
	INIFilename = "settings.ini"
	// INISection is the section read when none is given.
	INISection = "settings"
)

// INIProvider serves keys from one section of an INI settings file.
type INIProvider struct {
	path    string
	section *ini.Section
}

// LoadINI opens path and serves keys from section (INISection when empty).
func LoadINI(path, section string) (*INIProvider, error) {
	if section == "" {
		section = INISection
	}
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load ini %s: %w", path, err)
	}
	return &INIProvider{path: path, section: file.Section(section)}, nil
}

func (p *INIProvider) Lookup(key string) (string, bool) {
	if p == nil || p.section == nil || !p.section.HasKey(key) {
		return "", false
	}
	return p.section.Key(key).String(), true
}

// Path returns the file the provider was loaded from.
func (p *INIProvider) Path() string { return p.path }

// FindINI walks from start up to the filesystem root looking for INIFilename.
func FindINI(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, INIFilename)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
