// Package profile resolves files through profile inheritance chains. A
// profile is a named directory of template documents under
// <base>/profiles/<name>/ that may inherit from one parent profile and may
// exclude inherited paths with glob patterns.
package profile

import (
	"os"
	"path/filepath"

	"github.com/conneroisu/profilar/internal/yamlmini"
)

// ConfigFileName is the per-profile configuration file read through the
// flat-YAML reader.
const ConfigFileName = "config.yml"

// MaxInheritanceDepth bounds how many hops a profile chain may take before
// resolution gives up with TooDeep.
const MaxInheritanceDepth = 10

// Profile describes one profile directory and its inheritance declaration.
type Profile struct {
	Name string
	Dir  string

	// Parent is the profile this one inherits from, empty when the chain
	// ends here (no config file, or inherits_from: false).
	Parent string

	// Exclusions are the glob patterns this profile declares for its own
	// inheritance step.
	Exclusions []string
}

// Load reads the profile's config.yml, if present. A missing config file is
// not an error: the profile simply has no parent and no exclusions.
func Load(baseDir, name string) Profile {
	dir := Dir(baseDir, name)
	cfg := filepath.Join(dir, ConfigFileName)

	p := Profile{Name: name, Dir: dir}

	parent := yamlmini.GetValue(cfg, "inherits_from", "")
	if parent != "" && parent != "false" {
		p.Parent = parent
	}

	p.Exclusions = yamlmini.GetArray(cfg, "exclude_inherited_files")

	return p
}

// Dir returns the directory a profile lives in.
func Dir(baseDir, name string) string {
	return filepath.Join(baseDir, "profiles", name)
}

// Exists reports whether a profile directory is present under baseDir.
func Exists(baseDir, name string) bool {
	info, err := os.Stat(Dir(baseDir, name))

	return err == nil && info.IsDir()
}

// List enumerates the profile names available under baseDir, sorted by the
// directory listing order os.ReadDir provides (lexical).
func List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(baseDir, "profiles"))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}
