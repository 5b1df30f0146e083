// Package manifest reads and writes the install record Profilar leaves
// behind after a successful installation. The record captures the settings a
// tree was compiled with so a later run can detect drift and decide whether
// a recompile is due.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	profErrors "github.com/conneroisu/profilar/internal/errors"
	"github.com/conneroisu/profilar/internal/semver"
	"github.com/conneroisu/profilar/internal/types"
)

// FileName is the install record written into the installation root.
const FileName = ".profilar-install.yml"

// Record captures the settings an installation was compiled with.
type Record struct {
	Version     string          `yaml:"version"`
	Profile     string          `yaml:"profile"`
	Flags       map[string]bool `yaml:"flags"`
	InstalledAt time.Time       `yaml:"installed_at"`
}

// NewRecord builds a record for the given compile settings.
func NewRecord(version, profileName string, flags types.Flags) Record {
	return Record{
		Version:     version,
		Profile:     profileName,
		Flags:       flags.AsMap(),
		InstalledAt: time.Now().UTC(),
	}
}

// Write marshals the record and writes it into installDir through the
// atomic writer.
func Write(ctx context.Context, w *atomicwrite.Writer, installDir string, rec Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return profErrors.NewInternalError("E_MANIFEST", "failed to marshal install record", err)
	}

	return w.Write(ctx, data, filepath.Join(installDir, FileName))
}

// Load reads the install record from installDir. A missing record returns
// (nil, nil): the installation predates record-keeping or does not exist.
func Load(installDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(installDir, FileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, profErrors.NewIOError("E_MANIFEST", "failed to read install record", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, profErrors.NewConfigError("E_MANIFEST",
			fmt.Sprintf("install record is not valid YAML: %v", err))
	}

	return &rec, nil
}

// NeedsMigration reports whether the recorded installation predates the
// compiler's migration threshold. A nil record always migrates.
func NeedsMigration(rec *Record, comp *semver.Comparator) bool {
	if rec == nil {
		return true
	}

	return comp.NeedsMigration(rec.Version)
}
