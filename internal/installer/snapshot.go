package installer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	profErrors "github.com/conneroisu/profilar/internal/errors"
)

// snapshot preserves the install-root subdirectories a reinstall is about to
// replace so a failed run can put them back.
type snapshot struct {
	installDir string
	backupDir  string

	// subdirs lists which install subdirectories were present and saved.
	subdirs []string
}

// takeSnapshot copies the existing installation's managed subdirectories to
// a temporary backup. A fresh install (nothing to save) or a dry run yields
// an inert snapshot.
func (i *Installer) takeSnapshot(ctx context.Context, installDir string) (*snapshot, error) {
	snap := &snapshot{installDir: installDir}

	if i.writer.DryRun() {
		return snap, nil
	}

	managed := append(append([]string{}, compiledSubdirs...), copiedSubdirs...)

	var present []string
	for _, subdir := range managed {
		if info, err := os.Stat(filepath.Join(installDir, subdir)); err == nil && info.IsDir() {
			present = append(present, subdir)
		}
	}

	if len(present) == 0 {
		return snap, nil
	}

	backupDir, err := os.MkdirTemp("", "profilar-backup-*")
	if err != nil {
		return nil, profErrors.NewIOError("E_BACKUP", "failed to create backup directory", err)
	}

	for _, subdir := range present {
		src := filepath.Join(installDir, subdir)
		dst := filepath.Join(backupDir, subdir)
		if err := copyTree(src, dst); err != nil {
			os.RemoveAll(backupDir)

			return nil, profErrors.NewIOError("E_BACKUP",
				"failed to snapshot "+subdir, err)
		}
	}

	snap.backupDir = backupDir
	snap.subdirs = present

	i.logger.Debug(ctx, "snapshotted existing installation",
		"backup", backupDir, "subdirs", len(present))

	return snap, nil
}

// Restore puts the snapshotted subdirectories back over the install root.
func (s *snapshot) Restore() error {
	if s.backupDir == "" {
		return nil
	}

	for _, subdir := range s.subdirs {
		target := filepath.Join(s.installDir, subdir)
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		if err := copyTree(filepath.Join(s.backupDir, subdir), target); err != nil {
			return err
		}
	}

	return s.remove()
}

// Discard drops the backup after a successful run.
func (s *snapshot) Discard() {
	_ = s.remove()
}

func (s *snapshot) remove() error {
	if s.backupDir == "" {
		return nil
	}

	err := os.RemoveAll(s.backupDir)
	s.backupDir = ""

	return err
}

// copyTree recursively copies a directory. Plain writes are fine here: the
// backup lives outside the destination tree and is never half-observed.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return os.WriteFile(target, data, 0o644)
	})
}
