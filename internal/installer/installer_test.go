package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/manifest"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/types"
)

func writeProfileFile(t *testing.T, baseDir, profileName, rel, content string) {
	t.Helper()

	full := filepath.Join(profile.Dir(baseDir, profileName), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestInstaller(t *testing.T, baseDir string, dryRun bool) *Installer {
	t.Helper()

	resolver := profile.NewResolver(baseDir, nil)
	writer := atomicwrite.NewWriter(dryRun, nil)

	return New(resolver, writer, "2.1.0", nil)
}

func testOptions(baseDir, installDir string) Options {
	return Options{
		Context: types.Context{
			Profile:     "child",
			BaseDir:     baseDir,
			InstallRoot: installDir,
		},
		InstallDir: installDir,
	}
}

func seedProfiles(t *testing.T, baseDir string) {
	t.Helper()

	writeProfileFile(t, baseDir, "base", "standards/a.md", "base a\n")
	writeProfileFile(t, baseDir, "base", "standards/b.md", "base b\n")
	writeProfileFile(t, baseDir, "base", "workflows/plan.md", "plan steps\n")
	writeProfileFile(t, baseDir, "base", "commands/go.md", "run {{workflows/plan}}\n")
	writeProfileFile(t, baseDir, "child", "config.yml",
		"inherits_from: base\nexclude_inherited_files:\n  - standards/b.md\n")
	writeProfileFile(t, baseDir, "child", "standards/a.md", "child a\n")
}

func TestInstallEndToEnd(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	installDir := filepath.Join(t.TempDir(), "install")

	seedProfiles(t, baseDir)

	inst := newTestInstaller(t, baseDir, false)

	result, err := inst.Install(ctx, testOptions(baseDir, installDir))
	require.NoError(t, err)
	require.False(t, result.Skipped)

	assert.Equal(t, []string{"commands/go.md"}, result.Compiled)
	assert.Contains(t, result.Copied, "standards/a.md")
	assert.Contains(t, result.Copied, "workflows/plan.md")
	assert.Empty(t, result.Warnings)

	// The excluded inherited standard is not installed.
	_, err = os.Stat(filepath.Join(installDir, "standards", "b.md"))
	assert.True(t, os.IsNotExist(err))

	// The child's override wins over the base copy.
	data, err := os.ReadFile(filepath.Join(installDir, "standards", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "child a\n", string(data))

	// The compiled command has its workflow reference inlined.
	data, err = os.ReadFile(filepath.Join(installDir, "commands", "go.md"))
	require.NoError(t, err)
	assert.Equal(t, "run plan steps\n", string(data))

	// A manifest records the settings used.
	rec, err := manifest.Load(installDir)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2.1.0", rec.Version)
	assert.Equal(t, "child", rec.Profile)
}

func TestInstallSkipsWhenUpToDate(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	installDir := filepath.Join(t.TempDir(), "install")

	seedProfiles(t, baseDir)

	inst := newTestInstaller(t, baseDir, false)
	opts := testOptions(baseDir, installDir)

	first, err := inst.Install(ctx, opts)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := inst.Install(ctx, opts)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	// Force overrides the up-to-date check.
	opts.Force = true
	third, err := inst.Install(ctx, opts)
	require.NoError(t, err)
	assert.False(t, third.Skipped)
}

func TestInstallReinstallsAfterFlagChange(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	installDir := filepath.Join(t.TempDir(), "install")

	seedProfiles(t, baseDir)

	inst := newTestInstaller(t, baseDir, false)
	opts := testOptions(baseDir, installDir)

	_, err := inst.Install(ctx, opts)
	require.NoError(t, err)

	opts.Context.Flags.LazyLoadWorkflows = true
	result, err := inst.Install(ctx, opts)
	require.NoError(t, err)
	assert.False(t, result.Skipped, "changed flags must trigger a reinstall")
}

func TestInstallMissingReferenceDegradesToWarningBanner(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	installDir := filepath.Join(t.TempDir(), "install")

	writeProfileFile(t, baseDir, "child", "commands/broken.md", "{{workflows/absent}}\n")
	writeProfileFile(t, baseDir, "child", "commands/fine.md", "all good\n")

	inst := newTestInstaller(t, baseDir, false)

	result, err := inst.Install(ctx, testOptions(baseDir, installDir))
	require.NoError(t, err, "a missing reference must not fail the batch")
	assert.Len(t, result.Compiled, 2)

	data, err := os.ReadFile(filepath.Join(installDir, "commands", "broken.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "{{workflows/absent}}")
	assert.Contains(t, string(data), "WARNING")
}

func TestInstallUnknownProfile(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()

	writeProfileFile(t, baseDir, "real", "commands/x.md", "x\n")

	inst := newTestInstaller(t, baseDir, false)

	opts := testOptions(baseDir, filepath.Join(t.TempDir(), "install"))
	opts.Context.Profile = "ghost"

	_, err := inst.Install(ctx, opts)
	assert.Error(t, err)
}

func TestInstallDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	installDir := filepath.Join(t.TempDir(), "install")

	seedProfiles(t, baseDir)

	inst := newTestInstaller(t, baseDir, true)

	result, err := inst.Install(ctx, testOptions(baseDir, installDir))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Compiled)

	_, err = os.Stat(installDir)
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	installDir := filepath.Join(t.TempDir(), "install")

	seedProfiles(t, baseDir)

	inst := newTestInstaller(t, baseDir, false)

	_, err := inst.Install(ctx, testOptions(baseDir, installDir))
	require.NoError(t, err)

	snap, err := inst.takeSnapshot(ctx, installDir)
	require.NoError(t, err)
	require.NotEmpty(t, snap.subdirs)

	// Clobber an installed file, then restore.
	target := filepath.Join(installDir, "standards", "a.md")
	require.NoError(t, os.WriteFile(target, []byte("clobbered"), 0o644))

	require.NoError(t, snap.Restore())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "child a\n", string(data))
}
