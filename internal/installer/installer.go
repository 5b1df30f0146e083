// Package installer orchestrates a full profile installation: it enumerates
// a profile's documents through the resolver, compiles command and agent
// templates through the pipeline, materializes the resolved standards,
// workflow, and protocol trees, and records the settings used in the install
// manifest. One bad document degrades to a warning, never a failed batch.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/compiler"
	profErrors "github.com/conneroisu/profilar/internal/errors"
	"github.com/conneroisu/profilar/internal/logging"
	"github.com/conneroisu/profilar/internal/manifest"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/semver"
	"github.com/conneroisu/profilar/internal/types"
)

// compiledSubdirs hold templates that run through the full pipeline.
var compiledSubdirs = []string{"commands", "agents"}

// copiedSubdirs hold documents that install resolved but uncompiled.
var copiedSubdirs = []string{"standards", "workflows", "protocols"}

// Options configures one installation run.
type Options struct {
	Context     types.Context
	InstallDir  string
	Roles       map[string]string
	EmbedPhases bool

	// Force reinstalls even when the existing manifest matches the
	// current version and settings.
	Force bool
}

// Result summarizes an installation run.
type Result struct {
	Compiled []string
	Copied   []string
	Warnings []profErrors.CompileWarning

	// Skipped is set when an up-to-date installation was left alone.
	Skipped bool
}

// Installer runs profile installations.
type Installer struct {
	resolver   *profile.Resolver
	compiler   *compiler.Compiler
	writer     *atomicwrite.Writer
	comparator *semver.Comparator
	warnings   *profErrors.WarningCollector
	logger     logging.Logger
	version    string
}

// New creates an installer. version is the compiler version stamped into
// the install manifest.
func New(resolver *profile.Resolver, writer *atomicwrite.Writer, version string, logger logging.Logger) *Installer {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Installer{
		resolver:   resolver,
		compiler:   compiler.New(resolver, writer, logger),
		writer:     writer,
		comparator: semver.NewComparator(logger),
		warnings:   profErrors.NewWarningCollector(),
		logger:     logger.WithComponent("installer"),
		version:    version,
	}
}

// Preflight verifies the environment before any writes begin: the source
// tree and profile must exist, and the installation root must be creatable.
func (i *Installer) Preflight(opts Options) error {
	baseDir := i.resolver.BaseDir()
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		return profErrors.NewConfigError("E_BASE",
			fmt.Sprintf("source tree %s does not exist", baseDir))
	}

	if !profile.Exists(baseDir, opts.Context.Profile) {
		return profErrors.NewConfigError("E_PROFILE",
			fmt.Sprintf("profile %q not found under %s", opts.Context.Profile, filepath.Join(baseDir, "profiles")))
	}

	if i.writer.DryRun() {
		return nil
	}

	if err := os.MkdirAll(opts.InstallDir, 0o755); err != nil {
		return profErrors.NewIOError("E_DEST",
			fmt.Sprintf("installation root %s is not writable", opts.InstallDir), err)
	}

	return nil
}

// Install runs a full installation. Reinstalls snapshot the directories they
// are about to replace and restore that snapshot if a later step fails
// before the run is marked complete.
func (i *Installer) Install(ctx context.Context, opts Options) (*Result, error) {
	if err := i.Preflight(opts); err != nil {
		return nil, err
	}

	if !opts.Force {
		if skip := i.upToDate(ctx, opts); skip {
			return &Result{Skipped: true}, nil
		}
	}

	i.warnings.Clear()

	snap, err := i.takeSnapshot(ctx, opts.InstallDir)
	if err != nil {
		return nil, err
	}

	result, err := i.installAll(ctx, opts)
	if err != nil {
		if restoreErr := snap.Restore(); restoreErr != nil {
			i.logger.Error(ctx, restoreErr, "failed to restore snapshot after aborted install")
		}

		return nil, err
	}

	snap.Discard()

	result.Warnings = i.warnings.Warnings()

	return result, nil
}

func (i *Installer) installAll(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}

	compileOpts := compiler.Options{
		Roles:       opts.Roles,
		EmbedPhases: opts.EmbedPhases,
	}

	for _, subdir := range compiledSubdirs {
		rels, status := i.resolveSet(ctx, opts, subdir)
		if status != profile.StatusFound {
			return nil, profErrors.NewConfigError("E_RESOLVE",
				fmt.Sprintf("cannot enumerate %s for profile %q: %s", subdir, opts.Context.Profile, status))
		}

		for _, rel := range rels {
			res := i.resolver.ResolveFile(ctx, opts.Context.Profile, rel)
			if !i.usable(ctx, rel, res) {
				continue
			}

			dest := filepath.Join(opts.InstallDir, filepath.FromSlash(rel))
			if err := i.compiler.CompileDocument(ctx, res.Path, dest, opts.Context, compileOpts); err != nil {
				// One failed write aborts only that file.
				i.warnings.Add(rel, err.Error())
				i.logger.Warn(ctx, err, "failed to compile document", "document", rel)

				continue
			}

			result.Compiled = append(result.Compiled, rel)
		}
	}

	for _, subdir := range copiedSubdirs {
		rels, status := i.resolveSet(ctx, opts, subdir)
		if status != profile.StatusFound {
			return nil, profErrors.NewConfigError("E_RESOLVE",
				fmt.Sprintf("cannot enumerate %s for profile %q: %s", subdir, opts.Context.Profile, status))
		}

		for _, rel := range rels {
			res := i.resolver.ResolveFile(ctx, opts.Context.Profile, rel)
			if !i.usable(ctx, rel, res) {
				continue
			}

			data, err := os.ReadFile(res.Path)
			if err != nil {
				i.warnings.Add(rel, err.Error())
				i.logger.Warn(ctx, err, "failed to read document", "document", rel)

				continue
			}

			dest := filepath.Join(opts.InstallDir, filepath.FromSlash(rel))
			if err := i.writer.Write(ctx, data, dest); err != nil {
				i.warnings.Add(rel, err.Error())
				i.logger.Warn(ctx, err, "failed to write document", "document", rel)

				continue
			}

			result.Copied = append(result.Copied, rel)
		}
	}

	rec := manifest.NewRecord(i.version, opts.Context.Profile, opts.Context.Flags)
	if err := manifest.Write(ctx, i.writer, opts.InstallDir, rec); err != nil {
		return nil, err
	}

	return result, nil
}

// usable filters a resolution down to "should this path be installed",
// warning on configuration defects and skipping exclusions quietly.
func (i *Installer) usable(ctx context.Context, rel string, res profile.Resolution) bool {
	switch res.Status {
	case profile.StatusFound:
		return true
	case profile.StatusExcluded:
		i.logger.Debug(ctx, "document excluded by profile", "document", rel)
	case profile.StatusCircular, profile.StatusTooDeep:
		i.warnings.Add(rel, res.Status.String())
		i.logger.Warn(ctx, nil, "resolution aborted", "document", rel, "status", res.Status.String())
	default:
		i.warnings.Add(rel, "not found")
	}

	return false
}

func (i *Installer) resolveSet(ctx context.Context, opts Options, subdir string) ([]string, profile.Status) {
	return i.resolver.ResolveFiles(ctx, opts.Context.Profile, subdir)
}

// upToDate reports whether the existing installation already matches the
// current compiler version, profile, and flags.
func (i *Installer) upToDate(ctx context.Context, opts Options) bool {
	rec, err := manifest.Load(opts.InstallDir)
	if err != nil || rec == nil {
		return false
	}

	if manifest.NeedsMigration(rec, i.comparator) {
		i.logger.Info(ctx, "existing installation predates migration threshold, recompiling",
			"installed_version", rec.Version)

		return false
	}

	if rec.Profile != opts.Context.Profile {
		return false
	}

	if i.comparator.Compare(rec.Version, i.version) != semver.Equal {
		return false
	}

	current := opts.Context.Flags.AsMap()
	for name, value := range current {
		if rec.Flags[name] != value {
			return false
		}
	}

	return true
}
