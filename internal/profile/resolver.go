package profile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/profilar/internal/logging"
	"github.com/conneroisu/profilar/internal/pattern"
)

// Status is the outcome of resolving a path through an inheritance chain.
// Tagged outcomes let callers distinguish "absent" from "unsafe": a missing
// file is routine, a cyclic chain is a configuration defect.
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusExcluded
	StatusCircular
	StatusTooDeep
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not found"
	case StatusExcluded:
		return "excluded"
	case StatusCircular:
		return "circular inheritance"
	case StatusTooDeep:
		return "inheritance too deep"
	default:
		return "unknown"
	}
}

// Resolution is the result of a single-file lookup.
type Resolution struct {
	Status Status

	// Path is the absolute path of the effective copy, set only when
	// Status is StatusFound.
	Path string

	// Owner is the profile whose copy won.
	Owner string
}

// Resolver walks profile inheritance chains to locate the effective copy of
// a path, or to enumerate every visible path under a subdirectory.
type Resolver struct {
	baseDir string
	logger  logging.Logger
}

// NewResolver creates a resolver rooted at baseDir.
func NewResolver(baseDir string, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Resolver{
		baseDir: baseDir,
		logger:  logger.WithComponent("resolver"),
	}
}

// BaseDir returns the source tree root the resolver reads from.
func (r *Resolver) BaseDir() string {
	return r.baseDir
}

// ResolveFile walks profileName's inheritance chain looking for rel.
//
// At every step the profile's own copy is checked first, before any
// exclusion pattern: a file that exists directly inside a profile always
// wins, however the profile was reached. Only when the file is absent does
// the profile's exclusion list get a say, and a match there stops the walk
// without consulting the parent.
func (r *Resolver) ResolveFile(ctx context.Context, profileName, rel string) Resolution {
	visited := make(map[string]bool)
	current := profileName
	hops := 0

	for {
		if visited[current] {
			r.logger.Warn(ctx, nil, "circular profile inheritance detected",
				"profile", profileName, "repeated", current)

			return Resolution{Status: StatusCircular}
		}
		visited[current] = true

		p := Load(r.baseDir, current)

		full := filepath.Join(p.Dir, filepath.FromSlash(rel))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return Resolution{Status: StatusFound, Path: full, Owner: current}
		}

		if p.Parent == "" {
			return Resolution{Status: StatusNotFound}
		}

		if pattern.MatchesAny(rel, p.Exclusions) {
			return Resolution{Status: StatusExcluded, Owner: current}
		}

		hops++
		if hops > MaxInheritanceDepth {
			r.logger.Warn(ctx, nil, "profile inheritance chain too deep",
				"profile", profileName, "max", MaxInheritanceDepth)

			return Resolution{Status: StatusTooDeep}
		}

		current = p.Parent
	}
}

// ResolveFiles enumerates every relative path visible under subdir across
// profileName's full inheritance chain. Exclusion patterns declared anywhere
// in the chain are collected first and applied to inherited profiles'
// copies; the requested profile's own files are never filtered, keeping
// enumeration consistent with ResolveFile's locality guarantee. The returned
// set names which paths exist; ResolveFile remains the authority on which
// profile's copy of each path wins.
func (r *Resolver) ResolveFiles(ctx context.Context, profileName, subdir string) ([]string, Status) {
	chain, status := r.Chain(ctx, profileName)
	if status != StatusFound {
		return nil, status
	}

	var collected []string
	for _, p := range chain {
		collected = append(collected, p.Exclusions...)
	}

	seen := make(map[string]bool)
	var paths []string

	// Root ancestor first, leaf last; first occurrence of a path wins.
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		local := p.Name == profileName

		root := filepath.Join(p.Dir, filepath.FromSlash(subdir))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			// A profile without this subdirectory is routine.
			if err != nil || d.IsDir() {
				return nil
			}

			relInProfile, relErr := filepath.Rel(p.Dir, path)
			if relErr != nil {
				return nil
			}
			rel := filepath.ToSlash(relInProfile)

			if !local && pattern.MatchesAny(rel, collected) {
				return nil
			}

			if !seen[rel] {
				seen[rel] = true
				paths = append(paths, rel)
			}

			return nil
		})
		if err != nil {
			r.logger.Warn(ctx, err, "failed to scan profile subdirectory",
				"profile", p.Name, "subdir", subdir)
		}
	}

	sort.Strings(paths)

	return paths, StatusFound
}

// Chain returns profileName's inheritance chain ordered leaf to root,
// guarding against cycles and unbounded depth.
func (r *Resolver) Chain(ctx context.Context, profileName string) ([]Profile, Status) {
	visited := make(map[string]bool)
	var chain []Profile
	current := profileName

	for {
		if visited[current] {
			r.logger.Warn(ctx, nil, "circular profile inheritance detected",
				"profile", profileName, "repeated", current)

			return nil, StatusCircular
		}
		visited[current] = true

		if len(chain) >= MaxInheritanceDepth+1 {
			r.logger.Warn(ctx, nil, "profile inheritance chain too deep",
				"profile", profileName, "max", MaxInheritanceDepth)

			return nil, StatusTooDeep
		}

		p := Load(r.baseDir, current)
		chain = append(chain, p)

		if p.Parent == "" {
			return chain, StatusFound
		}

		current = p.Parent
	}
}
