// Package semver compares semantic versions the way the installer needs to:
// leniently. Well-formed versions parse through Masterminds/semver; anything
// else is coerced component by component with non-numeric or missing parts
// defaulting to zero, so a damaged install record degrades to "very old"
// instead of aborting the run.
package semver

import (
	"context"
	"strconv"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"

	"github.com/conneroisu/profilar/internal/logging"
)

// Result is the outcome of comparing two versions.
type Result int

const (
	Equal Result = iota
	Greater
	Less
)

// String returns the string representation of the comparison result.
func (r Result) String() string {
	switch r {
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	case Less:
		return "less"
	default:
		return "unknown"
	}
}

// migrationThreshold is the oldest version whose installations are still
// compatible with the current compiler output layout.
const migrationThreshold = "2.1.0"

// Version is a parsed semantic version.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
}

// Comparator parses and compares version strings.
type Comparator struct {
	logger logging.Logger
}

// NewComparator creates a version comparator.
func NewComparator(logger logging.Logger) *Comparator {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Comparator{logger: logger.WithComponent("semver")}
}

// Parse parses s into its components. Missing or non-numeric components
// default to 0 and are logged.
func (c *Comparator) Parse(s string) Version {
	s = strings.TrimSpace(strings.TrimPrefix(s, "v"))

	if v, err := mmsemver.NewVersion(s); err == nil {
		// Short forms like "1.2" parse fine but coerce the missing
		// components to 0; surface that the same way the lenient path does.
		core := s
		if idx := strings.IndexAny(core, "-+"); idx >= 0 {
			core = core[:idx]
		}
		if strings.Count(core, ".") < 2 {
			c.logger.Warn(context.Background(), nil, "version component missing, defaulting to 0",
				"version", s)
		}

		return Version{
			Major:      v.Major(),
			Minor:      v.Minor(),
			Patch:      v.Patch(),
			Prerelease: v.Prerelease(),
		}
	}

	return c.parseLenient(s)
}

func (c *Comparator) parseLenient(s string) Version {
	var parsed Version

	core := s
	if idx := strings.Index(s, "-"); idx >= 0 {
		core = s[:idx]
		parsed.Prerelease = s[idx+1:]
	}

	components := strings.Split(core, ".")
	values := make([]uint64, 3)
	for i := 0; i < 3; i++ {
		if i >= len(components) || components[i] == "" {
			c.logger.Warn(context.Background(), nil, "version component missing, defaulting to 0",
				"version", s, "position", i)
			continue
		}
		n, err := strconv.ParseUint(components[i], 10, 64)
		if err != nil {
			c.logger.Warn(context.Background(), nil, "version component not numeric, defaulting to 0",
				"version", s, "component", components[i])
			continue
		}
		values[i] = n
	}

	parsed.Major, parsed.Minor, parsed.Patch = values[0], values[1], values[2]

	return parsed
}

// Compare compares a against b: Greater means a > b. Major, minor, and patch
// compare numerically. At an equal number, a release outranks any prerelease;
// two prereleases compare by plain lexicographic string order.
func (c *Comparator) Compare(a, b string) Result {
	va := c.Parse(a)
	vb := c.Parse(b)

	if r := compareUint(va.Major, vb.Major); r != Equal {
		return r
	}
	if r := compareUint(va.Minor, vb.Minor); r != Equal {
		return r
	}
	if r := compareUint(va.Patch, vb.Patch); r != Equal {
		return r
	}

	switch {
	case va.Prerelease == "" && vb.Prerelease != "":
		return Greater
	case va.Prerelease != "" && vb.Prerelease == "":
		return Less
	case va.Prerelease < vb.Prerelease:
		return Less
	case va.Prerelease > vb.Prerelease:
		return Greater
	}

	return Equal
}

// IsCompatible reports whether a and b share a major version.
func (c *Comparator) IsCompatible(a, b string) bool {
	return c.Parse(a).Major == c.Parse(b).Major
}

// NeedsMigration reports whether an installation recorded at the given
// version predates the migration threshold and must be recompiled. An empty
// version means the record is missing or unreadable and always migrates.
func (c *Comparator) NeedsMigration(installed string) bool {
	if strings.TrimSpace(installed) == "" {
		return true
	}

	return c.Compare(installed, migrationThreshold) == Less
}

func compareUint(a, b uint64) Result {
	switch {
	case a > b:
		return Greater
	case a < b:
		return Less
	default:
		return Equal
	}
}
