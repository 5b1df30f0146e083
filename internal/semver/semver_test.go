package semver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/profilar/internal/logging"
)

// recordingLogger captures warning messages for assertions.
type recordingLogger struct {
	warns []string
}

func (r *recordingLogger) Debug(context.Context, string, ...interface{}) {}
func (r *recordingLogger) Info(context.Context, string, ...interface{})  {}
func (r *recordingLogger) Error(_ context.Context, _ error, _ string, _ ...interface{}) {
}

func (r *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.warns = append(r.warns, msg)
}

func (r *recordingLogger) With(...interface{}) logging.Logger  { return r }
func (r *recordingLogger) WithComponent(string) logging.Logger { return r }

func TestCompare(t *testing.T) {
	comp := NewComparator(nil)

	tests := []struct {
		name string
		a    string
		b    string
		want Result
	}{
		{"identical versions", "1.2.3", "1.2.3", Equal},
		{"major wins over minor and patch", "2.0.0", "1.9.9", Greater},
		{"minor comparison", "1.3.0", "1.2.9", Greater},
		{"patch comparison", "1.2.3", "1.2.4", Less},
		{"release beats prerelease", "1.0.0", "1.0.0-beta", Greater},
		{"prerelease loses to release", "1.0.0-beta", "1.0.0", Less},
		{"prereleases compare lexicographically", "1.0.0-alpha", "1.0.0-beta", Less},
		{"equal prereleases", "1.0.0-rc1", "1.0.0-rc1", Equal},
		{"missing components default to zero", "1.2", "1.2.0", Equal},
		{"leading v tolerated", "v2.0.0", "2.0.0", Equal},
		{"garbage component reads as zero", "1.x.3", "1.0.3", Equal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, comp.Compare(tt.a, tt.b))
		})
	}
}

func TestParse(t *testing.T) {
	comp := NewComparator(nil)

	v := comp.Parse("1.2.3-beta.1")
	assert.Equal(t, uint64(1), v.Major)
	assert.Equal(t, uint64(2), v.Minor)
	assert.Equal(t, uint64(3), v.Patch)
	assert.Equal(t, "beta.1", v.Prerelease)

	v = comp.Parse("3")
	assert.Equal(t, uint64(3), v.Major)
	assert.Equal(t, uint64(0), v.Minor)
	assert.Equal(t, uint64(0), v.Patch)
	assert.Empty(t, v.Prerelease)
}

func TestParseLogsDefaultedComponents(t *testing.T) {
	tests := []struct {
		version   string
		wantWarns int
	}{
		{"1.2.3", 0},
		{"1.2.3-beta", 0},
		{"1.2", 1},
		{"1", 1},
		{"1.2-rc1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			rec := &recordingLogger{}
			comp := NewComparator(rec)

			comp.Parse(tt.version)
			assert.Len(t, rec.warns, tt.wantWarns)
		})
	}
}

func TestIsCompatible(t *testing.T) {
	comp := NewComparator(nil)

	assert.True(t, comp.IsCompatible("2.1.0", "2.9.3"))
	assert.False(t, comp.IsCompatible("1.9.9", "2.0.0"))
}

func TestNeedsMigration(t *testing.T) {
	comp := NewComparator(nil)

	tests := []struct {
		installed string
		want      bool
	}{
		{"", true},
		{"2.1.0", false},
		{"2.0.9", true},
		{"2.1.1", false},
		{"3.0.0", false},
		{"1.0.0", true},
		{"2.1.0-beta", true},
	}

	for _, tt := range tests {
		t.Run("installed="+tt.installed, func(t *testing.T) {
			assert.Equal(t, tt.want, comp.NeedsMigration(tt.installed))
		})
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "greater", Greater.String())
	assert.Equal(t, "less", Less.String())
}
