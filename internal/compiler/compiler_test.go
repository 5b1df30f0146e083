package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/types"
)

func writeProfileFile(t *testing.T, baseDir, profileName, rel, content string) {
	t.Helper()

	full := filepath.Join(profile.Dir(baseDir, profileName), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestCompiler(t *testing.T, baseDir string) *Compiler {
	t.Helper()

	resolver := profile.NewResolver(baseDir, nil)
	writer := atomicwrite.NewWriter(false, nil)

	return New(resolver, writer, nil)
}

func testContext(baseDir string) types.Context {
	return types.Context{
		Profile:     "default",
		BaseDir:     baseDir,
		InstallRoot: ".profilar",
	}
}

func TestCompileIdentity(t *testing.T) {
	baseDir := t.TempDir()
	c := newTestCompiler(t, baseDir)

	// A document with no tags comes back unchanged.
	text := "# Title\n\nplain prose with no tags\n"
	got := c.Compile(context.Background(), text, testContext(baseDir), Options{})
	assert.Equal(t, text, got)
}

func TestCompileIdempotence(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	writeProfileFile(t, baseDir, "default", "workflows/plan.md", "do the plan\n")

	c := newTestCompiler(t, baseDir)
	tc := testContext(baseDir)

	first := c.Compile(ctx, "{{IF useSubagents}}\nagents\n{{ENDIF useSubagents}}\n{{workflows/plan}}\n", tc, Options{})
	second := c.Compile(ctx, first, tc, Options{})

	assert.Equal(t, first, second)
}

func TestCompileRoleSubstitution(t *testing.T) {
	baseDir := t.TempDir()
	c := newTestCompiler(t, baseDir)

	roles := map[string]string{
		"implementer": "You write code.\nYou run tests.",
		"reviewer":    "You review diffs.",
	}

	got := c.Compile(context.Background(), "A: {{implementer}}\nB: {{reviewer}}", testContext(baseDir), Options{Roles: roles})
	assert.Equal(t, "A: You write code.\nYou run tests.\nB: You review diffs.", got)
}

func TestCompileConditionalsSeeFlags(t *testing.T) {
	baseDir := t.TempDir()
	c := newTestCompiler(t, baseDir)

	tc := testContext(baseDir)
	tc.Flags.UseSubagents = true

	text := "{{IF useSubagents}}\nsubagents on\n{{ENDIF useSubagents}}\n{{UNLESS standardsAsSkills}}\nskills off\n{{ENDUNLESS standardsAsSkills}}"
	got := c.Compile(context.Background(), text, tc, Options{})
	assert.Equal(t, "subagents on\nskills off", got)
}

func TestCompileCapabilityMacro(t *testing.T) {
	baseDir := t.TempDir()
	c := newTestCompiler(t, baseDir)

	got := c.Compile(context.Background(), "capabilities: {{CORE_CAPABILITIES}}", testContext(baseDir), Options{})
	assert.Equal(t, "capabilities: read-files, write-files, edit-files, run-commands, search-files, list-files", got)
}

func TestCompilePipelineOrder(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	// The workflow reference sits inside a conditional block: conditionals
	// run first, so with the flag off the reference is never resolved.
	writeProfileFile(t, baseDir, "default", "workflows/plan.md", "should not appear\n")

	c := newTestCompiler(t, baseDir)

	text := "{{IF useSubagents}}\n{{workflows/plan}}\n{{ENDIF useSubagents}}\nkept"
	got := c.Compile(ctx, text, testContext(baseDir), Options{})
	assert.Equal(t, "kept", got)
}

func TestCompilePhaseEmbedding(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	writeProfileFile(t, baseDir, "default", "commands/deploy/1-build-assets.md",
		"{{UNLESS compiledSingleCommand}}\nouter only\n{{ENDUNLESS compiledSingleCommand}}\nbuild the assets\n")

	c := newTestCompiler(t, baseDir)

	text := "# Deploy\n\n{{PHASE 1: @.profilar/commands/deploy/1-build-assets.md}}"

	// Embed mode off: the phase tag passes through unchanged.
	got := c.Compile(ctx, text, testContext(baseDir), Options{})
	assert.Equal(t, text, got)

	// Embed mode on: compiled under a humanized heading with the
	// outer-only block suppressed.
	got = c.Compile(ctx, text, testContext(baseDir), Options{EmbedPhases: true})
	assert.Equal(t, "# Deploy\n\n## Phase 1: Build Assets\n\nbuild the assets", got)
}

func TestCompileSelfReferentialPhaseTerminates(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	// A phase document that embeds itself must compile to a truncated
	// warning, never recurse without bound.
	writeProfileFile(t, baseDir, "default", "commands/self.md",
		"{{PHASE 1: @.profilar/commands/self.md}}\n")

	c := newTestCompiler(t, baseDir)

	got := c.Compile(ctx, "{{PHASE 1: @.profilar/commands/self.md}}", testContext(baseDir), Options{EmbedPhases: true})

	assert.Contains(t, got, "## Phase 1: Self")
	assert.Contains(t, got, "circular phase reference")
	assert.Contains(t, got, "{{PHASE 1: @.profilar/commands/self.md}}")
}

func TestCompileDocument(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	writeProfileFile(t, baseDir, "default", "commands/go.md", "hello {{name}}\n")

	c := newTestCompiler(t, baseDir)

	source := filepath.Join(profile.Dir(baseDir, "default"), "commands", "go.md")
	dest := filepath.Join(t.TempDir(), "out", "go.md")

	err := c.CompileDocument(ctx, source, dest, testContext(baseDir), Options{
		Roles: map[string]string{"name": "world"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}
