// Package compiler orchestrates the per-document compilation pipeline: role
// substitution, conditional evaluation, reference expansion, and the fixed
// capability macro. Each step consumes only the previous step's output.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/conditional"
	profErrors "github.com/conneroisu/profilar/internal/errors"
	"github.com/conneroisu/profilar/internal/expander"
	"github.com/conneroisu/profilar/internal/logging"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/types"
)

// capabilityMacros maps fixed one-to-many keyword macros to their expansion.
// A single capability token in a template enumerates the full list in the
// compiled artifact.
var capabilityMacros = map[string]string{
	"{{CORE_CAPABILITIES}}": "read-files, write-files, edit-files, run-commands, search-files, list-files",
}

// Options tunes a single compilation.
type Options struct {
	// Roles maps role placeholder keys to their replacement text. Values
	// may span multiple lines.
	Roles map[string]string

	// EmbedPhases enables the single-command compile mode in which
	// {{PHASE ...}} tags are resolved and embedded. When off, phase tags
	// pass through unchanged.
	EmbedPhases bool
}

// Compiler drives a document through the full pipeline.
type Compiler struct {
	resolver     *profile.Resolver
	conditionals *conditional.Processor
	expander     *expander.Expander
	writer       *atomicwrite.Writer
	logger       logging.Logger
}

// New creates a compiler.
func New(resolver *profile.Resolver, writer *atomicwrite.Writer, logger logging.Logger) *Compiler {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Compiler{
		resolver:     resolver,
		conditionals: conditional.NewProcessor(logger),
		expander:     expander.New(resolver, logger),
		writer:       writer,
		logger:       logger.WithComponent("compiler"),
	}
}

// Compile runs text through the pipeline and returns the compiled document.
func (c *Compiler) Compile(ctx context.Context, text string, tc types.Context, opts Options) string {
	out := c.stages(ctx, text, tc, opts)

	if opts.EmbedPhases {
		// The expander recurses into nested phase references itself,
		// guarded by its cycle set and depth ceiling; the callback only
		// runs the per-document stages.
		out = c.expander.ExpandPhases(ctx, out, tc, func(ctx context.Context, phaseText string, phaseCtx types.Context) string {
			return c.stages(ctx, phaseText, phaseCtx, opts)
		})
	}

	return expandCapabilityMacros(out)
}

// stages runs every pipeline step except phase embedding.
func (c *Compiler) stages(ctx context.Context, text string, tc types.Context, opts Options) string {
	out := substituteRoles(text, opts.Roles)
	out = c.conditionals.Evaluate(ctx, out, tc.Flags.AsMap())
	out = c.expander.ExpandWorkflows(ctx, out, tc)
	out = c.expander.ExpandProtocols(ctx, out, tc)
	out = c.expander.ExpandStandards(ctx, out, tc)

	return out
}

// CompileDocument reads source, compiles it, and writes the artifact to
// destination through the atomic writer.
func (c *Compiler) CompileDocument(ctx context.Context, source, destination string, tc types.Context, opts Options) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return profErrors.NewIOError("E_READ",
			fmt.Sprintf("failed to read template %s", source), err).WithFile(source)
	}

	compiled := c.Compile(ctx, string(data), tc, opts)

	if err := c.writer.Write(ctx, []byte(compiled), destination); err != nil {
		return err
	}

	c.logger.Debug(ctx, "compiled document",
		"source", filepath.Base(source), "destination", destination)

	return nil
}

// substituteRoles replaces {{key}} placeholders from the role map. Keys are
// applied in sorted order so output is deterministic regardless of map
// iteration order.
func substituteRoles(text string, roles map[string]string) string {
	if len(roles) == 0 {
		return text
	}

	keys := make([]string, 0, len(roles))
	for k := range roles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		text = strings.ReplaceAll(text, "{{"+key+"}}", roles[key])
	}

	return text
}

func expandCapabilityMacros(text string) string {
	for token, expansion := range capabilityMacros {
		text = strings.ReplaceAll(text, token, expansion)
	}

	return text
}
