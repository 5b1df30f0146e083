// Package expander substitutes workflow, protocol, standards, and phase
// reference tags inside template documents. References either inline the
// resolved content or emit lazy pointers to the installed location; a target
// that cannot be located leaves the tag in place with a visible warning
// banner so one bad reference never blocks the batch.
package expander

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/conneroisu/profilar/internal/logging"
	"github.com/conneroisu/profilar/internal/pattern"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/types"
)

// MaxReferenceDepth bounds recursive workflow expansion. A deeper nest is
// truncated with a warning rather than followed.
const MaxReferenceDepth = 20

var (
	workflowRe = regexp.MustCompile(`\{\{workflows/([^}\s]+)\}\}`)
	protocolRe = regexp.MustCompile(`\{\{protocols/([^}\s]+)\}\}`)
	standardRe = regexp.MustCompile(`\{\{standards/([^}\s]+)\}\}`)
)

// Expander resolves and substitutes reference tags.
type Expander struct {
	resolver *profile.Resolver
	logger   logging.Logger
}

// New creates a reference expander backed by the given resolver.
func New(resolver *profile.Resolver, logger logging.Logger) *Expander {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Expander{
		resolver: resolver,
		logger:   logger.WithComponent("expander"),
	}
}

// ExpandWorkflows substitutes {{workflows/<path>}} tags. With
// lazyLoadWorkflows set each tag becomes a pointer to the installed file;
// otherwise the target's content is inlined after its own nested workflow
// references are expanded, guarded by a cycle set and a depth ceiling.
func (e *Expander) ExpandWorkflows(ctx context.Context, text string, c types.Context) string {
	return e.expandWorkflows(ctx, text, c, make(map[string]bool), 0)
}

func (e *Expander) expandWorkflows(ctx context.Context, text string, c types.Context, expanding map[string]bool, depth int) string {
	return workflowRe.ReplaceAllStringFunc(text, func(tag string) string {
		target := workflowRe.FindStringSubmatch(tag)[1]
		rel := ensureMarkdownExt("workflows/" + target)

		if c.Flags.LazyLoadWorkflows {
			return e.pointer(c, rel)
		}

		if expanding[rel] {
			e.logger.Warn(ctx, nil, "circular workflow reference", "reference", rel)

			return tag + banner("circular workflow reference: "+rel)
		}

		if depth >= MaxReferenceDepth {
			e.logger.Warn(ctx, nil, "workflow reference depth limit reached",
				"reference", rel, "max", MaxReferenceDepth)

			return tag + banner(fmt.Sprintf("workflow nesting exceeds %d levels at %s", MaxReferenceDepth, rel))
		}

		res := e.resolver.ResolveFile(ctx, c.Profile, rel)
		if res.Status != profile.StatusFound {
			e.logger.Warn(ctx, nil, "workflow reference unresolved",
				"reference", rel, "status", res.Status.String())

			return tag + banner(fmt.Sprintf("could not resolve %s (%s)", rel, res.Status))
		}

		data, err := os.ReadFile(res.Path)
		if err != nil {
			e.logger.Warn(ctx, err, "workflow reference unreadable", "reference", rel)

			return tag + banner("could not read "+rel)
		}

		expanding[rel] = true
		inlined := e.expandWorkflows(ctx, string(data), c, expanding, depth+1)
		delete(expanding, rel)

		return strings.TrimRight(inlined, "\n")
	})
}

// ExpandProtocols substitutes {{protocols/<path>}} tags. Protocols are meant
// to be read on demand by the consumer, so they always become pointers and
// are never inlined.
func (e *Expander) ExpandProtocols(ctx context.Context, text string, c types.Context) string {
	return protocolRe.ReplaceAllStringFunc(text, func(tag string) string {
		target := protocolRe.FindStringSubmatch(tag)[1]
		rel := ensureMarkdownExt("protocols/" + target)

		res := e.resolver.ResolveFile(ctx, c.Profile, rel)
		if res.Status != profile.StatusFound {
			e.logger.Warn(ctx, nil, "protocol reference unresolved",
				"reference", rel, "status", res.Status.String())

			return tag + banner(fmt.Sprintf("could not resolve %s (%s)", rel, res.Status))
		}

		return e.pointer(c, rel)
	})
}

// ExpandStandards substitutes {{standards/<pattern>}} tags with a
// newline-joined list of pointer lines, one per matching document. The
// target may be an exact document name or a glob ending in *; index and
// metadata documents are excluded from wildcard matches.
func (e *Expander) ExpandStandards(ctx context.Context, text string, c types.Context) string {
	return standardRe.ReplaceAllStringFunc(text, func(tag string) string {
		target := standardRe.FindStringSubmatch(tag)[1]

		if !strings.Contains(target, "*") {
			rel := ensureMarkdownExt("standards/" + target)

			res := e.resolver.ResolveFile(ctx, c.Profile, rel)
			if res.Status != profile.StatusFound {
				e.logger.Warn(ctx, nil, "standards reference unresolved",
					"reference", rel, "status", res.Status.String())

				return tag + banner(fmt.Sprintf("could not resolve %s (%s)", rel, res.Status))
			}

			return e.pointer(c, rel)
		}

		files, status := e.resolver.ResolveFiles(ctx, c.Profile, "standards")
		if status != profile.StatusFound {
			e.logger.Warn(ctx, nil, "standards enumeration failed",
				"pattern", target, "status", status.String())

			return tag + banner(fmt.Sprintf("could not enumerate standards (%s)", status))
		}

		glob := "standards/" + target

		var lines []string
		for _, rel := range files {
			if isMetaDocument(rel) {
				continue
			}
			if pattern.Matches(rel, glob) {
				lines = append(lines, e.pointer(c, rel))
			}
		}

		if len(lines) == 0 {
			e.logger.Warn(ctx, nil, "standards pattern matched nothing", "pattern", target)

			return tag + banner("no standards match "+target)
		}

		return strings.Join(lines, "\n")
	})
}

// pointer emits the lazy form of a reference: the path the document will
// have once installed, to be read on demand by the consumer.
func (e *Expander) pointer(c types.Context, rel string) string {
	return "@" + path.Join(filepath.ToSlash(c.InstallRoot), rel)
}

// banner renders the visible warning appended after an unresolvable tag.
func banner(msg string) string {
	return "\n> ⚠️ WARNING: " + msg
}

// isMetaDocument reports whether rel names an index or metadata document
// that wildcard standards references should skip.
func isMetaDocument(rel string) bool {
	base := path.Base(rel)

	return base == "index.md" || base == "README.md" || strings.HasPrefix(base, "_")
}

func ensureMarkdownExt(rel string) string {
	if path.Ext(rel) == "" {
		return rel + ".md"
	}

	return rel
}
