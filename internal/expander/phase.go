package expander

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/types"
)

var (
	phaseRe         = regexp.MustCompile(`\{\{PHASE\s+(\d+):\s*@([^}\s]+)\}\}`)
	numericPrefixRe = regexp.MustCompile(`^\d+[-_.]*`)
)

// acronyms lists words that stay fully uppercased in generated headings.
var acronyms = map[string]string{
	"api":  "API",
	"cli":  "CLI",
	"css":  "CSS",
	"html": "HTML",
	"http": "HTTP",
	"id":   "ID",
	"json": "JSON",
	"sql":  "SQL",
	"ui":   "UI",
	"url":  "URL",
	"yaml": "YAML",
}

// CompileFunc recompiles a phase document through the full pipeline.
type CompileFunc func(ctx context.Context, text string, c types.Context) string

// ExpandPhases substitutes {{PHASE n: @<root>/commands/<path>}} tags. Each
// referenced phase document is compiled with compiledSingleCommand set,
// suppressing blocks guarded as outer-document only, and the result is
// wrapped under a heading humanized from the file's base name. Nested phase
// references inside a compiled phase are expanded recursively under the same
// cycle set and depth ceiling as workflow references. Callers only invoke
// this in single-command embed mode; outside it phase tags pass through
// untouched.
func (e *Expander) ExpandPhases(ctx context.Context, text string, c types.Context, compile CompileFunc) string {
	return e.expandPhases(ctx, text, c, compile, make(map[string]bool), 0)
}

func (e *Expander) expandPhases(ctx context.Context, text string, c types.Context, compile CompileFunc, expanding map[string]bool, depth int) string {
	return phaseRe.ReplaceAllStringFunc(text, func(tag string) string {
		m := phaseRe.FindStringSubmatch(tag)
		number, ref := m[1], m[2]

		rel := phaseRelPath(ref)
		if rel == "" {
			e.logger.Warn(ctx, nil, "phase reference malformed", "reference", ref)

			return tag + banner("phase reference must point under commands/: @" + ref)
		}

		if expanding[rel] {
			e.logger.Warn(ctx, nil, "circular phase reference", "reference", rel)

			return tag + banner("circular phase reference: " + rel)
		}

		if depth >= MaxReferenceDepth {
			e.logger.Warn(ctx, nil, "phase reference depth limit reached",
				"reference", rel, "max", MaxReferenceDepth)

			return tag + banner(fmt.Sprintf("phase nesting exceeds %d levels at %s", MaxReferenceDepth, rel))
		}

		res := e.resolver.ResolveFile(ctx, c.Profile, rel)
		if res.Status != profile.StatusFound {
			e.logger.Warn(ctx, nil, "phase reference unresolved",
				"reference", rel, "status", res.Status.String())

			return tag + banner(fmt.Sprintf("could not resolve %s (%s)", rel, res.Status))
		}

		data, err := os.ReadFile(res.Path)
		if err != nil {
			e.logger.Warn(ctx, err, "phase reference unreadable", "reference", rel)

			return tag + banner("could not read " + rel)
		}

		phaseCtx := c
		phaseCtx.Flags.CompiledSingleCommand = true
		compiled := compile(ctx, string(data), phaseCtx)

		expanding[rel] = true
		compiled = e.expandPhases(ctx, compiled, phaseCtx, compile, expanding, depth+1)
		delete(expanding, rel)

		heading := fmt.Sprintf("## Phase %s: %s", number, HumanizeName(rel))

		return heading + "\n\n" + strings.TrimSpace(compiled)
	})
}

// phaseRelPath extracts the profile-relative path from the @-prefixed
// reference, which carries the install root as its leading segments.
func phaseRelPath(ref string) string {
	if idx := strings.Index(ref, "commands/"); idx >= 0 {
		return ref[idx:]
	}

	return ""
}

// HumanizeName derives a heading title from a document path: the base name
// loses its numeric prefix, separators become spaces, words are title-cased,
// and known acronyms are re-uppercased.
func HumanizeName(rel string) string {
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	base = numericPrefixRe.ReplaceAllString(base, "")

	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_'
	})

	titler := cases.Title(language.English)
	for i, word := range words {
		if upper, ok := acronyms[strings.ToLower(word)]; ok {
			words[i] = upper
			continue
		}
		words[i] = titler.String(word)
	}

	return strings.Join(words, " ")
}
