// Package conditional evaluates the nested {{IF ...}} / {{UNLESS ...}} macro
// blocks inside template documents against a set of boolean compile flags.
package conditional

import (
	"context"
	"regexp"
	"strings"

	"github.com/conneroisu/profilar/internal/logging"
)

var (
	openRe  = regexp.MustCompile(`^\s*\{\{(IF|UNLESS)\s+([A-Za-z0-9_]+)\}\}\s*$`)
	closeRe = regexp.MustCompile(`^\s*\{\{(ENDIF|ENDUNLESS)\s+([A-Za-z0-9_]+)\}\}\s*$`)
)

// frame remembers the include state to restore when a block closes.
type frame struct {
	previousInclude bool
	kind            string
	flag            string
}

// Processor strips or keeps conditional blocks.
type Processor struct {
	logger logging.Logger
}

// NewProcessor creates a conditional processor.
func NewProcessor(logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Processor{logger: logger.WithComponent("conditional")}
}

// Evaluate processes text line by line, keeping lines only while every
// enclosing block's condition holds. Unknown flags read as false, mismatched
// or unclosed tags are warned about, and evaluation never aborts.
func (p *Processor) Evaluate(ctx context.Context, text string, flags map[string]bool) string {
	lines := strings.Split(text, "\n")
	output := make([]string, 0, len(lines))

	include := true
	var stack []frame

	for _, line := range lines {
		if m := openRe.FindStringSubmatch(line); m != nil {
			kind, flag := m[1], m[2]

			value, known := flags[flag]
			if !known {
				p.logger.Warn(ctx, nil, "unknown conditional flag, treating as false", "flag", flag)
			}

			conditionMet := value
			if kind == "UNLESS" {
				conditionMet = !value
			}

			stack = append(stack, frame{previousInclude: include, kind: kind, flag: flag})
			include = include && conditionMet

			continue
		}

		if m := closeRe.FindStringSubmatch(line); m != nil {
			kind, flag := m[1], m[2]

			if len(stack) == 0 {
				p.logger.Warn(ctx, nil, "conditional closer without matching opener",
					"kind", kind, "flag", flag)

				continue
			}

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !closes(top.kind, kind) {
				p.logger.Warn(ctx, nil, "mismatched conditional tags",
					"opened", top.kind, "opened_flag", top.flag,
					"closed", kind, "closed_flag", flag)
			}

			include = top.previousInclude

			continue
		}

		if include {
			output = append(output, line)
		}
	}

	for _, f := range stack {
		p.logger.Warn(ctx, nil, "unclosed conditional block", "kind", f.kind, "flag", f.flag)
	}

	return strings.Join(output, "\n")
}

func closes(openKind, closeKind string) bool {
	return (openKind == "IF" && closeKind == "ENDIF") ||
		(openKind == "UNLESS" && closeKind == "ENDUNLESS")
}
