package conditional

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(nil)

	tests := []struct {
		name  string
		text  string
		flags map[string]bool
		want  string
	}{
		{
			name:  "if true keeps block",
			text:  "before\n{{IF a}}\ninside\n{{ENDIF a}}\nafter",
			flags: map[string]bool{"a": true},
			want:  "before\ninside\nafter",
		},
		{
			name:  "if false drops block",
			text:  "before\n{{IF a}}\ninside\n{{ENDIF a}}\nafter",
			flags: map[string]bool{"a": false},
			want:  "before\nafter",
		},
		{
			name:  "unless inverts",
			text:  "{{UNLESS a}}\nkept\n{{ENDUNLESS a}}",
			flags: map[string]bool{"a": false},
			want:  "kept",
		},
		{
			name:  "unless true drops",
			text:  "{{UNLESS a}}\ndropped\n{{ENDUNLESS a}}",
			flags: map[string]bool{"a": true},
			want:  "",
		},
		{
			name:  "nested blocks require both flags",
			text:  "{{IF a}}\n{{IF b}}\nX\n{{ENDIF b}}\n{{ENDIF a}}",
			flags: map[string]bool{"a": true, "b": true},
			want:  "X",
		},
		{
			name:  "nested inner false drops inner only",
			text:  "{{IF a}}\nouter\n{{IF b}}\ninner\n{{ENDIF b}}\nouter2\n{{ENDIF a}}",
			flags: map[string]bool{"a": true, "b": false},
			want:  "outer\nouter2",
		},
		{
			name:  "outer false suppresses inner true",
			text:  "{{IF a}}\n{{IF b}}\nX\n{{ENDIF b}}\n{{ENDIF a}}",
			flags: map[string]bool{"a": false, "b": true},
			want:  "",
		},
		{
			name:  "unknown flag reads false",
			text:  "{{IF mystery}}\ngone\n{{ENDIF mystery}}\nkept",
			flags: map[string]bool{},
			want:  "kept",
		},
		{
			name:  "unknown flag under unless reads false so block kept",
			text:  "{{UNLESS mystery}}\nkept\n{{ENDUNLESS mystery}}",
			flags: map[string]bool{},
			want:  "kept",
		},
		{
			name:  "indented tags recognized",
			text:  "  {{IF a}}\nkept\n  {{ENDIF a}}",
			flags: map[string]bool{"a": true},
			want:  "kept",
		},
		{
			name:  "no tags passes through",
			text:  "plain\ntext",
			flags: map[string]bool{"a": true},
			want:  "plain\ntext",
		},
		{
			name:  "tag in prose is not a directive",
			text:  "use {{IF a}} to open a block",
			flags: map[string]bool{},
			want:  "use {{IF a}} to open a block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(ctx, tt.text, tt.flags))
		})
	}
}

func TestEvaluateMismatchedTags(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(nil)

	// A mismatched closer still restores the previous include state.
	got := p.Evaluate(ctx, "{{IF a}}\ninside\n{{ENDUNLESS a}}\nafter", map[string]bool{"a": true})
	assert.Equal(t, "inside\nafter", got)
}

func TestEvaluateUnclosedBlock(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(nil)

	// An unclosed block warns but does not abort; lines after the opener
	// follow the opener's condition.
	got := p.Evaluate(ctx, "{{IF a}}\ninside", map[string]bool{"a": true})
	assert.Equal(t, "inside", got)

	got = p.Evaluate(ctx, "{{IF a}}\ninside", map[string]bool{"a": false})
	assert.Equal(t, "", got)
}

func TestEvaluateStrayCloser(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(nil)

	got := p.Evaluate(ctx, "{{ENDIF a}}\nkept", map[string]bool{})
	assert.Equal(t, "kept", got)
}
