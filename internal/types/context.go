// Package types contains the shared data types passed between the resolver,
// the reference expander, and the template compiler.
package types

// Flags is the set of boolean compile flags a profile is compiled under.
// Conditional blocks in template documents are evaluated against these.
type Flags struct {
	UseSubagents          bool
	StandardsAsSkills     bool
	LazyLoadWorkflows     bool
	CompiledSingleCommand bool
}

// AsMap returns the flags keyed by their tag names as used inside
// {{IF ...}} / {{UNLESS ...}} blocks.
func (f Flags) AsMap() map[string]bool {
	return map[string]bool{
		"useSubagents":          f.UseSubagents,
		"standardsAsSkills":     f.StandardsAsSkills,
		"lazyLoadWorkflows":     f.LazyLoadWorkflows,
		"compiledSingleCommand": f.CompiledSingleCommand,
	}
}

// Context carries everything a single compilation needs to know about its
// surroundings: which profile is being compiled, where the profile tree
// lives, and where references should point once installed.
type Context struct {
	// Profile is the name of the profile being compiled.
	Profile string

	// BaseDir is the root of the source tree containing profiles/.
	BaseDir string

	// InstallRoot is the directory prefix used when emitting lazy
	// reference pointers, e.g. ".profilar".
	InstallRoot string

	Flags Flags
}
