package rctx

import (
	"github.com/shaderlang/slc/pkg/arena"
	"github.com/shaderlang/slc/pkg/constant"
)

// Context aggregates one IndexList per symbol kind plus the global
// flags that change resolver behaviour (C5). It is owned by the driver
// for the duration of one Resolve call and passed explicitly to every
// pass — there is no global mutable state (§9 "Global mutable state: None").
type Context struct {
	Aliases             *arena.IndexList[AliasData]
	Constants           *arena.IndexList[ConstantData]
	Functions           *arena.IndexList[FunctionData]
	Intrinsics          *arena.IndexList[IntrinsicData]
	Modules             *arena.IndexList[ModuleData]
	NamedExternalBlocks *arena.IndexList[ExternalBlockData]
	Structs             *arena.IndexList[StructData]
	Types               *arena.IndexList[TypeData]
	Variables           *arena.IndexList[VariableData]

	// PartialCompilation relaxes three behaviours per §5: unresolved
	// identifiers become non-fatal, missing option values don't force a
	// default, and functions may be declared with identical names across
	// not-yet-resolved conditions.
	PartialCompilation bool

	// OptionValues holds caller-supplied values keyed by HashOption(name)
	// (§6 "OptionValues (inbound)").
	OptionValues map[uint32]constant.Value

	// moduleByName backs the linker's cycle sentinel (§5, §9): every
	// module name passed to BeginImport has a slot, whose inProgress flag
	// is set while resolution of that module is in progress and cleared
	// by EndImport.
	moduleByName map[string]moduleSlot

	// errors accumulates every Diagnostic raised across the whole
	// compilation, in emission order, for the caller-supplied error buffer (§7).
	errors []error

	// nextConditionalTag hands out unique ConditionalStatement tags for
	// env.Environment.PushConditional (glossary "Conditional index").
	nextConditionalTag int
}

type moduleSlot struct {
	inProgress bool
}

// New creates an empty Context ready for one Resolve call.
func New() *Context {
	return &Context{
		Aliases:             arena.New[AliasData](),
		Constants:           arena.New[ConstantData](),
		Functions:           arena.New[FunctionData](),
		Intrinsics:          arena.New[IntrinsicData](),
		Modules:             arena.New[ModuleData](),
		NamedExternalBlocks: arena.New[ExternalBlockData](),
		Structs:             arena.New[StructData](),
		Types:               arena.New[TypeData](),
		Variables:           arena.New[VariableData](),
		moduleByName:        make(map[string]moduleSlot),
	}
}

// AddError records a diagnostic. The driver surfaces the whole batch
// (or just the first, per caller preference) once Resolve returns (§7).
func (c *Context) AddError(err error) {
	c.errors = append(c.errors, err)
}

// Errors returns every diagnostic recorded so far, in emission order.
func (c *Context) Errors() []error { return c.errors }

// HasCriticalErrors reports whether any fatal error has been recorded;
// the driver's RunAll-equivalent stops dispatching further passes once
// this is true, mirroring the teacher's PassManager (§7: "An error
// aborts the entire compilation").
func (c *Context) HasCriticalErrors() bool { return len(c.errors) > 0 }

// NextConditionalTag returns a fresh, never-repeated tag for a
// ConditionalStatement about to be entered (glossary "Conditional index").
func (c *Context) NextConditionalTag() int {
	c.nextConditionalTag++
	return c.nextConditionalTag
}

// BeginImport installs the CircularImport sentinel for moduleName,
// reporting true if moduleName is already mid-resolution — the
// mechanism §5/§9 describe as "a sentinel (ModuleIdSentinel) installed
// in moduleByName between the start and end of an import".
func (c *Context) BeginImport(moduleName string) (alreadyInProgress bool) {
	slot, ok := c.moduleByName[moduleName]
	if ok && slot.inProgress {
		return true
	}
	c.moduleByName[moduleName] = moduleSlot{inProgress: true}
	return false
}

// EndImport clears the in-progress sentinel once moduleName has fully resolved.
func (c *Context) EndImport(moduleName string) {
	c.moduleByName[moduleName] = moduleSlot{inProgress: false}
}

// KnowsModule reports whether moduleName has been seen before (either
// mid-resolution or fully resolved), used by the linker to de-duplicate
// two import paths that resolve to the same metadata.moduleName (§6,
// §8 invariant 5).
func (c *Context) KnowsModule(moduleName string) bool {
	_, ok := c.moduleByName[moduleName]
	return ok
}
