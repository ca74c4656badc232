package env

import "github.com/shaderlang/slc/pkg/ast"

// scopeMark records the length `identifiers` had when a scope was
// pushed, so PopScope can truncate back to it (§3 Environment.scopes).
type scopeMark struct {
	prevLen int
}

// Environment is one per module, plus one per named-external-block and
// per imported module (§3). Lookup walks `identifiers` back-to-front
// (nearest shadow wins) and falls through `parent` if absent.
type Environment struct {
	parent           *Environment
	moduleID         string
	identifiers      []identifier
	scopes           []scopeMark
	pendingFunctions []*ast.DeclareFunctionStatement

	// activeConditionalIndex is the unique tag of the innermost unfolded
	// ConditionalStatement currently being resolved under; 0 outside any
	// such statement. Identifiers
	// registered while this is non-zero get stamped with it (§3 glossary
	// "Conditional index").
	activeConditionalIndex int
}

// New creates a root environment (e.g. the global environment, or the
// environment for a freshly loaded imported module) with no parent.
func New(moduleID string) *Environment {
	return &Environment{moduleID: moduleID}
}

// NewChild creates an environment nested under parent, used for a
// module's own scope sitting under the global environment, and for an
// imported module's isolated child environment (§3 Environment,
// §4.2 "Imported-module symbols live in an isolated child environment
// under the global environment").
func NewChild(parent *Environment, moduleID string) *Environment {
	return &Environment{parent: parent, moduleID: moduleID}
}

// ModuleID returns the module this environment belongs to.
func (e *Environment) ModuleID() string { return e.moduleID }

// ActiveConditional returns the conditional index currently in effect,
// i.e. the tag new registrations would be stamped with right now (§4.4.bis
// step 2: a hit whose ConditionalIndex differs from this value was
// declared under a different, inactive branch).
func (e *Environment) ActiveConditional() int { return e.activeConditionalIndex }

// PushScope opens a new nested scope; declarations registered until the
// matching PopScope are dropped when it returns (§4.2).
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, scopeMark{prevLen: len(e.identifiers)})
}

// PopScope discards every identifier registered since the matching PushScope.
func (e *Environment) PopScope() {
	if len(e.scopes) == 0 {
		return
	}
	mark := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]
	e.identifiers = e.identifiers[:mark.prevLen]
}

// PushConditional bumps the active conditional index while resolving a
// ConditionalStatement whose condition could not be folded, so nested
// declarations are tagged as conditional (§4 Statement rules,
// ConditionalStatement row). The caller passes the statement's own
// unique tag (e.g. a monotonically increasing counter from the
// resolver) and must call PopConditional with the previous value.
func (e *Environment) PushConditional(tag int) (previous int) {
	previous = e.activeConditionalIndex
	e.activeConditionalIndex = tag
	return previous
}

// PopConditional restores the active conditional index saved by PushConditional.
func (e *Environment) PopConditional(previous int) {
	e.activeConditionalIndex = previous
}

// Register binds name to data in the current scope. Declarations with
// the same name but differing ConditionalIndex legally coexist (§3
// IdentifierData).
func (e *Environment) Register(name string, data Data) {
	data.ConditionalIndex = e.activeConditionalIndex
	e.identifiers = append(e.identifiers, identifier{name: name, data: data})
}

// RegisterAt is like Register but stamps an explicit conditional index
// instead of the active one.
func (e *Environment) RegisterAt(name string, data Data, conditionalIndex int) {
	data.ConditionalIndex = conditionalIndex
	e.identifiers = append(e.identifiers, identifier{name: name, data: data})
}

// Find looks up name, walking the nearest-shadow-wins chain within this
// environment and then falling through to parent. Per §9's second Open
// Question, Module and NamedExternalBlock identifiers are resolved with
// the same "lexically innermost wins" rule as any other kind — no
// special ordering is applied between them.
func (e *Environment) Find(name string) (Data, bool) {
	for i := len(e.identifiers) - 1; i >= 0; i-- {
		if e.identifiers[i].name == name {
			return e.identifiers[i].data, true
		}
	}
	if e.parent != nil {
		return e.parent.Find(name)
	}
	return Data{}, false
}

// FindLocal looks up name only within this environment, not its
// parents; used by duplicate-declaration checks (§7 "identifier already used").
func (e *Environment) FindLocal(name string) (Data, bool) {
	for i := len(e.identifiers) - 1; i >= 0; i-- {
		if e.identifiers[i].name == name {
			return e.identifiers[i].data, true
		}
	}
	return Data{}, false
}

// DeferFunction queues fn's body for second-pass resolution (§2 step 5,
// §9 "coroutine-like control flow": pending_functions collected in pass
// 1, drained in pass 2 — realised here as a plain slice, not a coroutine).
func (e *Environment) DeferFunction(fn *ast.DeclareFunctionStatement) {
	e.pendingFunctions = append(e.pendingFunctions, fn)
}

// DrainPendingFunctions returns and clears the functions queued by
// DeferFunction, for the driver to resolve in its second pass.
func (e *Environment) DrainPendingFunctions() []*ast.DeclareFunctionStatement {
	pending := e.pendingFunctions
	e.pendingFunctions = nil
	return pending
}
