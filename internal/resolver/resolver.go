package resolver

import (
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/env"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// Resolver is the Transformer implementing §4.4's rule tables. One
// Resolver instance resolves exactly one module tree (§5 "the driver is
// not re-entrant"); imported modules are each resolved by their own
// Resolver instance, created by the linker (C9) against the same Context.
type Resolver struct {
	ctx    *rctx.Context
	opts   Options
	global *env.Environment
	module *env.Environment
	cur    *env.Environment // the environment currently in scope
	driver *transform.Driver

	moduleName string

	// allowUnknown mirrors §4.4.bis step 1: set only while partial
	// compilation is active, so an unresolved identifier is left in
	// place rather than raising UnknownIdentifier.
	allowUnknown bool

	// funcScopes maps a registered function's FuncIdx to the child
	// environment its parameters were registered into, so the deferred
	// second pass resolves the body against the right scope without
	// reusing the shared top-level scope stack across pending functions.
	funcScopes map[int]*env.Environment

	// moduleScopes/blockScopes map a registered module/named-external-block
	// index to the environment holding its own exported identifiers, so
	// AccessIdentifier against a ModuleType/NamedExternalBlockType can look
	// a member up the same way any other identifier resolves (§4
	// AccessIdentifier row, "on Module/NamedExternalBlock, look identifier
	// up in that env").
	moduleScopes map[int]*env.Environment
	blockScopes  map[int]*env.Environment

	// moduleNode is the *ast.Module currently being resolved, so
	// resolveImport can append to its ImportedModules (§6 "Resolved
	// module (outbound)").
	moduleNode *ast.Module

	// inFunction/entryStage/hasEntryStage/loopDepth track the statement-rule
	// context needed for DiscardOutsideFragment/LoopControlOutsideLoop/
	// ReturnOutsideFunction (§7 semantic policy).
	inFunction    bool
	entryStage    ast.Stage
	hasEntryStage bool
	loopDepth     int
}

// New constructs a Resolver with a fresh global environment (builtins
// registered) and a module-scoped child environment under it, per §4.2
// "Imported-module symbols live in an isolated child environment under
// the global environment" — the module being resolved is itself treated
// as living directly under the global environment.
func New(ctx *rctx.Context, opts Options, moduleName string) *Resolver {
	r := &Resolver{
		ctx:          ctx,
		opts:         opts,
		moduleName:   moduleName,
		funcScopes:   make(map[int]*env.Environment),
		moduleScopes: make(map[int]*env.Environment),
		blockScopes:  make(map[int]*env.Environment),
	}
	r.global = env.New("")
	registerBuiltins(r.global, ctx)
	r.module = env.NewChild(r.global, moduleName)
	r.cur = r.module
	r.driver = transform.New(r)
	return r
}

// Resolve is the top-level entry point (§2 control flow, §4.4 "Inputs").
// On success it returns the same *ast.Module, fully annotated, and a nil
// error slice; on failure it returns nil and the accumulated diagnostics
// (§7 "populates the caller-supplied error buffer and returns a null module").
func Resolve(module *ast.Module, ctx *rctx.Context, opts Options) (*ast.Module, []error) {
	r := New(ctx, opts, module.Metadata.ModuleName)
	r.allowUnknown = ctx.PartialCompilation
	r.moduleNode = module

	if err := r.driver.Module(module); err != nil {
		ctx.AddError(err)
		return nil, ctx.Errors()
	}
	if err := r.resolvePendingFunctions(); err != nil {
		ctx.AddError(err)
		return nil, ctx.Errors()
	}
	if ctx.HasCriticalErrors() {
		return nil, ctx.Errors()
	}
	return module, nil
}

// resolvePendingFunctions drains the module environment's deferred-body
// queue and resolves each function body against the scope its
// parameters were registered into during pass 1 (§2 step 5, §9
// "coroutine-like control flow... realised as pending_functions: Vec,
// not suspended coroutines").
func (r *Resolver) resolvePendingFunctions() error {
	pending := r.module.DrainPendingFunctions()
	for _, fn := range pending {
		scope, ok := r.funcScopes[fn.FuncIdx]
		if !ok {
			return diag.New(diag.KindInternalError, fn.Pos(), "no scope recorded for pending function %q", fn.Name)
		}
		prevCur := r.cur
		r.cur = scope
		r.inFunction = true
		r.entryStage = fn.Attributes.EntryStage
		r.hasEntryStage = fn.Attributes.HasEntryStage
		if fn.Body != nil {
			replacement, removed, err := r.driver.Stmt(fn.Body)
			if err != nil {
				r.cur = prevCur
				return err
			}
			if !removed {
				if body, ok := replacement.(*ast.MultiStatement); ok {
					fn.Body = body
				}
			}
		}
		r.inFunction = false
		r.cur = prevCur
	}
	return nil
}

// --- transform.Hooks implementation --------------------------------------

// TransformExpression dispatches to the §4.4 expression rule for expr's
// concrete kind. Every case resolves its own children explicitly (via
// r.driver.Expr) before deciding the result, then returns DontVisitChildren
// (skip) since the driver must not recurse a second time, or
// ReplaceExpression when the rule rewrites the node outright.
func (r *Resolver) TransformExpression(expr ast.Expression) (transform.Transformation, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return r.resolveIdentifier(e)
	case *ast.AccessIdentifier:
		return r.resolveAccessIdentifier(e)
	case *ast.AccessField:
		return r.resolveAccessField(e)
	case *ast.AccessIndex:
		return r.resolveAccessIndex(e)
	case *ast.Binary:
		return r.resolveBinary(e)
	case *ast.Unary:
		return r.resolveUnary(e)
	case *ast.Cast:
		return r.resolveCast(e)
	case *ast.Assign:
		return r.resolveAssign(e)
	case *ast.Swizzle:
		return r.resolveSwizzle(e)
	case *ast.CallFunction:
		return r.resolveCallFunction(e)
	case *ast.Intrinsic:
		return r.resolveIntrinsic(e)
	case *ast.Conditional:
		return r.resolveConditional(e)
	case *ast.ConstantValueExpression:
		return r.resolveConstantValue(e)
	case *ast.ConstantArrayValueExpression:
		return r.resolveConstantArrayValue(e)
	case *ast.ConstantExpression:
		return r.resolveConstantRef(e)
	case *ast.VariableValueExpression:
		return r.resolveVariableRef(e)
	default:
		// Already-resolved leaf kinds (Alias/Function/Intrinsic/Struct/
		// Type/Module/NamedExternalBlock value expressions) carry their
		// type from the table they reference and need no further work
		// if visited again (§8 invariant 2, index stability / fixed point).
		return transform.Skip(), nil
	}
}

// TransformStatement dispatches to the §4 statement rules table.
func (r *Resolver) TransformStatement(stmt ast.Statement) (transform.Transformation, error) {
	switch s := stmt.(type) {
	case *ast.BranchStatement:
		return r.resolveBranch(s)
	case *ast.ConditionalStatement:
		return r.resolveConditionalStatement(s)
	case *ast.DeclareAliasStatement:
		return r.resolveDeclareAlias(s)
	case *ast.DeclareConstStatement:
		return r.resolveDeclareConst(s)
	case *ast.DeclareVariableStatement:
		return r.resolveDeclareVariable(s)
	case *ast.DeclareStructStatement:
		return r.resolveDeclareStruct(s)
	case *ast.DeclareOptionStatement:
		return r.resolveDeclareOption(s)
	case *ast.DeclareFunctionStatement:
		return r.resolveDeclareFunction(s)
	case *ast.DeclareExternalStatement:
		return r.resolveDeclareExternal(s)
	case *ast.ForStatement:
		return r.resolveFor(s)
	case *ast.ForEachStatement:
		return r.resolveForEach(s)
	case *ast.WhileStatement:
		return r.resolveWhile(s)
	case *ast.ImportStatement:
		return r.resolveImport(s)
	case *ast.ReturnStatement:
		return r.resolveReturn(s)
	case *ast.DiscardStatement:
		return r.resolveDiscard(s)
	case *ast.BreakStatement, *ast.ContinueStatement:
		return r.resolveLoopControl(s)
	case *ast.ExpressionStatement:
		return r.resolveExpressionStatement(s)
	case *ast.MultiStatement:
		return transform.Visit(), nil
	default:
		return transform.Skip(), nil
	}
}

// --- shared helpers -------------------------------------------------------

// err builds a *diag.Diagnostic and returns it as an error, the uniform
// way every rule in this package raises a typed failure (§7 "errors are
// values").
func (r *Resolver) err(kind diag.Kind, pos token.Position, format string, args ...interface{}) error {
	return diag.New(kind, pos, format, args...)
}

// resolveExprChild resolves one child expression in place via the
// shared Driver and returns the (possibly replaced) node.
func (r *Resolver) resolveExprChild(e ast.Expression) (ast.Expression, error) {
	return r.driver.Expr(e)
}

// typeOf is a nil-safe accessor returning types.NoType{} for a nil
// expression, so callers don't special-case optional children.
func typeOf(e ast.Expression) types.ExpressionType {
	if e == nil {
		return types.NoType{}
	}
	t := e.CachedType()
	if t == nil {
		return types.NoType{}
	}
	return t
}

func (r *Resolver) internalf(pos ast.Node, format string, args ...interface{}) error {
	return diag.New(diag.KindInternalError, pos.Pos(), format, args...)
}
