// Package transform implements the generic Transformer driver (C6,
// §4.3): a single AST walk that dispatches one hook per visited node
// and interprets its return value as one of
// {VisitChildren, DontVisitChildren, Replace, Remove}. Grounded on the
// teacher's Pass/PassManager (internal/semantic/pass.go) for the
// "explicit context, no panics, stop on critical error" discipline, but
// restructured from a *pass-per-pipeline-stage* shape to a
// *hook-per-node-kind* shape, because §4.3's driver is a single
// recursive walk the Resolver (and ConstantPropagation, IndexRemapper)
// each instantiate once, not a sequence of independent whole-tree passes.
package transform

import "github.com/shaderlang/slc/pkg/ast"

// Kind is the verdict a Hooks implementation returns for a visited node
// (§4.3).
type Kind int

const (
	// VisitChildren recurses into the node's children with the same Hooks.
	VisitChildren Kind = iota
	// DontVisitChildren leaves the node as-is; its children were already
	// handled by the hook, or must not be recursed into.
	DontVisitChildren
	// ReplaceExpression splices Expr in place of the visited expression.
	// The driver does not recurse into Expr unless the hook itself did.
	ReplaceExpression
	// ReplaceStatement splices Stmt in place of the visited statement,
	// with the same no-further-recursion rule as ReplaceExpression.
	ReplaceStatement
	// RemoveStatement deletes the visited statement from its enclosing list.
	RemoveStatement
)

// Transformation is a hook's verdict for one visited node.
type Transformation struct {
	Kind Kind
	Expr ast.Expression
	Stmt ast.Statement
}

// Visit returns the default "recurse into my children" verdict.
func Visit() Transformation { return Transformation{Kind: VisitChildren} }

// Skip returns the "do not recurse, I already (or deliberately didn't) handle my children" verdict.
func Skip() Transformation { return Transformation{Kind: DontVisitChildren} }

// ReplaceExpr returns the "splice this expression in my place" verdict.
func ReplaceExpr(e ast.Expression) Transformation {
	return Transformation{Kind: ReplaceExpression, Expr: e}
}

// ReplaceStmt returns the "splice this statement in my place" verdict.
func ReplaceStmt(s ast.Statement) Transformation {
	return Transformation{Kind: ReplaceStatement, Stmt: s}
}

// Remove returns the "delete me from my enclosing statement list" verdict.
func Remove() Transformation { return Transformation{Kind: RemoveStatement} }

// Hooks is implemented by a concrete tree rewriter (the Resolver,
// ConstantPropagation, or IndexRemapper). TransformExpression/
// TransformStatement are called once per visited node, in pre-order:
// the hook runs before any recursion into children the driver performs
// on its behalf.
type Hooks interface {
	TransformExpression(expr ast.Expression) (Transformation, error)
	TransformStatement(stmt ast.Statement) (Transformation, error)
}

// Driver walks an AST invoking Hooks at every node (C6).
//
// Invariant (§4.3): the driver never holds a reference to a child while
// invoking the hook on it — each recursive call receives the child by
// value-of-pointer and the result is written back into the parent's
// field immediately after the call returns, so a hook is free to move,
// discard, or retain children across calls.
type Driver struct {
	Hooks Hooks
}

// New creates a Driver dispatching to hooks.
func New(hooks Hooks) *Driver { return &Driver{Hooks: hooks} }

// Module walks every top-level statement of m in place.
func (d *Driver) Module(m *ast.Module) error {
	stmts, err := d.statementList(m.Statements)
	if err != nil {
		return err
	}
	m.Statements = stmts
	return nil
}

// Expr transforms a single expression (and, if the hook requests it,
// its children), returning the node that should replace it in its parent.
func (d *Driver) Expr(expr ast.Expression) (ast.Expression, error) {
	if expr == nil {
		return nil, nil
	}
	result, err := d.Hooks.TransformExpression(expr)
	if err != nil {
		return nil, err
	}
	switch result.Kind {
	case ReplaceExpression:
		return result.Expr, nil
	case DontVisitChildren:
		return expr, nil
	default: // VisitChildren
		if err := d.exprChildren(expr); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

// Stmt transforms a single statement, returning (replacement, removed).
// When removed is true the caller must drop the statement from its
// enclosing list; replacement is nil in that case.
func (d *Driver) Stmt(stmt ast.Statement) (replacement ast.Statement, removed bool, err error) {
	if stmt == nil {
		return nil, false, nil
	}
	result, err := d.Hooks.TransformStatement(stmt)
	if err != nil {
		return nil, false, err
	}
	switch result.Kind {
	case ReplaceStatement:
		return result.Stmt, false, nil
	case RemoveStatement:
		return nil, true, nil
	case DontVisitChildren:
		return stmt, false, nil
	default: // VisitChildren
		if err := d.stmtChildren(stmt); err != nil {
			return nil, false, err
		}
		return stmt, false, nil
	}
}

// statementList transforms every statement of a block in order,
// splicing replacements and dropping removed ones.
func (d *Driver) statementList(stmts []ast.Statement) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		replacement, removed, err := d.Stmt(s)
		if err != nil {
			return nil, err
		}
		if removed {
			continue
		}
		out = append(out, replacement)
	}
	return out, nil
}

// block transforms a *ast.MultiStatement's own statement list in place.
func (d *Driver) block(b *ast.MultiStatement) error {
	if b == nil {
		return nil
	}
	stmts, err := d.statementList(b.Statements)
	if err != nil {
		return err
	}
	b.Statements = stmts
	return nil
}

// exprList transforms a slice of expressions in place, by index (no
// element is ever removed from an expression list — only statements
// support RemoveStatement, §4.3).
func (d *Driver) exprList(exprs []ast.Expression) error {
	for i, e := range exprs {
		transformed, err := d.Expr(e)
		if err != nil {
			return err
		}
		exprs[i] = transformed
	}
	return nil
}
