package transform

import (
	"testing"

	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
)

// countingHooks visits every node with VisitChildren and counts how
// many of each kind it saw, to assert the driver reaches every child.
type countingHooks struct {
	exprs int
	stmts int
}

func (h *countingHooks) TransformExpression(ast.Expression) (Transformation, error) {
	h.exprs++
	return Visit(), nil
}

func (h *countingHooks) TransformStatement(ast.Statement) (Transformation, error) {
	h.stmts++
	return Visit(), nil
}

func ident(name string) *ast.Identifier {
	return &ast.Identifier{BaseExpr: ast.BaseExpr{Location: token.Position{Line: 1}}, Name: name}
}

func TestDriverVisitsEveryExpressionChild(t *testing.T) {
	// (a + b) * -c
	tree := &ast.Binary{
		Left: &ast.Binary{
			Left:  ident("a"),
			Right: ident("b"),
			Op:    ast.BinAdd,
		},
		Right: &ast.Unary{Operand: ident("c"), Op: ast.UnaryMinus},
		Op:    ast.BinMul,
	}

	hooks := &countingHooks{}
	d := New(hooks)
	if _, err := d.Expr(tree); err != nil {
		t.Fatalf("Expr: %v", err)
	}

	// binary, binary, a, b, unary, c = 6 expression nodes
	if hooks.exprs != 6 {
		t.Errorf("exprs visited = %d, want 6", hooks.exprs)
	}
}

func TestDriverReplaceExpressionDoesNotRecurse(t *testing.T) {
	replacement := ident("replaced")
	hooks := hookFunc{
		expr: func(e ast.Expression) (Transformation, error) {
			if _, ok := e.(*ast.Unary); ok {
				return ReplaceExpr(replacement), nil
			}
			return Visit(), nil
		},
	}
	tree := &ast.Unary{Operand: ident("inner"), Op: ast.UnaryMinus}

	d := New(hooks)
	got, err := d.Expr(tree)
	if err != nil {
		t.Fatalf("Expr: %v", err)
	}
	if got != ast.Expression(replacement) {
		t.Errorf("Expr() = %v, want the replacement node", got)
	}
}

func TestDriverRemoveStatementDropsFromBlock(t *testing.T) {
	keep := &ast.ExpressionStatement{Expr: ident("keep")}
	drop := &ast.ExpressionStatement{Expr: ident("drop")}
	block := &ast.MultiStatement{Statements: []ast.Statement{keep, drop}}

	hooks := hookFunc{
		stmt: func(s ast.Statement) (Transformation, error) {
			if es, ok := s.(*ast.ExpressionStatement); ok {
				if id, ok := es.Expr.(*ast.Identifier); ok && id.Name == "drop" {
					return Remove(), nil
				}
			}
			return Visit(), nil
		},
	}

	d := New(hooks)
	if err := d.block(block); err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(block.Statements) != 1 {
		t.Fatalf("Statements = %v, want exactly [keep]", block.Statements)
	}
	if block.Statements[0] != ast.Statement(keep) {
		t.Errorf("Statements[0] = %v, want keep", block.Statements[0])
	}
}

func TestDriverWhileLoopVisitsCondAndBody(t *testing.T) {
	body := &ast.MultiStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expr: ident("x")},
	}}
	loop := &ast.WhileStatement{Cond: ident("cond"), Body: body}

	hooks := &countingHooks{}
	d := New(hooks)
	if _, _, err := d.Stmt(loop); err != nil {
		t.Fatalf("Stmt: %v", err)
	}

	// while, expr-stmt = 2 statement nodes; cond, x = 2 expression nodes
	if hooks.stmts != 2 {
		t.Errorf("stmts visited = %d, want 2", hooks.stmts)
	}
	if hooks.exprs != 2 {
		t.Errorf("exprs visited = %d, want 2", hooks.exprs)
	}
}

// hookFunc adapts two plain functions to the Hooks interface, for tests
// that only care about one kind of node.
type hookFunc struct {
	expr func(ast.Expression) (Transformation, error)
	stmt func(ast.Statement) (Transformation, error)
}

func (h hookFunc) TransformExpression(e ast.Expression) (Transformation, error) {
	if h.expr == nil {
		return Visit(), nil
	}
	return h.expr(e)
}

func (h hookFunc) TransformStatement(s ast.Statement) (Transformation, error) {
	if h.stmt == nil {
		return Visit(), nil
	}
	return h.stmt(s)
}
