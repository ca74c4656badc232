package linker

import (
	"testing"

	"github.com/shaderlang/slc/internal/env"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// buildFunction registers a function whose body calls callee (by index,
// via a resolved FunctionExpression) and references constIdx (via a
// resolved ConstantExpression), mirroring the shape resolveDeclareFunction/
// resolveConstantRef leave behind once a module is fully resolved.
func buildFunction(ctx *rctx.Context, hasEntry bool, calleeIdx, constIdx int, withCallee, withConst bool) int {
	body := &ast.MultiStatement{}
	if withCallee {
		body.Statements = append(body.Statements, &ast.ExpressionStatement{
			Expr: &ast.CallFunction{Target: &ast.FunctionExpression{FuncIdx: calleeIdx}},
		})
	}
	if withConst {
		body.Statements = append(body.Statements, &ast.ExpressionStatement{
			Expr: &ast.ConstantExpression{ConstIdx: constIdx},
		})
	}
	node := &ast.DeclareFunctionStatement{Body: body}
	idx, err := ctx.Functions.Register(rctx.FunctionData{Node: node, HasEntry: hasEntry}, 0, false, token.Position{})
	if err != nil {
		panic(err)
	}
	node.FuncIdx = idx
	return idx
}

func TestComputeReachableFollowsCallGraphFromEntryStage(t *testing.T) {
	ctx := rctx.New()

	// leaf, referenced only by helper
	leaf := buildFunction(ctx, false, 0, 0, false, false)
	// helper calls leaf
	helper := buildFunction(ctx, false, leaf, 0, true, false)
	// entry calls helper
	_ = buildFunction(ctx, true, helper, 0, true, false)
	// dead: never called from any entry-stage function
	dead := buildFunction(ctx, false, 0, 0, false, false)

	reached := ComputeReachable(ctx)

	if !reached.Functions[helper] {
		t.Errorf("expected helper (idx %d) reachable", helper)
	}
	if !reached.Functions[leaf] {
		t.Errorf("expected leaf (idx %d) reachable transitively through helper", leaf)
	}
	if reached.Functions[dead] {
		t.Errorf("did not expect dead function (idx %d) to be reachable", dead)
	}

	fdata, err := ctx.Functions.Retrieve(helper, token.Position{})
	if err != nil {
		t.Fatalf("retrieve helper: %v", err)
	}
	if !fdata.Used {
		t.Errorf("expected ComputeReachable to mark helper's FunctionData.Used")
	}
}

func TestComputeReachableMarksReferencedConstant(t *testing.T) {
	ctx := rctx.New()
	constIdx, err := ctx.Constants.Register(rctx.ConstantData{}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register constant: %v", err)
	}
	unusedConstIdx, err := ctx.Constants.Register(rctx.ConstantData{}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register constant: %v", err)
	}
	_ = buildFunction(ctx, true, 0, constIdx, false, true)

	reached := ComputeReachable(ctx)

	if !reached.Constants[constIdx] {
		t.Errorf("expected constant %d reachable via entry-stage function body", constIdx)
	}
	if reached.Constants[unusedConstIdx] {
		t.Errorf("did not expect unreferenced constant %d to be reachable", unusedConstIdx)
	}
}

func TestComputeReachableFollowsAliasToFunction(t *testing.T) {
	ctx := rctx.New()
	target := buildFunction(ctx, false, 0, 0, false, false)
	aliasIdx, err := ctx.Aliases.Register(rctx.AliasData{TargetIdx: target, TargetKind: int(env.KindFunction)}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register alias: %v", err)
	}

	body := &ast.MultiStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expr: &ast.CallFunction{Target: &ast.AliasValueExpression{AliasIdx: aliasIdx}}},
	}}
	node := &ast.DeclareFunctionStatement{Body: body, Attributes: ast.FunctionAttributes{HasEntryStage: true}}
	entryIdx, err := ctx.Functions.Register(rctx.FunctionData{Node: node, HasEntry: true}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register entry function: %v", err)
	}
	node.FuncIdx = entryIdx

	reached := ComputeReachable(ctx)

	if !reached.Aliases[aliasIdx] {
		t.Errorf("expected alias %d reachable", aliasIdx)
	}
	if !reached.Functions[target] {
		t.Errorf("expected alias target function %d reachable transitively", target)
	}
}

func TestComputeReachableFollowsNestedStructFields(t *testing.T) {
	ctx := rctx.New()
	inner := &ast.DeclareStructStatement{}
	innerIdx, err := ctx.Structs.Register(rctx.StructData{Desc: inner}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register inner struct: %v", err)
	}
	inner.StructIdx = innerIdx

	outer := &ast.DeclareStructStatement{Members: []ast.StructMember{
		{Name: "nested", TypeAnnotation: &ast.StructTypeExpression{StructIdx: innerIdx}},
	}}
	outerIdx, err := ctx.Structs.Register(rctx.StructData{Desc: outer}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register outer struct: %v", err)
	}
	outer.StructIdx = outerIdx

	body := &ast.MultiStatement{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expr: &ast.StructTypeExpression{StructIdx: outerIdx}},
	}}
	node := &ast.DeclareFunctionStatement{Body: body}
	_, err = ctx.Functions.Register(rctx.FunctionData{Node: node, HasEntry: true}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register entry function: %v", err)
	}

	reached := ComputeReachable(ctx)

	if !reached.Structs[outerIdx] {
		t.Errorf("expected outer struct %d reachable", outerIdx)
	}
	if !reached.Structs[innerIdx] {
		t.Errorf("expected nested struct %d reachable through outer's field", innerIdx)
	}
}

func TestComputeReachableFollowsStructViaTypeRef(t *testing.T) {
	ctx := rctx.New()
	st := &ast.DeclareStructStatement{Name: "Vertex"}
	structIdx, err := ctx.Structs.Register(rctx.StructData{Desc: st}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register struct: %v", err)
	}
	st.StructIdx = structIdx

	// resolveDeclareStruct registers a Types-table entry sharing the same
	// index as the struct's Structs-table entry (DESIGN.md's open-question
	// resolution); a TypeExpression leaf is how exprAnnotationType caches
	// a struct-typed annotation once resolved.
	_, err = ctx.Types.Register(rctx.TypeData{Content: types.StructType{Idx: structIdx}, Name: "Vertex"}, structIdx, true, token.Position{})
	if err != nil {
		t.Fatalf("register type: %v", err)
	}

	body := &ast.MultiStatement{Statements: []ast.Statement{
		&ast.DeclareVariableStatement{Name: "v", TypeAnnotation: &ast.TypeExpression{TypeIdx: structIdx}},
	}}
	node := &ast.DeclareFunctionStatement{Body: body}
	_, err = ctx.Functions.Register(rctx.FunctionData{Node: node, HasEntry: true}, 0, false, token.Position{})
	if err != nil {
		t.Fatalf("register entry function: %v", err)
	}

	reached := ComputeReachable(ctx)

	if !reached.Structs[structIdx] {
		t.Errorf("expected struct %d reachable via its TypeExpression reference", structIdx)
	}
}
