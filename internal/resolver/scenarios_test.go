package resolver

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
)

// resolveModule runs module through Resolve with a fresh Context,
// mirroring the teacher's analyzeSource helper (_examples/.../analyzer_test.go):
// one call per test, no shared state across cases.
func resolveModule(t *testing.T, module *ast.Module, opts Options) (*ast.Module, *rctx.Context) {
	t.Helper()
	ctx := rctx.New()
	resolved, errs := Resolve(module, ctx, opts)
	if errs != nil {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	return resolved, ctx
}

func expectError(t *testing.T, module *ast.Module, opts Options, wantKind diag.Kind) {
	t.Helper()
	ctx := rctx.New()
	_, errs := Resolve(module, ctx, opts)
	if errs == nil {
		t.Fatalf("expected a %s error, resolved cleanly", wantKind)
	}
	d, ok := errs[0].(*diag.Diagnostic)
	if !ok {
		t.Fatalf("expected a *diag.Diagnostic, got %T (%v)", errs[0], errs[0])
	}
	if d.Kind != wantKind {
		t.Errorf("expected error kind %s, got %s (%s)", wantKind, d.Kind, d.Message)
	}
}

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func intLit(v int64) *ast.ConstantValueExpression {
	return &ast.ConstantValueExpression{Value: constant.IntLit(v)}
}

func floatLit(v float64) *ast.ConstantValueExpression {
	return &ast.ConstantValueExpression{Value: constant.FloatLit(v)}
}

// TestScenarioS1BinaryTypeInference covers §8 scenario S1: `const x: i32
// = 2; const y = x + 3;` infers y's type from x, lowering the untyped
// literal 3 to i32 along the way.
func TestScenarioS1BinaryTypeInference(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "s1"},
		Statements: []ast.Statement{
			&ast.DeclareConstStatement{Name: "x", TypeAnnotation: ident("i32"), Init: intLit(2)},
			&ast.DeclareConstStatement{Name: "y", Init: &ast.Binary{
				Left:  ident("x"),
				Op:    ast.BinAdd,
				Right: intLit(3),
			}},
		},
	}

	resolved, ctx := resolveModule(t, module, DefaultOptions())

	yDecl := resolved.Statements[1].(*ast.DeclareConstStatement)
	cdata, err := ctx.Constants.Retrieve(yDecl.ConstIdx, yDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve y: %v", err)
	}
	if _, ok := cdata.Value.(constant.I32); !ok {
		t.Errorf("expected y's folded value to be i32, got %T", cdata.Value)
	}

	binary := yDecl.Init.(*ast.Binary)
	if binary.CachedType() == nil {
		t.Fatalf("expected the binary's cachedExpressionType to be set")
	}
	if got := binary.CachedType().String(); got != "i32" {
		t.Errorf("expected binary's cached type i32, got %s", got)
	}
	if _, ok := binary.Right.(*ast.ConstantValueExpression).Value.(constant.I32); !ok {
		t.Errorf("expected literal 3 lowered to i32, got %T", binary.Right.(*ast.ConstantValueExpression).Value)
	}

	snaps.MatchSnapshot(t, resolved.String())
}

// TestScenarioS2PartialTypeApplication covers §8 scenario S2:
// `let v = vec3[f32](1.0, 2.0, 3.0);` instantiates the vec3 partial
// against f32, then the call rewrites to a Cast producing Vector{3, f32}.
func TestScenarioS2PartialTypeApplication(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "s2"},
		Statements: []ast.Statement{
			&ast.DeclareVariableStatement{
				Name: "v",
				Init: &ast.CallFunction{
					Target: &ast.AccessIndex{
						Expr:    ident("vec3"),
						Indices: []ast.Expression{ident("f32")},
					},
					Args: []ast.Expression{floatLit(1.0), floatLit(2.0), floatLit(3.0)},
				},
			},
		},
	}

	resolved, ctx := resolveModule(t, module, DefaultOptions())

	vDecl := resolved.Statements[0].(*ast.DeclareVariableStatement)
	cast, ok := vDecl.Init.(*ast.Cast)
	if !ok {
		t.Fatalf("expected CallFunction to rewrite to Cast, got %T", vDecl.Init)
	}
	if got := cast.CachedType().String(); got != "vec3<f32>" {
		t.Errorf("expected cast's cached type vec3<f32>, got %s", got)
	}

	vdata, err := ctx.Variables.Retrieve(vDecl.VarIdx, vDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve v: %v", err)
	}
	if vdata.Type.String() != "vec3<f32>" {
		t.Errorf("expected v's variable type vec3<f32>, got %s", vdata.Type)
	}

	snaps.MatchSnapshot(t, resolved.String())
}

// TestScenarioS3ConstIfElimination covers §8 scenario S3: `const N = 4;
// const if (N > 2) { let a = 1; } else { let a = 2; }` discards the else
// arm, replacing the BranchStatement with the taken arm's statement list.
func TestScenarioS3ConstIfElimination(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "s3"},
		Statements: []ast.Statement{
			&ast.DeclareConstStatement{Name: "N", Init: intLit(4)},
			&ast.BranchStatement{
				IsConst: true,
				CondStatements: []ast.CondBranch{
					{
						Cond: &ast.Binary{Left: ident("N"), Op: ast.BinCompGt, Right: intLit(2)},
						Body: &ast.MultiStatement{Statements: []ast.Statement{
							&ast.DeclareVariableStatement{Name: "a", Init: intLit(1)},
						}},
					},
				},
				Else: &ast.MultiStatement{Statements: []ast.Statement{
					&ast.DeclareVariableStatement{Name: "a", Init: intLit(2)},
				}},
			},
		},
	}

	resolved, _ := resolveModule(t, module, DefaultOptions())

	if len(resolved.Statements) != 2 {
		t.Fatalf("expected the const-if to splice in as one MultiStatement, got %d top-level statements", len(resolved.Statements))
	}
	taken, ok := resolved.Statements[1].(*ast.MultiStatement)
	if !ok {
		t.Fatalf("expected the surviving statement to be the taken arm's MultiStatement, got %T", resolved.Statements[1])
	}
	decl := taken.Statements[0].(*ast.DeclareVariableStatement)
	lit := decl.Init.(*ast.ConstantValueExpression)
	if int32(lit.Value.(constant.I32)) != 1 {
		t.Errorf("expected the then-arm's a = 1 to survive, got %v", lit.Value)
	}

	snaps.MatchSnapshot(t, resolved.String())
}

// TestScenarioS4OptionValueBinding covers §8 scenario S4: a caller-
// supplied HashOption("T") value binds the option's constant, and any
// reference to T folds to that value.
func TestScenarioS4OptionValueBinding(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "s4"},
		Statements: []ast.Statement{
			&ast.DeclareOptionStatement{Name: "T", TypeAnnotation: ident("u32"), Default: intLit(16)},
			&ast.DeclareConstStatement{Name: "doubled", Init: &ast.Binary{Left: ident("T"), Op: ast.BinAdd, Right: ident("T")}},
		},
	}

	ctx := rctx.New()
	ctx.OptionValues = map[uint32]constant.Value{HashOption("T"): constant.U32(4)}
	resolved, errs := Resolve(module, ctx, DefaultOptions())
	if errs != nil {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}

	optDecl := resolved.Statements[0].(*ast.DeclareOptionStatement)
	cdata, err := ctx.Constants.Retrieve(optDecl.ConstIdx, optDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve T: %v", err)
	}
	if got, ok := cdata.Value.(constant.U32); !ok || got != 4 {
		t.Errorf("expected T bound to u32(4), got %v", cdata.Value)
	}

	doubledDecl := resolved.Statements[1].(*ast.DeclareConstStatement)
	doubledData, err := ctx.Constants.Retrieve(doubledDecl.ConstIdx, doubledDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve doubled: %v", err)
	}
	if got, ok := doubledData.Value.(constant.U32); !ok || got != 8 {
		t.Errorf("expected doubled to fold to u32(8) from two T references, got %v", doubledData.Value)
	}

	snaps.MatchSnapshot(t, resolved.String())
}

// TestScenarioS5UnrollFor covers §8 scenario S5: `@unroll for i in 0 ->
// 3 : u32 { accumulate(i); }` with UnrollForLoops expands to three
// nested scopes, each with a freshly folded counter.
func TestScenarioS5UnrollFor(t *testing.T) {
	accumulate := &ast.DeclareFunctionStatement{
		Name:   "accumulate",
		Params: []ast.Param{{Name: "v", TypeAnnotation: ident("u32")}},
		Body:   &ast.MultiStatement{},
	}
	mainFn := &ast.DeclareFunctionStatement{
		Name: "main",
		Body: &ast.MultiStatement{Statements: []ast.Statement{
			&ast.ForStatement{
				From:    &ast.ConstantValueExpression{Value: constant.U32(0)},
				To:      &ast.ConstantValueExpression{Value: constant.U32(3)},
				Counter: "i",
				Unroll:  ast.UnrollAlways,
				Body: &ast.MultiStatement{Statements: []ast.Statement{
					&ast.ExpressionStatement{Expr: &ast.CallFunction{
						Target: ident("accumulate"),
						Args:   []ast.Expression{ident("i")},
					}},
				}},
			},
		}},
	}
	module := &ast.Module{
		Metadata:   ast.ModuleMetadata{ModuleName: "s5"},
		Statements: []ast.Statement{accumulate, mainFn},
	}

	resolved, _ := resolveModule(t, module, Options{UnrollForLoops: true})

	resolvedMain := resolved.Statements[1].(*ast.DeclareFunctionStatement)
	unrolled, ok := resolvedMain.Body.Statements[0].(*ast.MultiStatement)
	if !ok {
		t.Fatalf("expected the ForStatement to replace itself with a MultiStatement, got %T", resolvedMain.Body.Statements[0])
	}
	if len(unrolled.Statements) != 3 {
		t.Fatalf("expected 3 unrolled iterations, got %d", len(unrolled.Statements))
	}
	for i, iterStmt := range unrolled.Statements {
		iter := iterStmt.(*ast.MultiStatement)
		constDecl, ok := iter.Statements[0].(*ast.DeclareConstStatement)
		if !ok {
			t.Fatalf("iteration %d: expected a DeclareConstStatement counter, got %T", i, iter.Statements[0])
		}
		lit := constDecl.Init.(*ast.ConstantValueExpression)
		if int(lit.Value.(constant.U32)) != i {
			t.Errorf("iteration %d: expected counter folded to %d, got %v", i, i, lit.Value)
		}
	}

	snaps.MatchSnapshot(t, resolved.String())
}

// TestScenarioS6CircularImport covers §8 scenario S6: module A imports
// B and B imports A, so resolving A fails with CircularImport at the
// `import B` site regardless of which module resolution starts from.
func TestScenarioS6CircularImport(t *testing.T) {
	moduleA := &ast.Module{
		Metadata:   ast.ModuleMetadata{ModuleName: "A"},
		Statements: []ast.Statement{&ast.ImportStatement{ModuleName: "B"}},
	}
	moduleB := &ast.Module{
		Metadata:   ast.ModuleMetadata{ModuleName: "B"},
		Statements: []ast.Statement{&ast.ImportStatement{ModuleName: "A"}},
	}

	resolverFn := ModuleResolverFunc(func(name string) (*ast.Module, bool) {
		switch name {
		case "A":
			return moduleA, true
		case "B":
			return moduleB, true
		default:
			return nil, false
		}
	})

	opts := DefaultOptions()
	opts.ModuleResolver = resolverFn
	expectError(t, moduleA, opts, diag.KindCircularImport)
}

// TestInvariant7UnknownIdentifierTrapping covers §8 invariant 7: in full
// compilation, referencing an unbound name produces UnknownIdentifier.
func TestInvariant7UnknownIdentifierTrapping(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "inv7"},
		Statements: []ast.Statement{
			&ast.DeclareConstStatement{Name: "x", Init: ident("undeclared")},
		},
	}
	expectError(t, module, DefaultOptions(), diag.KindUnknownIdentifier)
}
