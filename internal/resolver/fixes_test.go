package resolver

import (
	"testing"

	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/types"
)

// TestDeclaredTypeLowersLiteralInsteadOfDefaulting exercises
// resolve_untyped(declared_type, value): a declared const/variable type
// must win over the literal's i32/f32 default.
func TestDeclaredTypeLowersLiteralInsteadOfDefaulting(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "lit"},
		Statements: []ast.Statement{
			&ast.DeclareConstStatement{Name: "x", TypeAnnotation: ident("f64"), Init: floatLit(1.0)},
			&ast.DeclareVariableStatement{Name: "y", TypeAnnotation: ident("u32"), Init: intLit(5)},
		},
	}

	resolved, ctx := resolveModule(t, module, DefaultOptions())

	xDecl := resolved.Statements[0].(*ast.DeclareConstStatement)
	cdata, err := ctx.Constants.Retrieve(xDecl.ConstIdx, xDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve x: %v", err)
	}
	if _, ok := cdata.Value.(constant.F64); !ok {
		t.Errorf("expected x's literal lowered to its declared type f64, got %T", cdata.Value)
	}

	yDecl := resolved.Statements[1].(*ast.DeclareVariableStatement)
	vdata, err := ctx.Variables.Retrieve(yDecl.VarIdx, yDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve y: %v", err)
	}
	if vdata.Type.String() != "u32" {
		t.Errorf("expected y's variable type u32, got %s", vdata.Type)
	}
	lit := yDecl.Init.(*ast.ConstantValueExpression)
	if _, ok := lit.Value.(constant.U32); !ok {
		t.Errorf("expected y's literal lowered to u32, got %T", lit.Value)
	}
}

// TestOptionDefaultLowersToDeclaredType covers resolveDeclareOption's
// Default branch getting the same declared-type lowering discipline as
// DeclareConstStatement/DeclareVariableStatement.
func TestOptionDefaultLowersToDeclaredType(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "opt"},
		Statements: []ast.Statement{
			&ast.DeclareOptionStatement{Name: "Quality", TypeAnnotation: ident("u32"), Default: intLit(16)},
		},
	}

	resolved, ctx := resolveModule(t, module, DefaultOptions())

	optDecl := resolved.Statements[0].(*ast.DeclareOptionStatement)
	cdata, err := ctx.Constants.Retrieve(optDecl.ConstIdx, optDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve Quality: %v", err)
	}
	if got, ok := cdata.Value.(constant.U32); !ok || got != 16 {
		t.Errorf("expected Quality's default folded to u32(16), got %v", cdata.Value)
	}
}

// TestArrayPartialTypeAcceptsNamedConstantSize covers classifyPartialParam's
// ParamConstantValue slot accepting any foldable constant expression
// (a named const reference), not just a literal node.
func TestArrayPartialTypeAcceptsNamedConstantSize(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "arr"},
		Statements: []ast.Statement{
			&ast.DeclareConstStatement{Name: "N", Init: intLit(4)},
			&ast.DeclareVariableStatement{
				Name: "arr",
				TypeAnnotation: &ast.AccessIndex{
					Expr:    ident("array"),
					Indices: []ast.Expression{ident("f32"), ident("N")},
				},
			},
		},
	}

	resolved, ctx := resolveModule(t, module, DefaultOptions())

	arrDecl := resolved.Statements[1].(*ast.DeclareVariableStatement)
	vdata, err := ctx.Variables.Retrieve(arrDecl.VarIdx, arrDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve arr: %v", err)
	}
	at, ok := vdata.Type.(types.ArrayType)
	if !ok {
		t.Fatalf("expected an array type, got %T", vdata.Type)
	}
	if at.Len != 4 {
		t.Errorf("expected array length 4 from named constant N, got %d", at.Len)
	}
}

// TestRemoveConstArraySizeClearsInferredLength covers the
// RemoveConstArraySize option post-processing instantiatePartialType's
// result so two arrays differing only in literal length unify.
func TestRemoveConstArraySizeClearsInferredLength(t *testing.T) {
	module := &ast.Module{
		Metadata: ast.ModuleMetadata{ModuleName: "arrsize"},
		Statements: []ast.Statement{
			&ast.DeclareVariableStatement{
				Name: "arr",
				TypeAnnotation: &ast.AccessIndex{
					Expr:    ident("array"),
					Indices: []ast.Expression{ident("f32"), intLit(4)},
				},
			},
		},
	}

	resolved, ctx := resolveModule(t, module, Options{RemoveConstArraySize: true})

	arrDecl := resolved.Statements[0].(*ast.DeclareVariableStatement)
	vdata, err := ctx.Variables.Retrieve(arrDecl.VarIdx, arrDecl.Pos())
	if err != nil {
		t.Fatalf("retrieve arr: %v", err)
	}
	at, ok := vdata.Type.(types.ArrayType)
	if !ok {
		t.Fatalf("expected an array type, got %T", vdata.Type)
	}
	if at.Len != 0 {
		t.Errorf("expected RemoveConstArraySize to clear the inferred length, got %d", at.Len)
	}
}
