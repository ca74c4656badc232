package linker

import (
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
)

// IndexGenerators supplies one index-translation function per symbol
// table kind. Remap calls the matching generator for every index it
// encounters; a nil generator leaves that kind's indices untouched,
// which is the common case when only one table is being renumbered
// (e.g. merging two modules' Functions tables while Constants/Structs
// keep their original indices).
type IndexGenerators struct {
	Function      func(old int) int
	Constant      func(old int) int
	Struct        func(old int) int
	Alias         func(old int) int
	Variable      func(old int) int
	Module        func(old int) int
	ExternalBlock func(old int) int
	Type          func(old int) int
}

func (g IndexGenerators) function(old int) int {
	if g.Function == nil {
		return old
	}
	return g.Function(old)
}
func (g IndexGenerators) constant(old int) int {
	if g.Constant == nil {
		return old
	}
	return g.Constant(old)
}
func (g IndexGenerators) structIdx(old int) int {
	if g.Struct == nil {
		return old
	}
	return g.Struct(old)
}
func (g IndexGenerators) alias(old int) int {
	if g.Alias == nil {
		return old
	}
	return g.Alias(old)
}
func (g IndexGenerators) variable(old int) int {
	if g.Variable == nil {
		return old
	}
	return g.Variable(old)
}
func (g IndexGenerators) module(old int) int {
	if g.Module == nil {
		return old
	}
	return g.Module(old)
}
func (g IndexGenerators) externalBlock(old int) int {
	if g.ExternalBlock == nil {
		return old
	}
	return g.ExternalBlock(old)
}
func (g IndexGenerators) typeIdx(old int) int {
	if g.Type == nil {
		return old
	}
	return g.Type(old)
}

// Remap implements C12: a structural clone of module that rewrites
// every symbol-table index it carries through the matching caller-
// supplied generator, leaving module itself untouched (the single-
// owner-per-node invariant, §4.3, forbids mutating a tree that may
// still be referenced by the context it was resolved under — e.g. when
// a module is merged into an importer's index space and also remains
// independently cached for re-import elsewhere).
func Remap(module *ast.Module, gens IndexGenerators) *ast.Module {
	r := &remapper{gens: gens}
	out := &ast.Module{Metadata: module.Metadata}
	out.Statements = make([]ast.Statement, len(module.Statements))
	for i, s := range module.Statements {
		out.Statements[i] = r.stmt(s)
	}
	out.ImportedModules = append([]*ast.Module(nil), module.ImportedModules...)
	return out
}

type remapper struct {
	gens IndexGenerators
}

func (r *remapper) stmt(s ast.Statement) ast.Statement {
	if s == nil {
		return nil
	}
	switch v := s.(type) {
	case *ast.MultiStatement:
		out := &ast.MultiStatement{BaseStmt: v.BaseStmt}
		out.Statements = make([]ast.Statement, len(v.Statements))
		for i, c := range v.Statements {
			out.Statements[i] = r.stmt(c)
		}
		return out
	case *ast.BranchStatement:
		out := &ast.BranchStatement{BaseStmt: v.BaseStmt, IsConst: v.IsConst}
		out.CondStatements = make([]ast.CondBranch, len(v.CondStatements))
		for i, c := range v.CondStatements {
			out.CondStatements[i] = ast.CondBranch{Cond: r.expr(c.Cond), Body: r.stmt(c.Body).(*ast.MultiStatement)}
		}
		if v.Else != nil {
			out.Else = r.stmt(v.Else).(*ast.MultiStatement)
		}
		return out
	case *ast.ConditionalStatement:
		return &ast.ConditionalStatement{BaseStmt: v.BaseStmt, Cond: r.expr(v.Cond), Stmt: r.stmt(v.Stmt)}
	case *ast.DeclareAliasStatement:
		return &ast.DeclareAliasStatement{
			BaseStmt: v.BaseStmt, Expr: r.expr(v.Expr), Name: v.Name,
			AliasIdx: r.gens.alias(v.AliasIdx), HasIdx: v.HasIdx,
		}
	case *ast.DeclareConstStatement:
		return &ast.DeclareConstStatement{
			BaseStmt: v.BaseStmt, TypeAnnotation: r.expr(v.TypeAnnotation), Init: r.expr(v.Init), Name: v.Name,
			ConstIdx: r.gens.constant(v.ConstIdx), HasIdx: v.HasIdx,
		}
	case *ast.DeclareVariableStatement:
		return &ast.DeclareVariableStatement{
			BaseStmt: v.BaseStmt, TypeAnnotation: r.expr(v.TypeAnnotation), Init: r.expr(v.Init), Name: v.Name,
			VarIdx: r.gens.variable(v.VarIdx), HasIdx: v.HasIdx,
		}
	case *ast.DeclareStructStatement:
		out := &ast.DeclareStructStatement{
			BaseStmt: v.BaseStmt, Name: v.Name,
			StructIdx: r.gens.structIdx(v.StructIdx), HasIdx: v.HasIdx,
		}
		out.Members = make([]ast.StructMember, len(v.Members))
		for i, m := range v.Members {
			out.Members[i] = ast.StructMember{
				Cond:           r.expr(m.Cond),
				Builtin:        r.expr(m.Builtin),
				Interp:         r.expr(m.Interp),
				LocationIndex:  r.expr(m.LocationIndex),
				TypeAnnotation: r.expr(m.TypeAnnotation),
				Name:           m.Name,
				FieldIdx:       m.FieldIdx,
			}
		}
		return out
	case *ast.DeclareOptionStatement:
		return &ast.DeclareOptionStatement{
			BaseStmt: v.BaseStmt, TypeAnnotation: r.expr(v.TypeAnnotation), Default: r.expr(v.Default), Name: v.Name,
			ConstIdx: r.gens.constant(v.ConstIdx), HasIdx: v.HasIdx,
		}
	case *ast.DeclareFunctionStatement:
		out := &ast.DeclareFunctionStatement{
			BaseStmt: v.BaseStmt, ReturnType: r.expr(v.ReturnType), Name: v.Name,
			FuncIdx: r.gens.function(v.FuncIdx), HasIdx: v.HasIdx,
			Attributes: ast.FunctionAttributes{
				Entry:              r.expr(v.Attributes.Entry),
				DepthWrite:         r.expr(v.Attributes.DepthWrite),
				EarlyFragmentTests: r.expr(v.Attributes.EarlyFragmentTests),
				EntryStage:         v.Attributes.EntryStage,
				HasEntryStage:      v.Attributes.HasEntryStage,
			},
		}
		for i := range v.Attributes.WorkgroupSize {
			out.Attributes.WorkgroupSize[i] = r.expr(v.Attributes.WorkgroupSize[i])
		}
		out.Params = make([]ast.Param, len(v.Params))
		for i, p := range v.Params {
			out.Params[i] = ast.Param{TypeAnnotation: r.expr(p.TypeAnnotation), Name: p.Name, VarIdx: r.gens.variable(p.VarIdx)}
		}
		if v.Body != nil {
			out.Body = r.stmt(v.Body).(*ast.MultiStatement)
		}
		return out
	case *ast.DeclareExternalStatement:
		out := &ast.DeclareExternalStatement{
			BaseStmt: v.BaseStmt, Name: v.Name,
			BlockIdx: r.gens.externalBlock(v.BlockIdx), HasIdx: v.HasIdx,
		}
		out.Vars = make([]ast.ExternalVar, len(v.Vars))
		for i, ev := range v.Vars {
			out.Vars[i] = ast.ExternalVar{
				TypeAnnotation: r.expr(ev.TypeAnnotation),
				BindingSet:     r.expr(ev.BindingSet),
				AutoBinding:    r.expr(ev.AutoBinding),
				Name:           ev.Name,
				VarIdx:         r.gens.variable(ev.VarIdx),
			}
		}
		return out
	case *ast.ForStatement:
		return &ast.ForStatement{
			BaseStmt: v.BaseStmt, From: r.expr(v.From), To: r.expr(v.To), Step: r.expr(v.Step),
			Body: r.stmt(v.Body).(*ast.MultiStatement), Counter: v.Counter, Unroll: v.Unroll,
			VarIdx: r.gens.variable(v.VarIdx), HasIdx: v.HasIdx,
		}
	case *ast.ForEachStatement:
		return &ast.ForEachStatement{
			BaseStmt: v.BaseStmt, Array: r.expr(v.Array), Body: r.stmt(v.Body).(*ast.MultiStatement),
			Var: v.Var, Unroll: v.Unroll, VarIdx: r.gens.variable(v.VarIdx), HasIdx: v.HasIdx,
		}
	case *ast.WhileStatement:
		return &ast.WhileStatement{BaseStmt: v.BaseStmt, Cond: r.expr(v.Cond), Body: r.stmt(v.Body).(*ast.MultiStatement)}
	case *ast.ImportStatement:
		out := &ast.ImportStatement{
			BaseStmt: v.BaseStmt, ModuleName: v.ModuleName, Alias: v.Alias,
			ModuleIdx: r.gens.module(v.ModuleIdx), HasIdx: v.HasIdx,
		}
		out.Symbols = append([]ast.ImportedSymbol(nil), v.Symbols...)
		return out
	case *ast.ReturnStatement:
		return &ast.ReturnStatement{BaseStmt: v.BaseStmt, Value: r.expr(v.Value)}
	case *ast.DiscardStatement:
		return &ast.DiscardStatement{BaseStmt: v.BaseStmt}
	case *ast.BreakStatement:
		return &ast.BreakStatement{BaseStmt: v.BaseStmt}
	case *ast.ContinueStatement:
		return &ast.ContinueStatement{BaseStmt: v.BaseStmt}
	case *ast.ExpressionStatement:
		return &ast.ExpressionStatement{BaseStmt: v.BaseStmt, Expr: r.expr(v.Expr)}
	default:
		return s
	}
}

func (r *remapper) expr(e ast.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Identifier:
		return &ast.Identifier{BaseExpr: v.BaseExpr, Name: v.Name}
	case *ast.AccessIdentifier:
		return &ast.AccessIdentifier{BaseExpr: v.BaseExpr, Expr: r.expr(v.Expr), Segments: append([]string(nil), v.Segments...)}
	case *ast.AccessField:
		return &ast.AccessField{BaseExpr: v.BaseExpr, Expr: r.expr(v.Expr), FieldIdx: v.FieldIdx}
	case *ast.AccessIndex:
		out := &ast.AccessIndex{BaseExpr: v.BaseExpr, Expr: r.expr(v.Expr)}
		out.Indices = make([]ast.Expression, len(v.Indices))
		for i, idx := range v.Indices {
			out.Indices[i] = r.expr(idx)
		}
		return out
	case *ast.Binary:
		return &ast.Binary{BaseExpr: v.BaseExpr, Left: r.expr(v.Left), Right: r.expr(v.Right), Op: v.Op}
	case *ast.Unary:
		return &ast.Unary{BaseExpr: v.BaseExpr, Operand: r.expr(v.Operand), Op: v.Op}
	case *ast.Cast:
		out := &ast.Cast{BaseExpr: v.BaseExpr, Target: r.expr(v.Target)}
		out.Args = make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = r.expr(a)
		}
		return out
	case *ast.Assign:
		return &ast.Assign{BaseExpr: v.BaseExpr, Left: r.expr(v.Left), Right: r.expr(v.Right), Op: v.Op}
	case *ast.Swizzle:
		return &ast.Swizzle{BaseExpr: v.BaseExpr, Expr: r.expr(v.Expr), Components: append([]int(nil), v.Components...)}
	case *ast.CallFunction:
		out := &ast.CallFunction{BaseExpr: v.BaseExpr, Target: r.expr(v.Target)}
		out.Args = make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = r.expr(a)
		}
		return out
	case *ast.Intrinsic:
		out := &ast.Intrinsic{BaseExpr: v.BaseExpr, Kind: v.Kind}
		out.Args = make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = r.expr(a)
		}
		return out
	case *ast.Conditional:
		return &ast.Conditional{BaseExpr: v.BaseExpr, Cond: r.expr(v.Cond), Then: r.expr(v.Then), Else: r.expr(v.Else)}
	case *ast.ConstantValueExpression:
		return &ast.ConstantValueExpression{BaseExpr: v.BaseExpr, Value: v.Value}
	case *ast.ConstantArrayValueExpression:
		return &ast.ConstantArrayValueExpression{BaseExpr: v.BaseExpr, Values: append([]constant.Value(nil), v.Values...)}
	case *ast.ConstantExpression:
		return &ast.ConstantExpression{BaseExpr: v.BaseExpr, ConstIdx: r.gens.constant(v.ConstIdx)}
	case *ast.VariableValueExpression:
		return &ast.VariableValueExpression{BaseExpr: v.BaseExpr, VarIdx: r.gens.variable(v.VarIdx)}
	case *ast.AliasValueExpression:
		return &ast.AliasValueExpression{BaseExpr: v.BaseExpr, AliasIdx: r.gens.alias(v.AliasIdx)}
	case *ast.FunctionExpression:
		return &ast.FunctionExpression{BaseExpr: v.BaseExpr, FuncIdx: r.gens.function(v.FuncIdx)}
	case *ast.IntrinsicFunctionExpression:
		return &ast.IntrinsicFunctionExpression{BaseExpr: v.BaseExpr, Kind: v.Kind}
	case *ast.StructTypeExpression:
		return &ast.StructTypeExpression{BaseExpr: v.BaseExpr, StructIdx: r.gens.structIdx(v.StructIdx)}
	case *ast.TypeExpression:
		return &ast.TypeExpression{BaseExpr: v.BaseExpr, TypeIdx: r.gens.typeIdx(v.TypeIdx)}
	case *ast.ModuleExpression:
		return &ast.ModuleExpression{BaseExpr: v.BaseExpr, ModuleIdx: r.gens.module(v.ModuleIdx)}
	case *ast.NamedExternalBlockExpression:
		return &ast.NamedExternalBlockExpression{BaseExpr: v.BaseExpr, BlockIdx: r.gens.externalBlock(v.BlockIdx)}
	default:
		return e
	}
}
