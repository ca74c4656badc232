package resolver

import (
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
)

// cloneStatement deep-copies a statement subtree so @unroll expansion
// (ForStatement/ForEachStatement, §4 Statement rules / §8 scenario S5)
// can give each synthesized iteration its own nodes — the driver's
// single-owner-per-node invariant (§4.3) forbids splicing the same
// statement into the tree twice.
func cloneStatement(s ast.Statement) ast.Statement {
	if s == nil {
		return nil
	}
	switch v := s.(type) {
	case *ast.MultiStatement:
		out := &ast.MultiStatement{BaseStmt: v.BaseStmt}
		out.Statements = make([]ast.Statement, len(v.Statements))
		for i, c := range v.Statements {
			out.Statements[i] = cloneStatement(c)
		}
		return out
	case *ast.BranchStatement:
		out := &ast.BranchStatement{BaseStmt: v.BaseStmt, IsConst: v.IsConst}
		out.CondStatements = make([]ast.CondBranch, len(v.CondStatements))
		for i, c := range v.CondStatements {
			out.CondStatements[i] = ast.CondBranch{
				Cond: cloneExpression(c.Cond),
				Body: cloneStatement(c.Body).(*ast.MultiStatement),
			}
		}
		if v.Else != nil {
			out.Else = cloneStatement(v.Else).(*ast.MultiStatement)
		}
		return out
	case *ast.ConditionalStatement:
		return &ast.ConditionalStatement{BaseStmt: v.BaseStmt, Cond: cloneExpression(v.Cond), Stmt: cloneStatement(v.Stmt)}
	case *ast.DeclareAliasStatement:
		return &ast.DeclareAliasStatement{BaseStmt: v.BaseStmt, Expr: cloneExpression(v.Expr), Name: v.Name}
	case *ast.DeclareConstStatement:
		return &ast.DeclareConstStatement{
			BaseStmt:       v.BaseStmt,
			TypeAnnotation: cloneExpression(v.TypeAnnotation),
			Init:           cloneExpression(v.Init),
			Name:           v.Name,
		}
	case *ast.DeclareVariableStatement:
		return &ast.DeclareVariableStatement{
			BaseStmt:       v.BaseStmt,
			TypeAnnotation: cloneExpression(v.TypeAnnotation),
			Init:           cloneExpression(v.Init),
			Name:           v.Name,
		}
	case *ast.DeclareStructStatement:
		out := &ast.DeclareStructStatement{BaseStmt: v.BaseStmt, Name: v.Name}
		out.Members = make([]ast.StructMember, len(v.Members))
		for i, m := range v.Members {
			out.Members[i] = ast.StructMember{
				Cond:           cloneExpression(m.Cond),
				Builtin:        cloneExpression(m.Builtin),
				Interp:         cloneExpression(m.Interp),
				LocationIndex:  cloneExpression(m.LocationIndex),
				TypeAnnotation: cloneExpression(m.TypeAnnotation),
				Name:           m.Name,
			}
		}
		return out
	case *ast.DeclareOptionStatement:
		return &ast.DeclareOptionStatement{
			BaseStmt:       v.BaseStmt,
			TypeAnnotation: cloneExpression(v.TypeAnnotation),
			Default:        cloneExpression(v.Default),
			Name:           v.Name,
		}
	case *ast.DeclareFunctionStatement:
		out := &ast.DeclareFunctionStatement{
			BaseStmt:   v.BaseStmt,
			ReturnType: cloneExpression(v.ReturnType),
			Name:       v.Name,
			Attributes: ast.FunctionAttributes{
				Entry:              cloneExpression(v.Attributes.Entry),
				DepthWrite:         cloneExpression(v.Attributes.DepthWrite),
				EarlyFragmentTests: cloneExpression(v.Attributes.EarlyFragmentTests),
				EntryStage:         v.Attributes.EntryStage,
				HasEntryStage:      v.Attributes.HasEntryStage,
			},
		}
		for i := range v.Attributes.WorkgroupSize {
			out.Attributes.WorkgroupSize[i] = cloneExpression(v.Attributes.WorkgroupSize[i])
		}
		out.Params = make([]ast.Param, len(v.Params))
		for i, p := range v.Params {
			out.Params[i] = ast.Param{TypeAnnotation: cloneExpression(p.TypeAnnotation), Name: p.Name}
		}
		if v.Body != nil {
			out.Body = cloneStatement(v.Body).(*ast.MultiStatement)
		}
		return out
	case *ast.DeclareExternalStatement:
		out := &ast.DeclareExternalStatement{BaseStmt: v.BaseStmt, Name: v.Name}
		out.Vars = make([]ast.ExternalVar, len(v.Vars))
		for i, ev := range v.Vars {
			out.Vars[i] = ast.ExternalVar{
				TypeAnnotation: cloneExpression(ev.TypeAnnotation),
				BindingSet:     cloneExpression(ev.BindingSet),
				AutoBinding:    cloneExpression(ev.AutoBinding),
				Name:           ev.Name,
			}
		}
		return out
	case *ast.ForStatement:
		return &ast.ForStatement{
			BaseStmt: v.BaseStmt,
			From:     cloneExpression(v.From),
			To:       cloneExpression(v.To),
			Step:     cloneExpression(v.Step),
			Body:     cloneStatement(v.Body).(*ast.MultiStatement),
			Counter:  v.Counter,
			Unroll:   v.Unroll,
		}
	case *ast.ForEachStatement:
		return &ast.ForEachStatement{
			BaseStmt: v.BaseStmt,
			Array:    cloneExpression(v.Array),
			Body:     cloneStatement(v.Body).(*ast.MultiStatement),
			Var:      v.Var,
			Unroll:   v.Unroll,
		}
	case *ast.WhileStatement:
		return &ast.WhileStatement{BaseStmt: v.BaseStmt, Cond: cloneExpression(v.Cond), Body: cloneStatement(v.Body).(*ast.MultiStatement)}
	case *ast.ImportStatement:
		out := &ast.ImportStatement{BaseStmt: v.BaseStmt, ModuleName: v.ModuleName, Alias: v.Alias}
		out.Symbols = append([]ast.ImportedSymbol(nil), v.Symbols...)
		return out
	case *ast.ReturnStatement:
		return &ast.ReturnStatement{BaseStmt: v.BaseStmt, Value: cloneExpression(v.Value)}
	case *ast.DiscardStatement:
		return &ast.DiscardStatement{BaseStmt: v.BaseStmt}
	case *ast.BreakStatement:
		return &ast.BreakStatement{BaseStmt: v.BaseStmt}
	case *ast.ContinueStatement:
		return &ast.ContinueStatement{BaseStmt: v.BaseStmt}
	case *ast.ExpressionStatement:
		return &ast.ExpressionStatement{BaseStmt: v.BaseStmt, Expr: cloneExpression(v.Expr)}
	default:
		return s
	}
}

// cloneExpression deep-copies an expression subtree, handling both
// unresolved (parser-produced) and resolved (table-index leaf) node
// kinds, since @unroll expansion may reuse an already-resolved
// expression (e.g. the array operand of a ForEachStatement) across
// several synthesized iterations.
func cloneExpression(e ast.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Identifier:
		return &ast.Identifier{BaseExpr: v.BaseExpr, Name: v.Name}
	case *ast.AccessIdentifier:
		return &ast.AccessIdentifier{BaseExpr: v.BaseExpr, Expr: cloneExpression(v.Expr), Segments: append([]string(nil), v.Segments...)}
	case *ast.AccessField:
		return &ast.AccessField{BaseExpr: v.BaseExpr, Expr: cloneExpression(v.Expr), FieldIdx: v.FieldIdx}
	case *ast.AccessIndex:
		out := &ast.AccessIndex{BaseExpr: v.BaseExpr, Expr: cloneExpression(v.Expr)}
		out.Indices = make([]ast.Expression, len(v.Indices))
		for i, idx := range v.Indices {
			out.Indices[i] = cloneExpression(idx)
		}
		return out
	case *ast.Binary:
		return &ast.Binary{BaseExpr: v.BaseExpr, Left: cloneExpression(v.Left), Right: cloneExpression(v.Right), Op: v.Op}
	case *ast.Unary:
		return &ast.Unary{BaseExpr: v.BaseExpr, Operand: cloneExpression(v.Operand), Op: v.Op}
	case *ast.Cast:
		out := &ast.Cast{BaseExpr: v.BaseExpr, Target: cloneExpression(v.Target)}
		out.Args = make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = cloneExpression(a)
		}
		return out
	case *ast.Assign:
		return &ast.Assign{BaseExpr: v.BaseExpr, Left: cloneExpression(v.Left), Right: cloneExpression(v.Right), Op: v.Op}
	case *ast.Swizzle:
		return &ast.Swizzle{BaseExpr: v.BaseExpr, Expr: cloneExpression(v.Expr), Components: append([]int(nil), v.Components...)}
	case *ast.CallFunction:
		out := &ast.CallFunction{BaseExpr: v.BaseExpr, Target: cloneExpression(v.Target)}
		out.Args = make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = cloneExpression(a)
		}
		return out
	case *ast.Intrinsic:
		out := &ast.Intrinsic{BaseExpr: v.BaseExpr, Kind: v.Kind}
		out.Args = make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = cloneExpression(a)
		}
		return out
	case *ast.Conditional:
		return &ast.Conditional{BaseExpr: v.BaseExpr, Cond: cloneExpression(v.Cond), Then: cloneExpression(v.Then), Else: cloneExpression(v.Else)}
	case *ast.ConstantValueExpression:
		return &ast.ConstantValueExpression{BaseExpr: v.BaseExpr, Value: v.Value}
	case *ast.ConstantArrayValueExpression:
		return &ast.ConstantArrayValueExpression{BaseExpr: v.BaseExpr, Values: append([]constant.Value(nil), v.Values...)}
	case *ast.ConstantExpression:
		return &ast.ConstantExpression{BaseExpr: v.BaseExpr, ConstIdx: v.ConstIdx}
	case *ast.VariableValueExpression:
		return &ast.VariableValueExpression{BaseExpr: v.BaseExpr, VarIdx: v.VarIdx}
	case *ast.AliasValueExpression:
		return &ast.AliasValueExpression{BaseExpr: v.BaseExpr, AliasIdx: v.AliasIdx}
	case *ast.FunctionExpression:
		return &ast.FunctionExpression{BaseExpr: v.BaseExpr, FuncIdx: v.FuncIdx}
	case *ast.IntrinsicFunctionExpression:
		return &ast.IntrinsicFunctionExpression{BaseExpr: v.BaseExpr, Kind: v.Kind}
	case *ast.StructTypeExpression:
		return &ast.StructTypeExpression{BaseExpr: v.BaseExpr, StructIdx: v.StructIdx}
	case *ast.TypeExpression:
		return &ast.TypeExpression{BaseExpr: v.BaseExpr, TypeIdx: v.TypeIdx}
	case *ast.ModuleExpression:
		return &ast.ModuleExpression{BaseExpr: v.BaseExpr, ModuleIdx: v.ModuleIdx}
	case *ast.NamedExternalBlockExpression:
		return &ast.NamedExternalBlockExpression{BaseExpr: v.BaseExpr, BlockIdx: v.BlockIdx}
	default:
		return e
	}
}
