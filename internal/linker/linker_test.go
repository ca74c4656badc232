package linker

import (
	"testing"

	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"

	"github.com/shaderlang/slc/internal/rctx"
)

func TestLinkEliminatesEverythingNotReachableFromRequestedEntryStage(t *testing.T) {
	ctx := rctx.New()

	sharedHelper := buildFunction(ctx, false, 0, 0, false, false)
	vertexMain := buildFunction(ctx, false, sharedHelper, 0, true, false)
	fragMain := buildFunction(ctx, false, 0, 0, false, false)

	module := &ast.Module{Statements: []ast.Statement{
		&ast.DeclareFunctionStatement{
			Name:       "vs_main",
			FuncIdx:    vertexMain,
			Attributes: ast.FunctionAttributes{HasEntryStage: true, EntryStage: ast.StageVertex},
		},
		&ast.DeclareFunctionStatement{Name: "helper", FuncIdx: sharedHelper},
		&ast.DeclareFunctionStatement{
			Name: "fs_main", FuncIdx: fragMain,
			Attributes: ast.FunctionAttributes{HasEntryStage: true, EntryStage: ast.StageFragment},
		},
	}}

	// Mark vs_main/fs_main HasEntry in ctx (all three functions above were
	// built with hasEntry=false, so both entry points are set explicitly
	// here along with their stages).
	for _, idx := range []int{vertexMain, fragMain} {
		fdata, err := ctx.Functions.Retrieve(idx, token.Position{})
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		updated := *fdata
		updated.HasEntry = true
		if idx == vertexMain {
			updated.EntryStage = ast.StageVertex
		} else {
			updated.EntryStage = ast.StageFragment
		}
		ctx.Functions.Update(idx, updated)
	}

	reached := Link(module, ctx, map[string]bool{"vertex": true})

	if !reached.Functions[vertexMain] {
		t.Errorf("expected vs_main reachable when only vertex stage is requested")
	}
	if !reached.Functions[sharedHelper] {
		t.Errorf("expected helper reachable transitively through vs_main")
	}
	if reached.Functions[fragMain] {
		t.Errorf("did not expect fs_main reachable when only vertex stage is requested")
	}

	var surviving []string
	for _, s := range module.Statements {
		surviving = append(surviving, s.(*ast.DeclareFunctionStatement).Name)
	}
	want := map[string]bool{"vs_main": true, "helper": true}
	if len(surviving) != len(want) {
		t.Fatalf("expected %d surviving functions, got %v", len(want), surviving)
	}
	for _, n := range surviving {
		if !want[n] {
			t.Errorf("unexpected surviving function %q (expected only %v)", n, want)
		}
	}

	// HasEntry must be restored for fs_main even though this Link call
	// only asked for the vertex subset — a second Link call over the
	// same ctx for the fragment subset must still find it.
	fdata, err := ctx.Functions.Retrieve(fragMain, token.Position{})
	if err != nil {
		t.Fatalf("retrieve fragMain: %v", err)
	}
	if !fdata.HasEntry {
		t.Errorf("expected fs_main's HasEntry to be restored after the vertex-only Link call")
	}
}

func TestLinkWithNoFilterReachesEveryEntryStage(t *testing.T) {
	ctx := rctx.New()
	vertexMain := buildFunction(ctx, true, 0, 0, false, false)
	fragMain := buildFunction(ctx, true, 0, 0, false, false)

	module := &ast.Module{Statements: []ast.Statement{
		&ast.DeclareFunctionStatement{Name: "vs_main", FuncIdx: vertexMain, Attributes: ast.FunctionAttributes{HasEntryStage: true}},
		&ast.DeclareFunctionStatement{Name: "fs_main", FuncIdx: fragMain, Attributes: ast.FunctionAttributes{HasEntryStage: true}},
	}}

	reached := Link(module, ctx, nil)

	if !reached.Functions[vertexMain] || !reached.Functions[fragMain] {
		t.Errorf("expected both entry-stage functions reachable with no filter")
	}
	if len(module.Statements) != 2 {
		t.Errorf("expected both functions to survive elimination, got %d statements", len(module.Statements))
	}
}
