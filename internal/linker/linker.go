package linker

import (
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/ast"
)

// Link runs C9's remaining post-resolution scope — import resolution
// proper (selective symbol re-export, cycle detection) already happens
// inline during resolution, in internal/resolver/statements.go's
// resolveImport, using ctx's BeginImport/EndImport sentinel and its
// moduleByName dedup table (§8 invariants 5 and 6). By the time Link
// runs, module and every module it transitively imports are already
// merged into one shared ctx, so Link's job is purely C10: compute
// reachability from the requested entry-stage set and discard whatever
// it doesn't reach (§2 control-flow step 6).
//
// entryStageNames, when non-empty, restricts the reachability roots to
// functions whose @entry stage name appears in the set — the caller-
// selected subset of an asset's shaders a bundler actually ships,
// rather than every entry stage the source happens to declare. An
// empty/nil set means "every entry-stage function", which is what a
// module compiled standalone (no caller-selected entry set) wants.
func Link(module *ast.Module, ctx *rctx.Context, entryStageNames map[string]bool) Reachable {
	reached := computeReachableFiltered(ctx, entryStageNames)
	EliminateUnused(module, reached)
	return reached
}

func computeReachableFiltered(ctx *rctx.Context, entryStageNames map[string]bool) Reachable {
	if len(entryStageNames) == 0 {
		return ComputeReachable(ctx)
	}
	// Temporarily mask HasEntry on functions outside the requested set so
	// ComputeReachable's seeding only starts from the caller's subset,
	// then restore every entry flag regardless of outcome — HasEntry
	// reflects what the source declared, not what one Link call kept.
	type maskedEntry struct {
		idx  int
		data rctx.FunctionData
	}
	var masked []maskedEntry
	ctx.Functions.Range(func(idx int, data rctx.FunctionData) bool {
		if data.HasEntry && !entryStageNames[data.EntryStage.String()] {
			masked = append(masked, maskedEntry{idx, data})
			unmarked := data
			unmarked.HasEntry = false
			ctx.Functions.Update(idx, unmarked)
		}
		return true
	})
	reached := ComputeReachable(ctx)
	for _, m := range masked {
		ctx.Functions.Update(m.idx, m.data)
	}
	return reached
}
