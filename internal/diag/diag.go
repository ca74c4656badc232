// Package diag is the diagnostics surface (§7): typed errors carrying a
// kind, source location, message, and optional context strings — never
// a multi-line report, per §1's Non-goals. Grounded on the teacher's
// internal/errors package (CompilerError.Format rendering a source line
// and caret) but narrowed to the (kind, location, context) tuple shape
// §7 mandates rather than that package's full multi-line source-context
// renderer, since this core does not read source text at all (that is
// the Parser's concern) — only positions flow through it.
package diag

import (
	"fmt"
	"strings"

	"github.com/shaderlang/slc/pkg/token"
)

// Kind is a diagnostic kind, grouped by the §7 taxonomy prefixes.
type Kind string

const (
	// Parse-structural (never raised by this core; reserved so a Parser
	// sharing this package's Diagnostic type can report in the same shape).
	KindParserEmptyIdentifier Kind = "ParserEmptyIdentifier"

	// Name resolution.
	KindUnknownIdentifier      Kind = "AstUnknownIdentifier"
	KindUnexpectedIdentifier   Kind = "AstUnexpectedIdentifier"
	KindIdentifierAlreadyUsed  Kind = "AstIdentifierAlreadyUsed"
	KindReservedIdentifier     Kind = "AstReservedIdentifier"
	KindCircularImport         Kind = "AstCircularImport"
	KindModuleNotFound         Kind = "AstModuleNotFound"
	KindModuleFeatureMismatch  Kind = "AstModuleFeatureMismatch"
	KindUnknownMethod          Kind = "AstUnknownMethod"
	KindUnknownField           Kind = "AstUnknownField"
	KindInvalidSwizzle         Kind = "AstInvalidSwizzle"
	KindUnexpectedAccessedType Kind = "AstUnexpectedAccessedType"

	// Type mismatch.
	KindUnmatchingTypes                 Kind = "AstUnmatchingTypes"
	KindBinaryUnsupported                Kind = "AstBinaryUnsupported"
	KindBinaryIncompatibleTypes          Kind = "AstBinaryIncompatibleTypes"
	KindUnaryUnsupported                 Kind = "AstUnaryUnsupported"
	KindCastComponentMismatch            Kind = "AstCastComponentMismatch"
	KindCastIncompatibleTypes            Kind = "AstCastIncompatibleTypes"
	KindCastMatrixExpectedVectorOrScalar Kind = "AstCastMatrixExpectedVectorOrScalar"
	KindCastIncompatibleBaseTypes        Kind = "AstCastIncompatibleBaseTypes"
	KindCastMatrixVectorComponentMismatch Kind = "AstCastMatrixVectorComponentMismatch"
	KindInvalidCast                      Kind = "AstInvalidCast"
	KindFieldUnexpectedType              Kind = "AstFieldUnexpectedType"
	KindIndexOutOfBounds                 Kind = "AstIndexOutOfBounds"
	KindIndexRequiresIntegerIndices      Kind = "AstIndexRequiresIntegerIndices"
	KindIndexStructRequiresInt32Indices  Kind = "AstIndexStructRequiresInt32Indices"
	KindIndexUnexpectedType              Kind = "AstIndexUnexpectedType"
	KindExpectedPartialType              Kind = "AstExpectedPartialType"
	KindPartialTypeTooFewParameters      Kind = "AstPartialTypeTooFewParameters"
	KindPartialTypeTooManyParameters     Kind = "AstPartialTypeTooManyParameters"
	KindSwizzleUnexpectedType            Kind = "AstSwizzleUnexpectedType"
	KindFunctionCallExpectedFunction     Kind = "AstFunctionCallExpectedFunction"
	KindFunctionCallUnmatchingParameterCount Kind = "AstFunctionCallUnmatchingParameterCount"
	KindFunctionCallUnmatchingParameterType  Kind = "AstFunctionCallUnmatchingParameterType"
	KindFunctionCallUnexpectedEntryFunction  Kind = "AstFunctionCallUnexpectedEntryFunction"
	KindExpectedIntrinsicFunction         Kind = "AstExpectedIntrinsicFunction"
	KindInvalidMethodIndex                Kind = "AstInvalidMethodIndex"
	KindIntrinsicExpectedType             Kind = "AstIntrinsicExpectedType"
	KindIntrinsicUnmatchingParameterType  Kind = "AstIntrinsicUnmatchingParameterType"
	KindIntrinsicUnmatchingVecComponent   Kind = "AstIntrinsicUnmatchingVecComponent"
	KindIntrinsicExpectedParameterCount   Kind = "AstIntrinsicExpectedParameterCount"
	KindAssignTemporary                   Kind = "AstAssignTemporary"

	// Const-eval.
	KindConstantExpressionRequired Kind = "AstConstantExpressionRequired"
	KindConstantExpectedValue      Kind = "AstConstantExpectedValue"
	KindConditionExpectedBool      Kind = "AstConditionExpectedBool"
	KindLiteralOutOfRange          Kind = "AstLiteralOutOfRange"
	KindInvalidConstantIndex       Kind = "AstInvalidConstantIndex"
	KindInvalidIndex               Kind = "AstInvalidIndex"

	// Semantic policy.
	KindStructFieldMultipleDefinition Kind = "AstStructFieldMultipleDefinition"
	KindStructFieldBuiltinAndLocation Kind = "AstStructFieldBuiltinAndLocation"
	KindStd140LayoutMismatch          Kind = "AstStd140LayoutMismatch"
	KindDiscardOutsideFragment        Kind = "AstDiscardOutsideFragment"
	KindReturnOutsideFunction         Kind = "AstReturnOutsideFunction"
	KindLoopControlOutsideLoop        Kind = "AstLoopControlOutsideLoop"

	// Internal — only raised when the resolver's own invariant breaks.
	KindInternalError Kind = "AstInternalError"
)

// Diagnostic is a single compiler diagnostic: kind, location, message,
// and free-form context (symbol names, expected/actual types) — the
// "(kind, source-location, context)" tuple §1/§7 specify, nothing more.
type Diagnostic struct {
	Kind     Kind
	Pos      token.Position
	Message  string
	Context  []string
}

// New builds a Diagnostic, formatting Message with fmtArgs via fmt.Sprintf.
func New(kind Kind, pos token.Position, format string, fmtArgs ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, fmtArgs...)}
}

// WithContext attaches free-form context strings and returns d for chaining.
func (d *Diagnostic) WithContext(ctx ...string) *Diagnostic {
	d.Context = append(d.Context, ctx...)
	return d
}

// Error implements the error interface so a Diagnostic can be returned
// from any function signature expecting a plain Go error (§7
// "Propagation: the transformer throws the typed error").
func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic as a single line (plus indented context
// lines), optionally with ANSI color, mirroring the teacher's
// CompilerError.Format but without a source-line/caret render since this
// package never holds source text (§7: "never a multi-line report").
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder
	if color {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString(fmt.Sprintf("%s: %s at %s", d.Kind, d.Message, d.Pos))
	if color {
		sb.WriteString("\033[0m")
	}
	for _, c := range d.Context {
		sb.WriteString("\n    ")
		sb.WriteString(c)
	}
	return sb.String()
}

// FormatAll renders a batch of diagnostics, one per line (plus their
// context lines), matching the teacher's errors.FormatErrors helper.
func FormatAll(diags []*Diagnostic, color bool) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = d.Format(color)
	}
	return strings.Join(parts, "\n")
}

// IsCritical reports whether kind should halt the PassManager-equivalent
// driver rather than merely being collected and continuing to the next
// node (§7 propagation: "An error aborts the entire compilation"). Every
// diagnostic this core raises is critical — there is no recoverable
// semantic error class — except the three families partial compilation
// swallows before a Diagnostic is ever constructed (§7).
func (k Kind) IsCritical() bool { return true }
