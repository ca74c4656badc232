package diag

// Stringifier is the sole API by which error messages reference symbols
// by name (§4.6): four closures that look a table index up in whichever
// table owns it, plus type rendering. The resolver builds one from its
// TransformerContext and threads it through every diagnostic-producing
// rule rather than letting rules format types/names themselves.
type Stringifier struct {
	AliasName             func(idx int) string
	ModuleName             func(idx int) string
	NamedExternalBlockName func(idx int) string
	StructName             func(idx int) string
	TypeName               func(idx int) string
}
