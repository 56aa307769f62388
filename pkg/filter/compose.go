package filter

// Compose merges a caller-supplied filter with a scoping filter.
//
// An empty caller yields scope unchanged (nil when scope is nil too). Two non-empty
// expressions are wrapped in And{caller, scope} without flattening, so the result stays in
// the caller's grammar. A nil scope leaves the caller filter as is.
func Compose(caller, scope Expr) Expr {
	if IsEmpty(caller) {
		return scope
	}
	if IsEmpty(scope) {
		return caller
	}
	return And{caller, scope}
}
