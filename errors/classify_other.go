//go:build !unix

package errors

// errnoKind has no errno table outside unix; the sentinel checks in ioKind
// still apply.
func errnoKind(error) (Kind, bool) {
	return KindOther, false
}
