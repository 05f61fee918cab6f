package value

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var equalOptions = []cmp.Option{
	cmpopts.EquateNaNs(),
	cmpopts.EquateEmpty(),
}

// Equal reports whether a and b are deeply, structurally equal.
// Sequences compare positionally, mappings ignore key order, and
// nil and Undefined are distinct. NaN equals NaN and 0 equals -0.
//
// Opaque values have no data form and compare by their display
// text alone, so two distinct functions that share a name are
// equal, while an Opaque never equals a string with the same text.
// A panic raised while comparing is returned as an error.
func Equal(a, b any) (equal bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			equal = false
			err = fmt.Errorf("comparison failed: %v", r)
		}
	}()

	return cmp.Equal(Normalize(a), Normalize(b), equalOptions...), nil
}

// Diff returns a human-readable difference between want and got,
// or an empty string when they are equal.
func Diff(want, got any) string {
	defer func() { _ = recover() }()
	return cmp.Diff(Normalize(want), Normalize(got), equalOptions...)
}
