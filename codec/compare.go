package codec

import (
	"strings"

	"github.com/jchris/prolly-trees/dberrors"
)

// Compare gives Values a total order within a type: integers by numeric
// order, strings by code-point order. Comparing across types, or comparing
// against the null sentinel, is undefined and is rejected with a
// SchemaError rather than silently matching or ordering.
func Compare(a, b Value) (int, error) {
	if a.Type != b.Type {
		return 0, dberrors.NewSchemaError("cannot compare %s to %s", a.Type, b.Type)
	}
	switch a.Type {
	case Int:
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		default:
			return 0, nil
		}
	case Varchar:
		return strings.Compare(a.Str, b.Str), nil
	default:
		return 0, dberrors.NewSchemaError("cannot compare against %s", a.Type)
	}
}

// Equal reports whether a and b compare equal. It never errors on type
// mismatch; mismatched types are simply unequal.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	c, err := Compare(a, b)
	return err == nil && c == 0
}
