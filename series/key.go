package series

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is the canonical string encoding of an index-value tuple. It is used as
// the map key grouping events inside an EventSet. The encoding length-prefixes
// every component, so distinct tuples never collide (unlike a plain join).
type Key string

// EncodeKey builds the key for a tuple of index values. Values must match the
// index dtypes of the owning schema: int64, int32 or string.
func EncodeKey(values []any) (Key, error) {
	var b strings.Builder
	for _, v := range values {
		switch x := v.(type) {
		case int64:
			s := strconv.FormatInt(x, 10)
			fmt.Fprintf(&b, "i%d:%s", len(s), s)
		case int32:
			s := strconv.FormatInt(int64(x), 10)
			fmt.Fprintf(&b, "j%d:%s", len(s), s)
		case string:
			fmt.Fprintf(&b, "s%d:%s", len(x), x)
		default:
			return "", fmt.Errorf("invalid index value %v (%T)", v, v)
		}
	}
	return Key(b.String()), nil
}

// keyString renders index values for error messages and CSV output ordering.
func keyString(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
