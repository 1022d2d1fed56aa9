package codec

import "bytes"

// SplitNULFields splits a NUL-separated token into exactly n fields, as
// used by PLAIN (authzid\0authid\0password) and SECURID
// (authzid\0authid\0passcode[\0pin]). Exactly n-1 separators are
// required for a fixed field count; callers that accept a variable
// trailing field (SECURID's optional pin) pass the minimum n and
// inspect len(fields) themselves via SplitNULFieldsAtLeast.
func SplitNULFields(b []byte, n int) ([][]byte, error) {
	fields := bytes.Split(b, []byte{0})
	if len(fields) != n {
		return nil, parseErrorf("expected exactly the required number of NUL-separated fields")
	}
	return fields, nil
}

// SplitNULFieldsAtLeast splits a NUL-separated token requiring at least
// min fields.
func SplitNULFieldsAtLeast(b []byte, min int) ([][]byte, error) {
	fields := bytes.Split(b, []byte{0})
	if len(fields) < min {
		return nil, parseErrorf("too few NUL-separated fields")
	}
	return fields, nil
}

// JoinNULFields is the inverse of SplitNULFields.
func JoinNULFields(fields ...[]byte) []byte {
	return bytes.Join(fields, []byte{0})
}
