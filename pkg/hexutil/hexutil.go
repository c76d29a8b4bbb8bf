// Package hexutil centralizes this system's "0x..."-prefixed rendering and
// parsing of addresses and register values, so pkg/injection's CSV-logged
// Records and pkg/campaign's explicit-target parsing never drift out of
// sync on case or padding. It is a thin wrapper over go-ethereum's
// common/hexutil package.
package hexutil

import (
	gethhexutil "github.com/ethereum/go-ethereum/common/hexutil"
)

// EncodeUint64 renders v as a canonical "0x..." string.
func EncodeUint64(v uint64) string {
	return gethhexutil.EncodeUint64(v)
}

// DecodeUint64 parses a "0x..."-prefixed (or bare hex) string into a uint64.
func DecodeUint64(s string) (uint64, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return gethhexutil.DecodeUint64(s)
	}
	return gethhexutil.DecodeUint64("0x" + s)
}
