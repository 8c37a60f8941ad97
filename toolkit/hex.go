package toolkit

import (
	"encoding/hex"
	"strings"

	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex accepts an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, zkerr.Encoding(err, "decode hex")
	}

	return b, nil
}
