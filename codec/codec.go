// Package codec defines the versioned byte encodings exchanged with callers.
//
// Every structure is wrapped in an envelope of the magic "ZKFL", a version
// byte and a kind byte, followed by a CBOR body. Bodies use core
// deterministic encoding and are decoded strictly: duplicate map keys,
// unknown fields, indefinite lengths and trailing bytes are all rejected.
package codec

import (
	"bytes"
	"reflect"

	cbor "github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

const (
	Version byte = 0x01
	// MinimumVersion is the oldest envelope version still decoded.
	MinimumVersion byte = 0x01
)

var magic = []byte("ZKFL")

type Kind byte

const (
	KindTrace          Kind = 0x01
	KindStatementProof Kind = 0x02
	KindAggregateProof Kind = 0x03
	KindKeyPair        Kind = 0x04
)

func (k Kind) String() string {
	switch k {
	case KindTrace:
		return "trace"
	case KindStatementProof:
		return "statement-proof"
	case KindAggregateProof:
		return "aggregate-proof"
	case KindKeyPair:
		return "key-pair"
	}

	return "unknown"
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

func seal(kind Kind, body interface{}) ([]byte, error) {
	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "seal")
	}

	out := make([]byte, 0, len(magic)+2+len(raw))
	out = append(out, magic...)
	out = append(out, Version, byte(kind))
	return append(out, raw...), nil
}

func open(kind Kind, b []byte, body interface{}) error {
	header := len(magic) + 2
	if len(b) <= header || !bytes.Equal(b[:len(magic)], magic) {
		return zkerr.Encoding(nil, "open: bad envelope")
	}

	if v := b[len(magic)]; v < MinimumVersion || v > Version {
		return zkerr.Encoding(nil, "open: unsupported version")
	}

	if Kind(b[len(magic)+1]) != kind {
		return zkerr.Encoding(nil, "open: expected "+kind.String())
	}

	if err := decMode.Unmarshal(b[header:], body); err != nil {
		return zkerr.Encoding(err, "open")
	}

	// bodies are only accepted in the exact form seal produces, so that every
	// proof has a single valid encoding
	if hasNil(reflect.ValueOf(body)) {
		return zkerr.Encoding(nil, "open: null value")
	}

	canonical, err := encMode.Marshal(body)
	if err != nil || !bytes.Equal(canonical, b[header:]) {
		return zkerr.Encoding(err, "open: non-canonical body")
	}

	return nil
}

// hasNil reports whether v holds a nil slice anywhere. Encoders in this
// package never emit null.
func hasNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return true
		}

		return hasNil(v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			return true
		}

		if v.Type().Elem().Kind() == reflect.Uint8 {
			return false
		}

		for i := 0; i < v.Len(); i++ {
			if hasNil(v.Index(i)) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() && hasNil(v.Field(i)) {
				return true
			}
		}
	}

	return false
}

// KindOf reports the kind of an envelope without decoding its body.
func KindOf(b []byte) (Kind, error) {
	if len(b) < len(magic)+2 || !bytes.Equal(b[:len(magic)], magic) {
		return 0, zkerr.Encoding(nil, "kind of: bad envelope")
	}

	return Kind(b[len(magic)+1]), nil
}
